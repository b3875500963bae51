package raster

import (
	"image"
	"image/color"
	"testing"
)

func TestFitCell_WideImageLetterboxes(t *testing.T) {
	// 2:1 image in a square cell: full width, half height, centered.
	img := createSolidImage(200, 100, color.NRGBA{R: 255, A: 255})

	out := FitCell(img, 64)
	if out.Bounds().Dx() != 64 || out.Bounds().Dy() != 64 {
		t.Fatalf("cell size: got %dx%d, want 64x64", out.Bounds().Dx(), out.Bounds().Dy())
	}

	// Image content occupies rows 16..47; rows above and below are pad.
	r, _, _, _ := out.At(32, 32).RGBA()
	if r>>8 < 200 {
		t.Errorf("center pixel not image content: %v", out.At(32, 32))
	}
}

func TestFitCell_PadUsesBorderTone(t *testing.T) {
	// A solid red image's border average is red, so the letterbox band
	// must be red-dominant rather than black.
	img := createSolidImage(100, 20, color.NRGBA{R: 255, A: 255})

	out := FitCell(img, 50)
	r, g, b, _ := out.At(25, 2).RGBA()
	if r>>8 < 180 || g>>8 > 80 || b>>8 > 80 {
		t.Errorf("pad pixel (25,2) = %v, want red-dominant", out.At(25, 2))
	}
}

func TestFitCell_SquareImageFillsCell(t *testing.T) {
	img := createSolidImage(300, 300, color.NRGBA{B: 255, A: 255})

	out := FitCell(img, 64)
	for _, p := range []image.Point{{0, 0}, {63, 63}, {32, 32}} {
		_, _, b, _ := out.At(p.X, p.Y).RGBA()
		if b>>8 < 200 {
			t.Errorf("pixel %v not image content: %v", p, out.At(p.X, p.Y))
		}
	}
}

func TestCompositeAt_DisjointRects(t *testing.T) {
	canvas := NewCanvas(8)
	CompositeAt(canvas, createSolidImage(4, 4, color.NRGBA{R: 255, A: 255}), 0, 0)
	CompositeAt(canvas, createSolidImage(4, 4, color.NRGBA{G: 255, A: 255}), 4, 4)

	r, _, _, _ := canvas.At(1, 1).RGBA()
	if r>>8 != 255 {
		t.Errorf("top-left cell: got %v, want red", canvas.At(1, 1))
	}
	_, g, _, _ := canvas.At(5, 5).RGBA()
	if g>>8 != 255 {
		t.Errorf("bottom-right cell: got %v, want green", canvas.At(5, 5))
	}
	// Untouched cell keeps the background.
	r, g, b, _ := canvas.At(6, 1).RGBA()
	if r != 0 || g != 0 || b != 0 {
		t.Errorf("background cell: got %v, want black", canvas.At(6, 1))
	}
}
