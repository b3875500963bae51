package raster

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// FitCell scales img to fit inside a cell×cell square preserving aspect
// ratio, centers it, and letterboxes the remainder. The pad color is the
// Lab-space average of the scaled image's border pixels, so the band
// blends with the image instead of reading as a black bar.
//
// This letterbox-never-crop policy is a fixed contract: a collection
// thumbnail always shows the whole source image.
func FitCell(img image.Image, cell int) *image.NRGBA {
	fitted := imaging.Fit(img, cell, cell, imaging.Lanczos)

	out := imaging.New(cell, cell, borderAverage(fitted))
	offset := image.Pt((cell-fitted.Bounds().Dx())/2, (cell-fitted.Bounds().Dy())/2)
	draw.Draw(out, fitted.Bounds().Add(offset), fitted, image.Point{}, draw.Src)
	return out
}

// borderAverage averages the outermost pixel ring in Lab space. Lab keeps
// the mean perceptually between the border tones rather than washing out
// toward gray the way a naive RGB mean does.
func borderAverage(img image.Image) color.Color {
	b := img.Bounds()
	var l, a, bb float64
	var n int

	add := func(x, y int) {
		c, ok := colorful.MakeColor(img.At(x, y))
		if !ok {
			return
		}
		cl, ca, cb := c.Lab()
		l += cl
		a += ca
		bb += cb
		n++
	}

	for x := b.Min.X; x < b.Max.X; x++ {
		add(x, b.Min.Y)
		if b.Dy() > 1 {
			add(x, b.Max.Y-1)
		}
	}
	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		add(b.Min.X, y)
		if b.Dx() > 1 {
			add(b.Max.X-1, y)
		}
	}

	if n == 0 {
		return color.NRGBA{A: 255}
	}
	f := float64(n)
	return colorful.Lab(l/f, a/f, bb/f).Clamped()
}
