package raster

import (
	"image"
	"image/color"
	"image/draw"
)

// NewCanvas allocates a side×side composite canvas. The background is
// opaque black; cells that never receive a thumbnail (failed entries,
// unused grid slots) keep it.
func NewCanvas(side int) *image.NRGBA {
	canvas := image.NewNRGBA(image.Rect(0, 0, side, side))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.NRGBA{A: 255}), image.Point{}, draw.Src)
	return canvas
}

// CompositeAt draws src into dst with its top-left corner at (x, y).
// Callers compositing concurrently must give each goroutine a disjoint
// destination rectangle; draw.Draw touches only the target rect, so no
// further synchronisation is needed.
func CompositeAt(dst *image.NRGBA, src image.Image, x, y int) {
	rect := image.Rect(x, y, x+src.Bounds().Dx(), y+src.Bounds().Dy())
	draw.Draw(dst, rect, src, src.Bounds().Min, draw.Src)
}
