// Package raster wraps the pixel-level operations the pyramid and
// collection builders need: decoding source files, resampling levels,
// cropping tile regions, encoding tile files and compositing thumbnails
// onto a shared canvas.
package raster

import (
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/anthonynsimon/bild/transform"
	"github.com/disintegration/imaging"
)

// Format is an output encoding for tile files.
type Format struct {
	// Ext is the file extension without a dot, as it appears in tile
	// paths and descriptor Format attributes (e.g. "jpg").
	Ext string

	enc imaging.Format
}

// JPEG quality used for every encoded tile.
const jpegQuality = 90

// ParseFormat resolves a format tag like "jpg" or "png" into a Format.
func ParseFormat(tag string) (Format, error) {
	switch strings.ToLower(tag) {
	case "jpg", "jpeg":
		return Format{Ext: "jpg", enc: imaging.JPEG}, nil
	case "png":
		return Format{Ext: "png", enc: imaging.PNG}, nil
	case "gif":
		return Format{Ext: "gif", enc: imaging.GIF}, nil
	case "bmp":
		return Format{Ext: "bmp", enc: imaging.BMP}, nil
	case "tif", "tiff":
		return Format{Ext: "tif", enc: imaging.TIFF}, nil
	default:
		return Format{}, fmt.Errorf("unsupported output format %q", tag)
	}
}

// DecodeError reports a source file that could not be read as an image.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode loads and decodes an image file.
func Decode(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return img, nil
}

// Resize resamples img to exactly width×height. Used to derive each
// pyramid level directly from the native raster.
func Resize(img image.Image, width, height int) image.Image {
	if b := img.Bounds(); b.Dx() == width && b.Dy() == height {
		return img
	}
	return transform.Resize(img, width, height, transform.Lanczos)
}

// Crop extracts the given rectangle from img. The rectangle must lie
// inside the image bounds.
func Crop(img image.Image, rect image.Rectangle) (image.Image, error) {
	bounds := img.Bounds()
	if !rect.In(bounds) {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", rect, bounds)
	}
	if rect.Empty() {
		return nil, fmt.Errorf("empty crop region %v", rect)
	}
	return imaging.Crop(img, rect), nil
}

// Encode writes img to path in the given format.
func Encode(img image.Image, path string, format Format) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := imaging.Encode(f, img, format.enc, imaging.JPEGQuality(jpegQuality)); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
