// Package pyramid builds Deep Zoom image pyramids: a sequence of levels
// from 1×1 up to native resolution, each sliced into overlapping tiles,
// plus the DZI descriptor a viewer uses to request them.
package pyramid

import (
	"fmt"
	"image"
	"path/filepath"
	"strconv"

	"github.com/cavenel/go-deepzoom/internal/fsops"
	"github.com/cavenel/go-deepzoom/internal/geometry"
	"github.com/cavenel/go-deepzoom/internal/raster"
)

// Options configure tile generation for one pyramid.
type Options struct {
	TileSize int
	Overlap  int
	Format   raster.Format
}

// ConfigError reports an invalid tiling parameter.
type ConfigError struct {
	Param string
	Value int
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %d", e.Param, e.Value)
}

// Validate checks tile size and overlap. Overlap must leave at least one
// non-overlap pixel per tile, or adjacent tiles would swallow each other.
func (o Options) Validate() error {
	if o.TileSize <= 0 {
		return &ConfigError{Param: "tile size", Value: o.TileSize}
	}
	if o.Overlap < 0 || o.Overlap >= o.TileSize {
		return &ConfigError{Param: "overlap", Value: o.Overlap}
	}
	return nil
}

// TileError reports a failed tile write with its position in the pyramid.
type TileError struct {
	Path     string
	Level    int
	Col, Row int
	Err      error
}

func (e *TileError) Error() string {
	return fmt.Sprintf("tile %s (level %d, %d_%d): %v", e.Path, e.Level, e.Col, e.Row, e.Err)
}

func (e *TileError) Unwrap() error { return e.Err }

// TilePath returns the destination of tile (col, row) at the given level
// under outputBase: <outputBase>/<level>/<col>_<row>.<ext>.
func TilePath(outputBase string, level, col, row int, format raster.Format) string {
	return filepath.Join(outputBase, strconv.Itoa(level),
		fmt.Sprintf("%d_%d.%s", col, row, format.Ext))
}

// Build writes the complete pyramid for img under outputBase and returns
// its descriptor. Every level is resampled directly from the native
// raster rather than cascaded from the previous level, so resampling
// error does not compound down the pyramid.
//
// Build returns a descriptor only after every tile has been written; on
// the first failure it stops and returns a TileError locating the tile.
func Build(img image.Image, outputBase string, opts Options) (*Descriptor, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	nativeW := img.Bounds().Dx()
	nativeH := img.Bounds().Dy()
	maxLevel := geometry.MaxLevel(nativeW, nativeH)

	for level := maxLevel; level >= 0; level-- {
		levelW, levelH := geometry.LevelSize(nativeW, nativeH, level, maxLevel)
		levelImg := raster.Resize(img, levelW, levelH)

		levelDir := filepath.Join(outputBase, strconv.Itoa(level))
		if err := fsops.EnsureDir(levelDir); err != nil {
			return nil, err
		}

		cols, rows := geometry.Grid(levelW, levelH, opts.TileSize)
		for row := 0; row < rows; row++ {
			for col := 0; col < cols; col++ {
				rect := geometry.TileRect(levelW, levelH, opts.TileSize, opts.Overlap, col, row)
				rect = rect.Add(levelImg.Bounds().Min)
				tile, err := raster.Crop(levelImg, rect)
				if err != nil {
					return nil, &TileError{Level: level, Col: col, Row: row, Err: err}
				}
				path := TilePath(outputBase, level, col, row, opts.Format)
				if err := raster.Encode(tile, path, opts.Format); err != nil {
					return nil, &TileError{Path: path, Level: level, Col: col, Row: row, Err: err}
				}
			}
		}
	}

	return &Descriptor{
		Format:   opts.Format.Ext,
		TileSize: opts.TileSize,
		Overlap:  opts.Overlap,
		Width:    nativeW,
		Height:   nativeH,
	}, nil
}
