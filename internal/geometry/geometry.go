// Package geometry holds the pure arithmetic behind Deep Zoom pyramids
// and collection grids. Everything here is a function of integers; no
// pixels are touched. Level and tile shapes are derived on demand rather
// than stored, so there is a single source of truth for every dimension.
package geometry

import (
	"image"
	"math/bits"
)

// MaxLevel returns the index of the native-resolution level of a pyramid
// for an image of the given size: ceil(log2(max(width, height))).
// Level 0 is always 1×1.
func MaxLevel(width, height int) int {
	m := width
	if height > m {
		m = height
	}
	if m <= 1 {
		return 0
	}
	return bits.Len(uint(m - 1))
}

// LevelSize returns the dimensions of pyramid level L for a native raster
// of nativeW×nativeH. Each step down halves with ceiling, so no pixel is
// lost at odd dimensions; deriving directly from the native size and
// halving level-by-level agree.
func LevelSize(nativeW, nativeH, level, maxLevel int) (int, int) {
	shift := maxLevel - level
	return ceilShift(nativeW, shift), ceilShift(nativeH, shift)
}

// Grid returns the tile grid (cols, rows) covering a level of the given
// size: ceil(w/tileSize) × ceil(h/tileSize).
func Grid(levelW, levelH, tileSize int) (cols, rows int) {
	return ceilDiv(levelW, tileSize), ceilDiv(levelH, tileSize)
}

// TileRect returns the pixel rectangle of tile (col, row) at a level of
// the given size. The rectangle is extended by overlap on interior edges
// and clamped to the level bounds, so edge tiles carry no phantom border.
func TileRect(levelW, levelH, tileSize, overlap, col, row int) image.Rectangle {
	x0 := col*tileSize - overlap
	y0 := row*tileSize - overlap
	x1 := col*tileSize + tileSize + overlap
	y1 := row*tileSize + tileSize + overlap
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > levelW {
		x1 = levelW
	}
	if y1 > levelH {
		y1 = levelH
	}
	return image.Rect(x0, y0, x1, y1)
}

// CollectionDepth returns the quadtree depth needed to place n items,
// ceil(log4(max(n,1))). A grid of side 2^depth holds 4^depth cells.
func CollectionDepth(n int) int {
	if n <= 1 {
		return 0
	}
	// ceil(log2(n)) then halve with ceiling: log4 = log2 / 2.
	l2 := bits.Len(uint(n - 1))
	return (l2 + 1) / 2
}

// SideLength returns the number of cells along one edge of a collection
// grid of the given depth.
func SideLength(depth int) int {
	return 1 << depth
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func ceilShift(v, shift int) int {
	d := 1 << shift
	n := (v + d - 1) >> shift
	if n < 1 {
		n = 1
	}
	return n
}
