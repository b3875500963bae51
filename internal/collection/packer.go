// Package collection packs many source images into one composite canvas
// and turns that canvas into its own pyramid, so a viewer can pan and
// zoom across the whole set. Each image is reduced to a thumbnail and
// placed on a power-of-two grid along a Z-order curve; placement is a
// pure function of the sorted input listing.
package collection

import (
	"fmt"
	"image"
	"runtime"
	"sort"

	"github.com/cavenel/go-deepzoom/internal/geometry"
	"github.com/cavenel/go-deepzoom/internal/pyramid"
	"github.com/cavenel/go-deepzoom/internal/raster"
)

// Entry is one source image in collection order. Index is the position
// in the sorted input listing and fully determines the entry's cell.
type Entry struct {
	Index  int
	Path   string
	Source string // viewer reference to the entry's own DZI, may be empty
}

// Options configure the composite canvas and its pyramid.
type Options struct {
	CellSize int
	TileSize int
	Overlap  int
	Format   raster.Format
	Workers  int // thumbnail decode/composite concurrency; 0 means NumCPU

	// GridFor is the item count the grid is sized for, normally the
	// length of the full input listing. It keeps the canvas dimensions
	// stable when entries have been dropped before packing; 0 falls
	// back to the highest entry index plus one.
	GridFor int
}

// FailedEntry records an entry that could not be composited. Its cell
// stays empty and every other entry keeps its placement: indices are
// never renumbered, so a re-run after fixing the file moves nothing.
type FailedEntry struct {
	Entry Entry
	Err   error
}

// Placement returns the grid cell of the entry at the given index.
func Placement(index int) (x, y int) {
	return geometry.ZOrder(index)
}

// Pack composites every entry's thumbnail onto one canvas, builds the
// canvas pyramid under outputBase, and returns the collection
// descriptor. Entries that fail to decode are reported in the second
// return value; Pack only fails outright when the canvas pyramid itself
// cannot be written or the options are invalid.
func Pack(entries []Entry, outputBase string, opts Options) (*Descriptor, []FailedEntry, error) {
	if opts.CellSize <= 0 {
		return nil, nil, &pyramid.ConfigError{Param: "cell size", Value: opts.CellSize}
	}
	pyrOpts := pyramid.Options{TileSize: opts.TileSize, Overlap: opts.Overlap, Format: opts.Format}
	if err := pyrOpts.Validate(); err != nil {
		return nil, nil, err
	}

	n := opts.GridFor
	for _, e := range entries {
		if e.Index >= n {
			n = e.Index + 1
		}
	}
	depth := geometry.CollectionDepth(n)
	side := geometry.SideLength(depth)
	canvas := raster.NewCanvas(opts.CellSize * side)

	items, failed := compositeAll(canvas, entries, opts)

	pyrDesc, err := pyramid.Build(canvas, outputBase, pyrOpts)
	if err != nil {
		return nil, failed, fmt.Errorf("collection pyramid: %w", err)
	}

	return &Descriptor{
		Pyramid:  *pyrDesc,
		CellSize: opts.CellSize,
		Items:    items,
	}, failed, nil
}

// compositeAll decodes and places every entry's thumbnail. Entries write
// into disjoint canvas rectangles, so the workers share the canvas
// without locking.
func compositeAll(canvas *image.NRGBA, entries []Entry, opts Options) ([]Item, []FailedEntry) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	type result struct {
		item Item
		fail *FailedEntry
	}
	results := make(chan result, len(entries))
	sem := make(chan struct{}, workers)

	for _, entry := range entries {
		sem <- struct{}{}
		go func(entry Entry) {
			defer func() { <-sem }()

			img, err := raster.Decode(entry.Path)
			if err != nil {
				results <- result{fail: &FailedEntry{Entry: entry, Err: err}}
				return
			}

			x, y := Placement(entry.Index)
			thumb := raster.FitCell(img, opts.CellSize)
			raster.CompositeAt(canvas, thumb, x*opts.CellSize, y*opts.CellSize)

			results <- result{item: Item{
				Index:  entry.Index,
				Path:   entry.Path,
				Source: entry.Source,
				Width:  img.Bounds().Dx(),
				Height: img.Bounds().Dy(),
				Rect: image.Rect(x*opts.CellSize, y*opts.CellSize,
					(x+1)*opts.CellSize, (y+1)*opts.CellSize),
			}}
		}(entry)
	}

	var items []Item
	var failed []FailedEntry
	for range entries {
		r := <-results
		if r.fail != nil {
			failed = append(failed, *r.fail)
			continue
		}
		items = append(items, r.item)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Index < items[j].Index })
	sort.Slice(failed, func(i, j int) bool { return failed[i].Entry.Index < failed[j].Entry.Index })
	return items, failed
}
