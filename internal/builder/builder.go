// Package builder orchestrates a full run: enumerate the input
// directory, build one pyramid per source image, then pack every image
// into the collection pyramid. Per-image work runs on a bounded worker
// pool; placement and output naming are derived from the sorted listing
// so runs are deterministic.
package builder

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"

	"github.com/cavenel/go-deepzoom/internal/collection"
	"github.com/cavenel/go-deepzoom/internal/fsops"
	"github.com/cavenel/go-deepzoom/internal/pyramid"
	"github.com/cavenel/go-deepzoom/internal/raster"
)

// Config is one run of the builder.
type Config struct {
	InputDir  string
	OutputDir string
	Name      string // collection name: <Name>.dzc and <Name>_files/

	TileSize int
	Overlap  int
	Format   string // output format tag, e.g. "jpg"
	CellSize int
	Workers  int // 0 means NumCPU

	Log *slog.Logger
}

// Defaults used when the corresponding Config fields are zero.
const (
	DefaultTileSize = 254
	DefaultOverlap  = 1
	DefaultFormat   = "jpg"
	DefaultCellSize = 256
)

// InputError reports an unusable input directory.
type InputError struct {
	Dir string
	Err error
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("input directory %s: %v", e.Dir, e.Err)
	}
	return fmt.Sprintf("input directory %s: no supported image files", e.Dir)
}

func (e *InputError) Unwrap() error { return e.Err }

// Run executes the whole pipeline and returns a report of what was
// built. A non-nil error means the run could not proceed at all
// (bad input directory, bad configuration, unwritable output); partial
// failures are recorded in the report instead.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	applyDefaults(&cfg)

	format, err := raster.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	pyrOpts := pyramid.Options{TileSize: cfg.TileSize, Overlap: cfg.Overlap, Format: format}
	if err := pyrOpts.Validate(); err != nil {
		return nil, err
	}

	sources, err := fsops.ListImages(cfg.InputDir)
	if err != nil {
		return nil, &InputError{Dir: cfg.InputDir, Err: err}
	}
	if len(sources) == 0 {
		return nil, &InputError{Dir: cfg.InputDir}
	}
	if err := fsops.EnsureDir(cfg.OutputDir); err != nil {
		return nil, err
	}

	report := &Report{Total: len(sources)}
	log.Info("starting run", "images", len(sources), "input", cfg.InputDir, "output", cfg.OutputDir)

	names := outputNames(sources)
	built := buildPyramids(ctx, cfg, pyrOpts, sources, names, report, log)
	if err := ctx.Err(); err != nil {
		return report, err
	}

	packCollection(cfg, format, sources, names, built, report, log)
	return report, nil
}

func applyDefaults(cfg *Config) {
	if cfg.TileSize == 0 {
		cfg.TileSize = DefaultTileSize
	}
	if cfg.Format == "" {
		cfg.Format = DefaultFormat
	}
	if cfg.CellSize == 0 {
		cfg.CellSize = DefaultCellSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
}

// buildPyramids writes one pyramid and descriptor per source image and
// returns the set of source paths whose pyramid was fully written.
func buildPyramids(ctx context.Context, cfg Config, opts pyramid.Options, sources []string, names map[string]string, report *Report, log *slog.Logger) map[string]bool {
	type result struct {
		path string
		err  error
	}
	results := make(chan result, len(sources))
	sem := make(chan struct{}, cfg.Workers)

	for _, src := range sources {
		sem <- struct{}{}
		go func(src string) {
			defer func() { <-sem }()
			if err := ctx.Err(); err != nil {
				results <- result{path: src, err: err}
				return
			}
			results <- result{path: src, err: buildOne(src, names[src], cfg.OutputDir, opts)}
		}(src)
	}

	built := make(map[string]bool, len(sources))
	for range sources {
		r := <-results
		if r.err != nil {
			log.Error("pyramid failed", "path", r.path, "error", r.err)
			report.AddFailure(r.path, StageImage, r.err)
			continue
		}
		log.Debug("pyramid built", "path", r.path)
		built[r.path] = true
		report.Built++
	}
	return built
}

func buildOne(src, name, outputDir string, opts pyramid.Options) error {
	img, err := raster.Decode(src)
	if err != nil {
		return err
	}
	desc, err := pyramid.Build(img, filepath.Join(outputDir, name+"_files"), opts)
	if err != nil {
		return err
	}
	return desc.WriteFile(filepath.Join(outputDir, name+".dzi"))
}

func packCollection(cfg Config, format raster.Format, sources []string, names map[string]string, built map[string]bool, report *Report, log *slog.Logger) {
	// Entries whose pyramid failed are left out but keep their slot:
	// the index comes from the full sorted listing, so surviving images
	// stay in the same cells and the bad file is reported once, not at
	// every stage that would re-decode it.
	entries := make([]collection.Entry, 0, len(sources))
	for i, src := range sources {
		if !built[src] {
			continue
		}
		entries = append(entries, collection.Entry{
			Index:  i,
			Path:   src,
			Source: names[src] + ".dzi",
		})
	}

	desc, failed, err := collection.Pack(entries, filepath.Join(cfg.OutputDir, cfg.Name+"_files"), collection.Options{
		CellSize: cfg.CellSize,
		TileSize: cfg.TileSize,
		Overlap:  cfg.Overlap,
		Format:   format,
		Workers:  cfg.Workers,
		GridFor:  len(sources),
	})
	for _, f := range failed {
		log.Error("collection entry skipped", "path", f.Entry.Path, "error", f.Err)
		report.AddFailure(f.Entry.Path, StageCollection, f.Err)
	}
	if err != nil {
		log.Error("collection failed", "name", cfg.Name, "error", err)
		report.AddFailure(cfg.Name, StageCollection, err)
		return
	}

	if err := desc.WriteFile(filepath.Join(cfg.OutputDir, cfg.Name+".dzc")); err != nil {
		log.Error("collection descriptor failed", "name", cfg.Name, "error", err)
		report.AddFailure(cfg.Name, StageCollection, err)
		return
	}
	log.Info("collection packed", "name", cfg.Name, "items", len(desc.Items))
	report.CollectionBuilt = true
}

// outputNames maps each source path to the artifact name its pyramid is
// written under. Names come from the filename stem; when two sources
// share a stem (a.jpg and a.png) the collection index is appended so
// neither overwrites the other.
func outputNames(sources []string) map[string]string {
	counts := make(map[string]int, len(sources))
	for _, src := range sources {
		counts[fsops.Stem(src)]++
	}
	names := make(map[string]string, len(sources))
	for i, src := range sources {
		stem := fsops.Stem(src)
		if counts[stem] > 1 {
			stem = fmt.Sprintf("%s_%d", stem, i)
		}
		names[src] = stem
	}
	return names
}
