package builder

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cavenel/go-deepzoom/internal/raster"
)

func writePNG(t *testing.T, dir, name string, width, height int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func quietConfig(inputDir, outputDir string) Config {
	return Config{
		InputDir:  inputDir,
		OutputDir: outputDir,
		Name:      "coll",
		TileSize:  128,
		Overlap:   1,
		Format:    "png",
		CellSize:  64,
		Log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestRun_FullSuccess(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	writePNG(t, inDir, "a.png", 200, 150)
	writePNG(t, inDir, "b.png", 64, 64)
	writePNG(t, inDir, "c.png", 30, 90)

	report, err := Run(context.Background(), quietConfig(inDir, outDir))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !report.OK() {
		t.Fatalf("report not OK: %+v", report)
	}
	if report.Total != 3 || report.Built != 3 {
		t.Errorf("counts: total %d built %d, want 3/3", report.Total, report.Built)
	}

	for _, name := range []string{"a", "b", "c"} {
		if _, err := os.Stat(filepath.Join(outDir, name+".dzi")); err != nil {
			t.Errorf("%s.dzi missing: %v", name, err)
		}
		if _, err := os.Stat(filepath.Join(outDir, name+"_files", "0", "0_0.png")); err != nil {
			t.Errorf("%s level 0 tile missing: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(outDir, "coll.dzc")); err != nil {
		t.Errorf("coll.dzc missing: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "coll.dzc"))
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	for _, want := range []string{`Id="0"`, `Id="1"`, `Id="2"`, `Source="a.dzi"`, `Source="c.dzi"`} {
		if !strings.Contains(content, want) {
			t.Errorf("coll.dzc missing %q", want)
		}
	}
}

func TestRun_DescriptorsAreIdempotent(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	writePNG(t, inDir, "a.png", 50, 40)
	writePNG(t, inDir, "b.png", 33, 77)

	cfg := quietConfig(inDir, outDir)
	if _, err := Run(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}
	firstDZI, err := os.ReadFile(filepath.Join(outDir, "a.dzi"))
	if err != nil {
		t.Fatal(err)
	}
	firstDZC, err := os.ReadFile(filepath.Join(outDir, "coll.dzc"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Run(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}
	secondDZI, _ := os.ReadFile(filepath.Join(outDir, "a.dzi"))
	secondDZC, _ := os.ReadFile(filepath.Join(outDir, "coll.dzc"))

	if string(firstDZI) != string(secondDZI) {
		t.Error("a.dzi differs between identical runs")
	}
	if string(firstDZC) != string(secondDZC) {
		t.Error("coll.dzc differs between identical runs")
	}
}

func TestRun_UnreadableFileReportedOnce(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	writePNG(t, inDir, "a.png", 40, 40)
	if err := os.WriteFile(filepath.Join(inDir, "b.png"), []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	writePNG(t, inDir, "c.png", 40, 40)

	report, err := Run(context.Background(), quietConfig(inDir, outDir))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.OK() {
		t.Fatal("report should not be OK with an unreadable file")
	}
	if len(report.Failures) != 1 {
		t.Fatalf("failures: got %d, want exactly 1: %+v", len(report.Failures), report.Failures)
	}
	f := report.Failures[0]
	if !strings.HasSuffix(f.Path, "b.png") {
		t.Errorf("failure path: got %s, want b.png", f.Path)
	}
	var decErr *raster.DecodeError
	if !errors.As(f.Err, &decErr) {
		t.Errorf("failure type: got %T, want *raster.DecodeError", f.Err)
	}

	// The two readable images still got pyramids and the collection was
	// written, with c keeping its index-2 slot.
	if report.Built != 2 {
		t.Errorf("built: got %d, want 2", report.Built)
	}
	if !report.CollectionBuilt {
		t.Error("collection should still be built")
	}
	data, err := os.ReadFile(filepath.Join(outDir, "coll.dzc"))
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.Contains(content, `Id="2"`) {
		t.Error("surviving image should keep collection index 2")
	}
	if strings.Contains(content, `Id="1"`) {
		t.Error("failed image should not appear in the collection")
	}
}

func TestRun_EmptyInput(t *testing.T) {
	report, err := Run(context.Background(), quietConfig(t.TempDir(), t.TempDir()))
	if err == nil {
		t.Fatal("Run should fail on an empty input directory")
	}
	var inErr *InputError
	if !errors.As(err, &inErr) {
		t.Errorf("error type: got %T, want *InputError", err)
	}
	if report != nil {
		t.Errorf("report should be nil, got %+v", report)
	}
}

func TestRun_MissingInputDir(t *testing.T) {
	cfg := quietConfig(filepath.Join(t.TempDir(), "nope"), t.TempDir())
	_, err := Run(context.Background(), cfg)
	var inErr *InputError
	if !errors.As(err, &inErr) {
		t.Fatalf("error type: got %v, want *InputError", err)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	inDir := t.TempDir()
	writePNG(t, inDir, "a.png", 10, 10)

	cfg := quietConfig(inDir, t.TempDir())
	cfg.TileSize = -4
	if _, err := Run(context.Background(), cfg); err == nil {
		t.Error("Run should reject a negative tile size")
	}

	cfg = quietConfig(inDir, t.TempDir())
	cfg.Format = "webp"
	if _, err := Run(context.Background(), cfg); err == nil {
		t.Error("Run should reject an unsupported format")
	}
}

func TestOutputNames_DisambiguatesStems(t *testing.T) {
	sources := []string{"in/a.jpg", "in/a.png", "in/b.jpg"}
	names := outputNames(sources)

	if names["in/b.jpg"] != "b" {
		t.Errorf("unique stem: got %q, want b", names["in/b.jpg"])
	}
	if names["in/a.jpg"] == names["in/a.png"] {
		t.Errorf("colliding stems share name %q", names["in/a.jpg"])
	}
}
