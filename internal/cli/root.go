// Package cli wires the build_collection command line onto the builder.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cavenel/go-deepzoom/internal/builder"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
)

// rootCmd is the build_collection command.
var rootCmd = &cobra.Command{
	Use:   "build_collection <input_directory> <output_directory> <collection_name>",
	Short: "Build Deep Zoom pyramids and a packed collection from a directory of images",
	Long: `build_collection converts every supported image in a directory into a
Deep Zoom pyramid (.dzi plus a tile tree), then packs thumbnails of the
whole set into a single composite pyramid with a collection descriptor
(.dzc) so a viewer can pan and zoom across all of them.

Output layout:
  <output_dir>/<image>_files/<level>/<col>_<row>.<ext>
  <output_dir>/<image>.dzi
  <output_dir>/<name>_files/...
  <output_dir>/<name>.dzc

The exit status is zero only if every image and the collection were
written; failures are reported one per line on standard error.`,
	Args:          cobra.ExactArgs(3),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().Int("tile-size", builder.DefaultTileSize, "tile edge length in pixels")
	rootCmd.Flags().Int("overlap", builder.DefaultOverlap, "tile border overlap in pixels")
	rootCmd.Flags().String("format", builder.DefaultFormat, "tile output format (jpg|png|gif|bmp|tif)")
	rootCmd.Flags().Int("cell-size", builder.DefaultCellSize, "collection thumbnail cell size in pixels")
	rootCmd.Flags().Int("workers", 0, "concurrent workers (0 = number of CPUs)")
	rootCmd.Flags().BoolP("verbose", "v", false, "enable debug logging")

	for _, flag := range []string{"tile-size", "overlap", "format", "cell-size", "workers", "verbose"} {
		if err := viper.BindPFlag(flag, rootCmd.Flags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
	viper.SetEnvPrefix("BUILD_COLLECTION")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func run(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := builder.Config{
		InputDir:  args[0],
		OutputDir: args[1],
		Name:      args[2],
		TileSize:  viper.GetInt("tile-size"),
		Overlap:   viper.GetInt("overlap"),
		Format:    viper.GetString("format"),
		CellSize:  viper.GetInt("cell-size"),
		Workers:   viper.GetInt("workers"),
		Log:       log,
	}

	report, err := builder.Run(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	printSummary(report)
	if !report.OK() {
		return fmt.Errorf("%d failure(s) out of %d image(s)", len(report.Failures), report.Total)
	}
	return nil
}

func printSummary(report *builder.Report) {
	for _, f := range report.Failures {
		_, _ = errorColor.Fprintf(os.Stderr, "✗ %s (%s): %v\n", f.Path, f.Stage, f.Err)
	}
	if report.OK() {
		_, _ = successColor.Printf("✓ %d image(s) and collection written\n", report.Built)
		return
	}
	_, _ = errorColor.Fprintf(os.Stderr, "✗ %d of %d image(s) built, collection written: %v\n",
		report.Built, report.Total, report.CollectionBuilt)
}
