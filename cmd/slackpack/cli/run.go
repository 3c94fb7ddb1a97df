package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/slackpack/internal/boxstore"
	"github.com/piwi3910/slackpack/internal/config"
	"github.com/piwi3910/slackpack/internal/detailgen"
	"github.com/piwi3910/slackpack/internal/driver"
	"github.com/piwi3910/slackpack/internal/engine"
	"github.com/piwi3910/slackpack/internal/geom"
	"github.com/piwi3910/slackpack/internal/listener"
	"github.com/piwi3910/slackpack/internal/serialize"
	"github.com/piwi3910/slackpack/internal/sink"
)

func newRunCmd() *cobra.Command {
	var (
		stream         string
		widthIsSmaller bool
		output         string
		saveConfig     bool
		dbPath         string
		boxesPerPart   int
		progressEveryN int
	)

	cfg := config.Default()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Pack a detail stream onto a sheet and write the placement list",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := configPathFlag(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("config") || !cmd.Flags().Changed("gamma") {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				if !cmd.Flags().Changed("gamma") {
					cfg.Gamma = loaded.Gamma
				}
				if !cmd.Flags().Changed("n0") {
					cfg.N0 = loaded.N0
				}
				if !cmd.Flags().Changed("max-placed") {
					cfg.MaxPlaced = loaded.MaxPlaced
				}
			}

			gen, sheet := buildGenerator(stream, cfg.N0, widthIsSmaller)

			storage, err := buildStorage(cfg.Backend, dbPath, cfg.CacheSize, cfg.N0, cfg.Gamma, cfg.MaxPlaced, boxesPerPart)
			if err != nil {
				return fmt.Errorf("build storage: %w", err)
			}
			defer storage.Close()

			var listeners []listener.Listener
			consoleSink := sink.NewConsoleSink()
			if progressEveryN > 0 {
				listeners = append(listeners, listener.NewPrintEachN(progressEveryN, consoleSink))
			}
			listeners = append(listeners, listener.NewPrintInfoAtEnd(consoleSink))

			eng, err := engine.New(cfg.Gamma, cfg.N0, cfg.MaxPlaced, storage,
				engine.WithUpdatePlacements(cfg.UpdatePlacements),
				engine.WithListeners(listeners...))
			if err != nil {
				return err
			}

			result := driver.Run(gen, sheet, eng, cfg.MaxPlaced)
			if result.Err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "run stopped early:", result.Err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "placed %d/%d details\n", result.PlacedCount, cfg.MaxPlaced)

			if output != "" {
				if err := serialize.WriteFile(output, result.Placements); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "wrote placements to", output)
			}

			if saveConfig {
				cfg.DatabasePath = dbPath
				cfg.BoxesPerPartition = boxesPerPart
				if err := config.Save(configPath, cfg); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().String("config", "", "path to a run configuration JSON file (default ~/.slackpack/config.json)")
	cmd.Flags().Float64Var(&cfg.Gamma, "gamma", cfg.Gamma, "slack exponent gamma (> 0)")
	cmd.Flags().IntVar(&cfg.N0, "n0", cfg.N0, "starting detail index n0 (>= 1)")
	cmd.Flags().IntVar(&cfg.MaxPlaced, "max-placed", cfg.MaxPlaced, "number of details to place")
	cmd.Flags().Var(newBackendFlag(&cfg.Backend), "backend", "storage backend: memory, sql, or partitioned")
	cmd.Flags().StringVar(&stream, "stream", "square", "detail stream: square or rectangle")
	cmd.Flags().BoolVar(&widthIsSmaller, "width-smaller", true, "for rectangle streams, whether width is the smaller side")
	cmd.Flags().StringVar(&output, "output", "", "path to write the placement list as JSON")
	cmd.Flags().StringVar(&dbPath, "db", ":memory:", "SQLite DSN for sql/partitioned backends")
	cmd.Flags().IntVar(&cfg.CacheSize, "cache-size", cfg.CacheSize, "in-memory cache window for external backends")
	cmd.Flags().IntVar(&boxesPerPart, "boxes-per-partition", cfg.BoxesPerPartition, "boxes per partition for the partitioned backend")
	cmd.Flags().BoolVar(&cfg.UpdatePlacements, "update-placements", cfg.UpdatePlacements, "keep the placements list in sync (disable for very large runs)")
	cmd.Flags().IntVar(&progressEveryN, "progress-every", 0, "print a progress line every N placements (0 disables)")
	cmd.Flags().BoolVar(&saveConfig, "save-config", false, "persist the resolved configuration to --config's path")

	return cmd
}

func buildGenerator(stream string, n0 int, widthIsSmaller bool) (detailgen.Generator, geom.Rectangle) {
	var gen detailgen.Generator
	if stream == "rectangle" {
		gen = detailgen.NewHarmonicRectangleGenerator(n0, widthIsSmaller)
	} else {
		gen = detailgen.NewHarmonicSquareGenerator(n0)
	}
	w, h := gen.BaseSize()
	sheet := geom.New(geom.Point{}, geom.Point{X: w, Y: h}, "sheet", geom.TypeLRP)
	return gen, sheet
}

func buildStorage(backend config.Backend, dbPath string, cacheSize, n0 int, gamma float64, maxPlaced, boxesPerPartition int) (boxstore.Storage, error) {
	switch backend {
	case config.BackendSQL:
		return boxstore.NewSQLStorage(dbPath, boxstore.WithCacheSize(cacheSize))
	case config.BackendPartitioned:
		return boxstore.NewPartitionedSQLStorage(dbPath, n0, gamma, maxPlaced,
			boxstore.WithPartitionedCacheSize(cacheSize),
			boxstore.WithBoxesPerPartition(boxesPerPartition))
	default:
		return boxstore.NewMemoryStorage(), nil
	}
}

// backendFlag adapts config.Backend to pflag.Value so --backend can be
// validated against the closed set of known backend names.
type backendFlag struct{ dest *config.Backend }

func newBackendFlag(dest *config.Backend) *backendFlag { return &backendFlag{dest: dest} }

func (f *backendFlag) String() string { return string(*f.dest) }

func (f *backendFlag) Set(value string) error {
	switch config.Backend(value) {
	case config.BackendMemory, config.BackendSQL, config.BackendPartitioned:
		*f.dest = config.Backend(value)
		return nil
	default:
		return fmt.Errorf("unknown backend %q (want memory, sql, or partitioned)", value)
	}
}

func (f *backendFlag) Type() string { return "backend" }
