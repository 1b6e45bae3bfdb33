package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/lci/internal/cache"
	"github.com/standardbeagle/lci/internal/sqliteexport"
)

func exportSQLiteCommand() *cli.Command {
	return &cli.Command{
		Name:  "export-sqlite",
		Usage: "Export the sharded index to a single SQLite file (§4.11)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output path (default: <cache-root>/call_graph.sqlite)",
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Rows per transaction (clamped to [100, 50000])",
				Value: sqliteexport.DefaultBatchSize,
			},
			&cli.BoolFlag{
				Name:  "escape-refs",
				Usage: "Include cross-module escape references in the edge table",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Print progress as each phase completes",
			},
		},
		Action: runExportSQLite,
	}
}

func runExportSQLite(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	dir := cache.ForRepo(resolveCacheRoot(cfg), cfg.Project.Root)
	if !dir.Exists() {
		return fmt.Errorf("no index found at %s — run `lci index` first", dir.Root())
	}

	exporter := sqliteexport.WithBatchSize(c.Int("batch-size"))
	verbose := c.Bool("verbose")

	var progress sqliteexport.ProgressFunc
	if verbose {
		progress = func(p sqliteexport.Progress) {
			if p.Total > 0 {
				fmt.Printf("%s: %d/%d\n", p.Phase, p.Current, p.Total)
			} else {
				fmt.Printf("%s\n", p.Phase)
			}
		}
	}

	stats, err := exporter.Export(dir, c.String("output"), c.Bool("escape-refs"), progress)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Printf("wrote %s (%d bytes)\n", stats.OutputPath, stats.FileSizeBytes)
	fmt.Printf("nodes=%d edges=%d module_edges=%d imports=%d inheritance=%d in %dms\n",
		stats.NodesInserted, stats.EdgesInserted, stats.ModuleEdgesInserted,
		stats.ImportsInserted, stats.InheritanceInserted, stats.DurationMs)
	return nil
}
