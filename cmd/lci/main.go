// Command lci drives the semantic index pipeline end to end: building a
// sharded on-disk index for a repository, reporting its status, querying
// it, exporting it to SQLite, and keeping it live with a watcher.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/lci/internal/config"
)

// Version is set at build time via -ldflags; "dev" is the fallback for
// local builds.
var Version = "dev"

func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")

	if rootFlag := c.String("root"); rootFlag != "" && configPath == ".lci.kdl" {
		configPath = filepath.Join(rootFlag, ".lci.kdl")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	if rootFlag := c.String("root"); rootFlag != "" {
		absRoot, err := filepath.Abs(rootFlag)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root path %q: %w", rootFlag, err)
		}
		cfg.Project.Root = absRoot
	}
	if cacheRoot := c.String("cache-root"); cacheRoot != "" {
		cfg.CacheRoot = cacheRoot
	}
	if includeFlags := c.StringSlice("include"); len(includeFlags) > 0 {
		cfg.Include = includeFlags
	}
	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		cfg.Exclude = append(cfg.Exclude, excludeFlags...)
	}

	return cfg, nil
}

// resolveCacheRoot returns the cache directory a command should use: the
// config's override if set, otherwise a .lci-cache directory under the
// project root (§4.7).
func resolveCacheRoot(cfg *config.Config) string {
	if cfg.CacheRoot != "" {
		return cfg.CacheRoot
	}
	return filepath.Join(cfg.Project.Root, ".lci-cache")
}

func main() {
	app := &cli.App{
		Name:                   "lci",
		Usage:                  "Semantic code index: parse, shard, overlay and query a repository",
		Version:                Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path",
				Value:   ".lci.kdl",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory to index (overrides config)",
			},
			&cli.StringFlag{
				Name:  "cache-root",
				Usage: "Override the sharded index cache directory (overrides config)",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Include files matching glob patterns (e.g., --include '**/*.go')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude files matching glob patterns",
			},
		},
		Commands: []*cli.Command{
			indexCommand(),
			statusCommand(),
			queryCommand(),
			exportSQLiteCommand(),
			watchCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "lci: %v\n", err)
		os.Exit(1)
	}
}
