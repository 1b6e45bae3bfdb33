package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/lci/internal/cache"
)

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Aliases:   []string{"q"},
		Usage:     "Search the index for symbols matching a pattern (§6.4)",
		ArgsUsage: "<pattern>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output as JSON",
			},
		},
		Action: runQuery,
	}
}

func runQuery(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("usage: lci query <pattern>")
	}
	pattern := c.Args().First()

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	dir := cache.ForRepo(resolveCacheRoot(cfg), cfg.Project.Root)
	if !dir.Exists() {
		return fmt.Errorf("no index found at %s — run `lci index` first", dir.Root())
	}

	results, err := dir.SearchSymbolsWithFallback(pattern, cfg.Project.Root)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if c.Bool("json") {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	}

	for _, r := range results {
		fmt.Printf("%s:%d: %s [%s]\n", r.File, r.Line, r.Symbol, r.Source)
	}
	fmt.Printf("%d matches\n", len(results))
	return nil
}
