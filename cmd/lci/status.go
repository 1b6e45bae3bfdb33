package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/lci/internal/cache"
	"github.com/standardbeagle/lci/internal/shard"
)

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:    "status",
		Aliases: []string{"st"},
		Usage:   "Show the on-disk index's freshness and symbol counts (§4.7)",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output as JSON",
			},
		},
		Action: runStatus,
	}
}

type statusReport struct {
	RepoPath    string `json:"repo_path"`
	CacheDir    string `json:"cache_dir"`
	Exists      bool   `json:"exists"`
	SymbolCount int    `json:"symbol_count,omitempty"`
	ModuleCount int    `json:"module_count,omitempty"`
	IndexedSHA  string `json:"indexed_sha,omitempty"`
	GeneratedAt int64  `json:"generated_at_unix_ns,omitempty"`
}

func runStatus(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	dir := cache.ForRepo(resolveCacheRoot(cfg), cfg.Project.Root)
	report := statusReport{
		RepoPath: cfg.Project.Root,
		CacheDir: dir.Root(),
		Exists:   dir.Exists(),
	}

	if report.Exists {
		var meta shard.Meta
		metaPath := filepath.Join(dir.Root(), "meta.json")
		if data, err := os.ReadFile(metaPath); err == nil {
			if err := json.Unmarshal(data, &meta); err == nil {
				report.SymbolCount = meta.SymbolCount
				report.ModuleCount = meta.ModuleCount
				report.IndexedSHA = meta.IndexedSHA
				report.GeneratedAt = meta.GeneratedAt
			}
		}
	}

	if c.Bool("json") {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}

	fmt.Printf("repo:    %s\n", report.RepoPath)
	fmt.Printf("cache:   %s\n", report.CacheDir)
	if !report.Exists {
		fmt.Println("status:  no index found — run `lci index` first")
		return nil
	}
	fmt.Printf("symbols: %d across %d modules\n", report.SymbolCount, report.ModuleCount)
	if report.IndexedSHA != "" {
		fmt.Printf("indexed: %s\n", report.IndexedSHA)
	}
	return nil
}
