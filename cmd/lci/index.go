package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/lci/internal/config"
	"github.com/standardbeagle/lci/internal/extract"
	"github.com/standardbeagle/lci/internal/git"
	"github.com/standardbeagle/lci/internal/langdispatch"
	"github.com/standardbeagle/lci/internal/shard"
)

func indexCommand() *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "Build the sharded on-disk index for a repository (§4.5)",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Print each file as it's indexed",
			},
		},
		Action: runIndex,
	}
}

func runIndex(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	verbose := c.Bool("verbose")

	ctx := context.Background()
	files, err := discoverFiles(ctx, cfg)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}

	registry := extract.NewRegistry()
	results := make([]shard.FileResult, 0, len(files))

	var skipped int
	for _, relPath := range files {
		absPath := filepath.Join(cfg.Project.Root, relPath)
		info, err := os.Stat(absPath)
		if err != nil {
			continue
		}
		if cfg.Index.MaxFileSize > 0 && info.Size() > cfg.Index.MaxFileSize {
			skipped++
			continue
		}

		source, err := os.ReadFile(absPath)
		if err != nil {
			skipped++
			continue
		}

		summary, err := extract.Extract(registry, relPath, source)
		if err != nil {
			skipped++
			if verbose {
				fmt.Fprintf(os.Stderr, "lci: skipping %s: %v\n", relPath, err)
			}
			continue
		}

		results = append(results, shard.FileResult{Path: relPath, Summary: summary})
		if verbose {
			fmt.Printf("indexed %s (%d symbols)\n", relPath, len(summary.Symbols))
		}
	}

	indexedSHA := resolveHeadSHA(ctx, cfg.Project.Root)

	writer := shard.NewWriter(resolveCacheRoot(cfg))
	start := time.Now()
	if err := writer.Write(ctx, cfg.Project.Root, indexedSHA, results); err != nil {
		return fmt.Errorf("writing shard set: %w", err)
	}

	symbolCount := 0
	for _, r := range results {
		symbolCount += len(r.Summary.Symbols)
	}

	fmt.Printf("indexed %d files (%d skipped), %d symbols in %v\n",
		len(results), skipped, symbolCount, time.Since(start).Round(time.Millisecond))
	fmt.Printf("cache: %s\n", writer.ShardDir(cfg.Project.Root))
	return nil
}

// discoverFiles enumerates the repo's indexable files: git-tracked files
// when the root is a git repository, otherwise a plain filesystem walk —
// filtered through the config's include/exclude globs either way.
func discoverFiles(ctx context.Context, cfg *config.Config) ([]string, error) {
	var candidates []string

	if provider, err := git.NewProvider(cfg.Project.Root); err == nil && provider.IsGitRepo() {
		all, err := provider.ListAllFiles(ctx)
		if err == nil {
			candidates = all
		}
	}

	if candidates == nil {
		var err error
		candidates, err = walkFiles(cfg.Project.Root)
		if err != nil {
			return nil, err
		}
	}

	files := make([]string, 0, len(candidates))
	for _, rel := range candidates {
		rel = filepath.ToSlash(rel)
		if matchesExclude(cfg.Exclude, rel) {
			continue
		}
		if len(cfg.Include) > 0 {
			if !matchesInclude(cfg.Include, rel) {
				continue
			}
		} else if !hasKnownExtension(rel) {
			continue
		}
		files = append(files, rel)
	}
	return files, nil
}

func walkFiles(root string) ([]string, error) {
	var out []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		out = append(out, rel)
		return nil
	})
	return out, err
}

func matchesExclude(patterns []string, relPath string) bool {
	for _, p := range patterns {
		if matched, _ := doublestar.Match(p, relPath); matched {
			return true
		}
	}
	return false
}

func matchesInclude(patterns []string, relPath string) bool {
	for _, p := range patterns {
		if matched, _ := doublestar.Match(p, relPath); matched {
			return true
		}
	}
	return false
}

// hasKnownExtension reports whether langdispatch recognizes relPath at
// all, so a default (empty) Include list still indexes every supported
// language rather than nothing.
func hasKnownExtension(relPath string) bool {
	base := filepath.Base(relPath)
	if strings.EqualFold(base, "dockerfile") || strings.HasPrefix(strings.ToLower(base), "dockerfile.") {
		return true
	}
	_, err := langdispatch.Dispatch(relPath)
	return err == nil
}

func resolveHeadSHA(ctx context.Context, root string) string {
	provider, err := git.NewProvider(root)
	if err != nil || !provider.IsGitRepo() {
		return ""
	}
	sha, err := provider.GetCommitHash(ctx, "HEAD")
	if err != nil {
		return ""
	}
	return sha
}
