package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/lci/internal/cache"
	"github.com/standardbeagle/lci/internal/git"
	"github.com/standardbeagle/lci/internal/server"
	"github.com/standardbeagle/lci/internal/syncer"
	"github.com/standardbeagle/lci/internal/watch"
)

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:   "watch",
		Usage:  "Watch the repository and keep the Working overlay layer live (§4.14)",
		Action: runWatch,
	}
}

func runWatch(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	dir := cache.ForRepo(resolveCacheRoot(cfg), cfg.Project.Root)
	if !dir.Exists() {
		return fmt.Errorf("no index found at %s — run `lci index` first", dir.Root())
	}

	state := server.WithCache(dir)
	sc := syncer.New(cfg.Project.Root).WithCache(dir)
	if provider, err := git.NewProvider(cfg.Project.Root); err == nil && provider.IsGitRepo() {
		sc = sc.WithGit(provider)
	}

	w, err := watch.New(cfg, sc, state)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}

	if err := w.Start(cfg.Project.Root); err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	fmt.Printf("watching %s (debounce %dms)\n", cfg.Project.Root, cfg.Index.WatchDebounceMs)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("shutting down watcher")
	stats := w.Stats()
	fmt.Printf("processed %d files, %d errors\n", stats.EventsProcessed, stats.ErrorCount)
	return w.Stop()
}
