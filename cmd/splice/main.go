package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/splice/internal/adapter"
	"github.com/mmcdole/splice/internal/assets"
	"github.com/mmcdole/splice/internal/mediacache"
	"github.com/mmcdole/splice/internal/service"
	"github.com/mmcdole/splice/internal/store"
	"github.com/mmcdole/splice/internal/tui"
	"golang.org/x/term"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var (
		showVersion bool
		projectPath string
		importList  string
		memory      bool
	)
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.StringVar(&projectPath, "project", "", "project name or path the timeline is stored under")
	flag.StringVar(&importList, "import", "", "comma separated media files to append before starting")
	flag.BoolVar(&memory, "memory", false, "keep the project in memory only")
	flag.Parse()

	if showVersion {
		fmt.Printf("splice %s\n", Version)
		return
	}

	if err := run(projectPath, importList, memory); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(projectPath, importList string, memory bool) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("splice needs an interactive terminal")
	}

	cfg, err := adapter.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if projectPath == "" {
		if wd, err := os.Getwd(); err == nil {
			projectPath = wd
		}
	}

	logger, err := adapter.SetupLogger(&cfg.Logging, projectPath)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting splice", "version", Version)
	dir := cfg.Project.Dir
	if memory {
		dir = ""
	}
	projects, err := store.NewProjectStore(dir, projectPath)
	if err != nil {
		return fmt.Errorf("failed to open project: %w", err)
	}
	defer projects.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	edits := service.NewEditService(projects, cfg.Project.QueueSize, logger)
	go func() {
		if err := edits.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("edit service stopped", "error", err)
		}
	}()

	projectSvc := service.NewProjectService(projects, service.Policy{
		MinClipMs:      cfg.Timeline.MinClipMs,
		MaxStillMs:     cfg.Timeline.MaxStillMs,
		DefaultStillMs: cfg.Timeline.DefaultStillMs,
	}, logger)

	if paths := splitPaths(importList); len(paths) > 0 {
		spans, err := projectSvc.Import(ctx, paths)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Some files were skipped: %v\n", err)
		}
		logger.Info("imported on startup", "count", len(spans))
	}

	generator := assets.NewGenerator(projects, cfg.Timeline.ThumbnailSlotMs, cfg.Timeline.WaveformBlockMs, logger)
	cache := mediacache.New(cfg.Cache.CapacityBytes)

	model := tui.NewModel(projectSvc, edits, generator, cache, tui.Options{
		ToleranceMs: cfg.Timeline.ToleranceMs,
		SlotMs:      generator.SlotMs(),
		BlockMs:     generator.BlockMs(),
		Zoom:        cfg.UI.Zoom,
		ShowOverlay: cfg.UI.ShowOverlay,
		Previewer:   adapter.NewPreviewer(cfg.Preview, logger),
	})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// splitPaths splits a comma separated list and expands ~
func splitPaths(list string) []string {
	var paths []string
	for _, p := range strings.Split(list, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if expanded, err := adapter.ExpandHome(p); err == nil {
			p = expanded
		}
		paths = append(paths, p)
	}
	return paths
}
