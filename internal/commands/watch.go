package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/okra-platform/protoplan/internal/sourcefiles"
	"github.com/okra-platform/protoplan/internal/variant"
	"github.com/okra-platform/protoplan/internal/watcher"
)

// Watcher reports changed source files until its context is done
type Watcher interface {
	AddDirectory(dir string) error
	Start(ctx context.Context) error
	Close() error
}

// WatchDependencies for the watch command
type WatchDependencies struct {
	Generate       GenerateDependencies
	NewWatcher     func(patterns, exclude []string, onChange func(paths []string), logger zerolog.Logger) (Watcher, error)
	SignalNotifier SignalNotifier
}

// WatchCommand regenerates whenever proto sources change
type WatchCommand struct {
	deps   WatchDependencies
	logger zerolog.Logger
}

// NewWatchCommand creates a watch command with default dependencies
func NewWatchCommand(logger zerolog.Logger, configPath string) *WatchCommand {
	return &WatchCommand{
		deps: WatchDependencies{
			Generate: NewGenerateCommand(logger, configPath).deps,
			NewWatcher: func(patterns, exclude []string, onChange func([]string), logger zerolog.Logger) (Watcher, error) {
				return watcher.NewFileWatcher(patterns, exclude, watcher.DefaultDebounce, onChange, logger)
			},
			SignalNotifier: defaultSignalNotifier{},
		},
		logger: logger,
	}
}

// WithDependencies allows injecting custom dependencies for testing
func (wc *WatchCommand) WithDependencies(deps WatchDependencies) *WatchCommand {
	wc.deps = deps
	return wc
}

// Execute generates once, then again on every batch of changes
func (wc *WatchCommand) Execute(ctx context.Context, opts GenerateOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	wc.deps.SignalNotifier.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer wc.deps.SignalNotifier.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			wc.logger.Info().Msg("shutting down watcher")
			cancel()
		case <-ctx.Done():
		}
	}()

	generate := &GenerateCommand{deps: wc.deps.Generate, logger: wc.logger}
	p, err := loadProject(generate.deps.ConfigLoader, wc.logger)
	if err != nil {
		return err
	}
	if _, err := generate.run(ctx, p, opts); err != nil {
		return err
	}

	var mu sync.Mutex
	onChange := func(paths []string) {
		mu.Lock()
		defer mu.Unlock()

		wc.logger.Info().Strs("changed", paths).Msg("regenerating")
		if _, err := generate.Execute(ctx, opts); err != nil {
			// Keep watching; the next save may fix it
			wc.logger.Error().Err(err).Msg("generation failed")
		}
	}

	// Extracted bundles live under the build dir and must not retrigger
	exclude := []string{".*", filepath.Base(p.config.BuildDir)}
	w, err := wc.deps.NewWatcher(sourcefiles.WatchPatterns(), exclude, onChange, wc.logger)
	if err != nil {
		return err
	}
	defer w.Close()

	dirs := wc.watchDirs(p)
	for _, dir := range dirs {
		if err := w.AddDirectory(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	wc.logger.Info().Strs("dirs", dirs).Msg("watching for proto changes")

	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watcher error: %w", err)
	}
	return nil
}

func (wc *WatchCommand) watchDirs(p *project) []string {
	variants := make([]variant.Variant, 0, p.index.Len())
	for _, entry := range p.index.Entries() {
		variants = append(variants, entry.Variant)
	}
	return p.config.FileResolver(p.root, wc.logger).WatchDirs(variants)
}
