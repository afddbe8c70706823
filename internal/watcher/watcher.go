// Package watcher reports batches of proto source changes
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce is how long the watcher waits for changes to settle
const DefaultDebounce = 300 * time.Millisecond

// FileWatcher watches directory trees and reports changed files in batches
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	patterns []string
	exclude  []string
	debounce time.Duration
	onChange func(paths []string)
	logger   zerolog.Logger

	mu      sync.Mutex
	pending map[string]bool
	timer   *time.Timer
	closed  bool
}

// NewFileWatcher creates a watcher that calls onChange with the files whose
// base names match patterns, once no further change arrived for debounce
func NewFileWatcher(patterns, exclude []string, debounce time.Duration, onChange func(paths []string), logger zerolog.Logger) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &FileWatcher{
		watcher:  watcher,
		patterns: patterns,
		exclude:  exclude,
		debounce: debounce,
		onChange: onChange,
		logger:   logger.With().Str("component", "watcher").Logger(),
		pending:  make(map[string]bool),
	}, nil
}

// AddDirectory recursively adds a directory to the watcher
func (fw *FileWatcher) AddDirectory(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if fw.excluded(path) {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", path, err)
		}
		return nil
	})
}

// Start processes events until ctx is done
func (fw *FileWatcher) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			fw.stopTimer()
			return ctx.Err()

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher channel closed")
			}

			if fw.shouldWatch(event.Name) && event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				fw.schedule(event.Name)
			}

			// New directories may hold protos too
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fw.AddDirectory(event.Name); err != nil {
						fw.logger.Warn().Err(err).Str("dir", event.Name).Msg("failed to watch new directory")
					}
				}
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			if err != nil {
				fw.logger.Error().Err(err).Msg("watcher error")
			}
		}
	}
}

func (fw *FileWatcher) schedule(path string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.closed {
		return
	}
	fw.pending[path] = true
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(fw.debounce, fw.flush)
}

func (fw *FileWatcher) flush() {
	fw.mu.Lock()
	if fw.closed || len(fw.pending) == 0 {
		fw.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(fw.pending))
	for p := range fw.pending {
		paths = append(paths, p)
	}
	fw.pending = make(map[string]bool)
	fw.mu.Unlock()

	sort.Strings(paths)
	fw.logger.Debug().Strs("paths", paths).Msg("sources changed")
	fw.onChange(paths)
}

func (fw *FileWatcher) stopTimer() {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.timer != nil {
		fw.timer.Stop()
	}
}

func (fw *FileWatcher) excluded(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range fw.exclude {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// shouldWatch checks the base name against excludes, then patterns
func (fw *FileWatcher) shouldWatch(path string) bool {
	if fw.excluded(path) {
		return false
	}

	base := filepath.Base(path)
	for _, pattern := range fw.patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// Close stops the watcher. Pending changes are dropped.
func (fw *FileWatcher) Close() error {
	fw.mu.Lock()
	if fw.closed {
		fw.mu.Unlock()
		return nil
	}
	fw.closed = true
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.mu.Unlock()

	return fw.watcher.Close()
}
