package commands

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/okra-platform/protoplan/internal/planner"
)

// Test plan:
// 1. Initial generation, watched directories and regeneration on change
// 2. Watcher creation and directory errors
// 3. Initial generation failures stop the command

type mockWatcher struct {
	patterns []string
	exclude  []string
	dirs     []string
	addErr   error
	onChange func(paths []string)
	changes  [][]string
	closed   bool
}

func (m *mockWatcher) AddDirectory(dir string) error {
	m.dirs = append(m.dirs, dir)
	return m.addErr
}

func (m *mockWatcher) Start(ctx context.Context) error {
	for _, paths := range m.changes {
		m.onChange(paths)
	}
	return context.Canceled
}

func (m *mockWatcher) Close() error {
	m.closed = true
	return nil
}

func watchDeps(t *testing.T, inv *mockInvoker, w *mockWatcher, configJSON string, protos ...string) WatchDependencies {
	t.Helper()
	cfg, root := writeProject(t, configJSON, protos...)

	sig := new(mockSignalNotifier)
	sig.On("Notify", mock.Anything, mock.Anything).Return()
	sig.On("Stop", mock.Anything).Return()

	return WatchDependencies{
		Generate: GenerateDependencies{
			ConfigLoader: newLoader(cfg, root),
			NewInvoker:   invokerFactory(inv),
			Output:       &mockOutput{},
		},
		NewWatcher: func(patterns, exclude []string, onChange func([]string), _ zerolog.Logger) (Watcher, error) {
			w.patterns = patterns
			w.exclude = exclude
			w.onChange = onChange
			return w, nil
		},
		SignalNotifier: sig,
	}
}

func TestWatchCommand_Execute(t *testing.T) {
	inv := &mockInvoker{}
	w := &mockWatcher{changes: [][]string{{"/p/src/main/proto/a.proto"}}}
	deps := watchDeps(t, inv, w, `{}`, "src/main/proto/a.proto")

	err := NewWatchCommand(zerolog.Nop(), "").WithDependencies(deps).Execute(context.Background(), GenerateOptions{})
	require.NoError(t, err)

	// Once on start, once for the change
	assert.Equal(t, []string{"generateProto", "generateProto"}, inv.Invoked())
	require.Len(t, w.dirs, 1)
	assert.Equal(t, filepath.Join("src", "main", "proto"), lastPath(w.dirs[0], 3))
	assert.True(t, w.closed)
	assert.Contains(t, w.patterns, "*.proto")
	assert.Equal(t, []string{".*", "build"}, w.exclude)

	deps.SignalNotifier.(*mockSignalNotifier).AssertExpectations(t)
}

func TestWatchCommand_Execute_Bundles(t *testing.T) {
	// Test: archive bundles are watched through their directory
	inv := &mockInvoker{}
	w := &mockWatcher{}
	deps := watchDeps(t, inv, w, `{"sources": {"main": {"bundles": ["lib/protos.zip"]}}}`, "src/main/proto/a.proto")

	cfg, root, err := deps.Generate.ConfigLoader.LoadConfig()
	require.NoError(t, err)
	require.Equal(t, []string{"lib/protos.zip"}, cfg.Sources["main"].Bundles)
	writeZip(t, filepath.Join(root, "lib", "protos.zip"), "b.proto")

	err = NewWatchCommand(zerolog.Nop(), "").WithDependencies(deps).Execute(context.Background(), GenerateOptions{})
	require.NoError(t, err)

	require.Len(t, w.dirs, 2)
	assert.Equal(t, filepath.Join("src", "main", "proto"), lastPath(w.dirs[0], 3))
	assert.Equal(t, filepath.Join(root, "lib"), w.dirs[1])
	assert.Contains(t, w.patterns, "*.zip")
}

func TestWatchCommand_Execute_RegenerationErrorKeepsWatching(t *testing.T) {
	inv := &mockInvoker{}
	w := &mockWatcher{changes: [][]string{{"a.proto"}, {"a.proto"}}}
	deps := watchDeps(t, inv, w, `{}`, "src/main/proto/a.proto")

	calls := 0
	inv.onInvoke = func(task *planner.Task) {
		calls++
		if calls == 2 {
			inv.errs = map[string]error{"generateProto": errors.New("syntax error")}
		}
	}

	err := NewWatchCommand(zerolog.Nop(), "").WithDependencies(deps).Execute(context.Background(), GenerateOptions{})
	require.NoError(t, err)
	assert.Len(t, inv.Invoked(), 3)
}

func TestWatchCommand_Execute_Errors(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(inv *mockInvoker, w *mockWatcher, deps *WatchDependencies)
		errContains string
	}{
		{
			name: "initial generation fails",
			setup: func(inv *mockInvoker, w *mockWatcher, deps *WatchDependencies) {
				inv.errs = map[string]error{"generateProto": errors.New("protoc failed")}
			},
			errContains: "protoc failed",
		},
		{
			name: "watcher cannot be created",
			setup: func(inv *mockInvoker, w *mockWatcher, deps *WatchDependencies) {
				deps.NewWatcher = func([]string, []string, func([]string), zerolog.Logger) (Watcher, error) {
					return nil, errors.New("too many open files")
				}
			},
			errContains: "too many open files",
		},
		{
			name: "directory cannot be watched",
			setup: func(inv *mockInvoker, w *mockWatcher, deps *WatchDependencies) {
				w.addErr = os.ErrPermission
			},
			errContains: "failed to watch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &mockInvoker{}
			w := &mockWatcher{}
			deps := watchDeps(t, inv, w, `{}`, "src/main/proto/a.proto")
			tt.setup(inv, w, &deps)

			err := NewWatchCommand(zerolog.Nop(), "").WithDependencies(deps).Execute(context.Background(), GenerateOptions{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

// lastPath returns the last n elements of path
func lastPath(path string, n int) string {
	parts := []string{}
	for i := 0; i < n; i++ {
		parts = append([]string{filepath.Base(path)}, parts...)
		path = filepath.Dir(path)
	}
	return filepath.Join(parts...)
}
