package commands

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/okra-platform/protoplan/internal/config"
	"github.com/okra-platform/protoplan/internal/planner"
	"github.com/okra-platform/protoplan/internal/protoc"
)

type mockConfigLoader struct {
	mock.Mock
}

func (m *mockConfigLoader) LoadConfig() (*config.Config, string, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*config.Config), args.String(1), args.Error(2)
}

type mockOutput struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (m *mockOutput) Printf(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Fprintf(&m.buf, format, args...)
}

func (m *mockOutput) Println(args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Fprintln(&m.buf, args...)
}

func (m *mockOutput) Writer() io.Writer {
	return &m.buf
}

func (m *mockOutput) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buf.String()
}

// mockInvoker records invoked tasks and returns a per-task error
type mockInvoker struct {
	mu       sync.Mutex
	invoked  []string
	errs     map[string]error
	onInvoke func(task *planner.Task)
}

func (m *mockInvoker) Invoke(ctx context.Context, task *planner.Task) error {
	m.mu.Lock()
	m.invoked = append(m.invoked, task.Name)
	m.mu.Unlock()

	if m.onInvoke != nil {
		m.onInvoke(task)
	}
	return m.errs[task.Name]
}

func (m *mockInvoker) Invoked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.invoked...)
}

type mockSignalNotifier struct {
	mock.Mock
}

func (m *mockSignalNotifier) Notify(c chan<- os.Signal, sig ...os.Signal) {
	m.Called(c, sig)
}

func (m *mockSignalNotifier) Stop(c chan<- os.Signal) {
	m.Called(c)
}

// writeProject creates a project directory holding the given config and
// proto files, and loads the config from it
func writeProject(t *testing.T, configJSON string, protos ...string) (*config.Config, string) {
	t.Helper()

	root := t.TempDir()
	path := filepath.Join(root, "protoplan.json")
	require.NoError(t, os.WriteFile(path, []byte(configJSON), 0644))

	for _, rel := range protos {
		file := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(file), 0755))
		require.NoError(t, os.WriteFile(file, []byte(`syntax = "proto3";`), 0644))
	}

	cfg, err := config.LoadConfigFromPath(path)
	require.NoError(t, err)
	return cfg, root
}

func newLoader(cfg *config.Config, root string) *mockConfigLoader {
	loader := new(mockConfigLoader)
	loader.On("LoadConfig").Return(cfg, root, nil)
	return loader
}

func invokerFactory(inv *mockInvoker) func(protoc.Locators, zerolog.Logger) TaskInvoker {
	return func(protoc.Locators, zerolog.Logger) TaskInvoker {
		return inv
	}
}

// writeZip writes an archive holding one empty proto per name
func writeZip(t *testing.T, path string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(`syntax = "proto3";`))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}
