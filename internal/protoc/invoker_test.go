package protoc

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/okra-platform/protoplan/internal/planerr"
	"github.com/okra-platform/protoplan/internal/planner"
	"github.com/okra-platform/protoplan/internal/registry"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Test plan:
// 1. Argument order: builtins, plugins, includes, descriptor flags, inputs
// 2. Plugin executables come from locators or PATH
// 3. Missing executables are NotFoundErrors
// 4. Invoke creates output dirs and passes args to the runner
// 5. Tasks without inputs never run protoc
// 6. Runner failures include the task name and output

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, name string, args []string) ([]byte, error) {
	called := m.Called(name, args)
	return called.Get(0).([]byte), called.Error(1)
}

func noPath(string) (string, error) {
	return "", errors.New("executable file not found in $PATH")
}

func testTask(outputDir string) *planner.Task {
	builtins := registry.New(registry.KindBuiltins)
	builtins.Ensure("java", func(spec *registry.PluginSpec) { spec.AddOption("lite") })

	plugins := registry.New(registry.KindPlugins)
	plugins.Ensure("grpc", func(spec *registry.PluginSpec) {
		spec.AddOption("lite")
		spec.OutputSubDir = "grpc_output"
	})

	return &planner.Task{
		Name:                  "generateGrpcProto",
		Scope:                 "grpc",
		InputFiles:            []string{"/src/grpc/proto/a.proto", "/src/grpc/proto/b.proto"},
		IncludeDirs:           []string{"/src/grpc/proto"},
		OutputDir:             outputDir,
		Builtins:              builtins,
		Plugins:               plugins,
		GenerateDescriptorSet: true,
		DescriptorSet: planner.DescriptorSetOptions{
			Path:           filepath.Join(outputDir, "descriptor_set.desc"),
			IncludeImports: true,
		},
	}
}

func TestInvoker_Args(t *testing.T) {
	inv := NewInvoker(Locators{
		Plugins: map[string]Locator{"grpc": {Path: "/tools/protoc-gen-grpc-java"}},
	}, zerolog.Nop()).WithRunner(&mockRunner{}, noPath)

	args, err := inv.Args(testTask("/out/grpc"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"--java_out=lite:/out/grpc/java",
		"--plugin=protoc-gen-grpc=/tools/protoc-gen-grpc-java",
		"--grpc_out=lite:/out/grpc/grpc_output",
		"-I/src/grpc/proto",
		"--descriptor_set_out=/out/grpc/descriptor_set.desc",
		"--include_imports",
		"/src/grpc/proto/a.proto",
		"/src/grpc/proto/b.proto",
	}, args)
}

func TestInvoker_ArgsPathLookup(t *testing.T) {
	task := testTask("/out/grpc")
	task.GenerateDescriptorSet = false
	task.Builtins = registry.New(registry.KindBuiltins)
	task.Builtins.Ensure("python", nil)

	lookPath := func(name string) (string, error) {
		return "/usr/bin/" + name, nil
	}
	inv := NewInvoker(Locators{}, zerolog.Nop()).WithRunner(&mockRunner{}, lookPath)

	args, err := inv.Args(task)
	require.NoError(t, err)
	assert.Equal(t, "--python_out=/out/grpc/python", args[0])
	assert.Equal(t, "--plugin=protoc-gen-grpc=/usr/bin/protoc-gen-grpc", args[1])
	assert.NotContains(t, args, "--include_imports")
}

func TestInvoker_MissingPlugin(t *testing.T) {
	inv := NewInvoker(Locators{
		Plugins: map[string]Locator{"grpc": {Artifact: "io.grpc:protoc-gen-grpc-java:1.0.0"}},
	}, zerolog.Nop()).WithRunner(&mockRunner{}, noPath)

	_, err := inv.Args(testTask("/out/grpc"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, planerr.ErrNotFound))

	var nf *planerr.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, KindLocators, nf.Kind)
	assert.Equal(t, "protoc-gen-grpc", nf.ID)
}

func TestInvoker_Invoke(t *testing.T) {
	out := filepath.Join(t.TempDir(), "grpc")
	task := testTask(out)

	runner := &mockRunner{}
	runner.On("Run", "/tools/protoc", mock.AnythingOfType("[]string")).Return([]byte(""), nil)

	inv := NewInvoker(Locators{
		Protoc:  Locator{Path: "/tools/protoc"},
		Plugins: map[string]Locator{"grpc": {Path: "/tools/protoc-gen-grpc-java"}},
	}, zerolog.Nop()).WithRunner(runner, noPath)

	require.NoError(t, inv.Invoke(context.Background(), task))
	runner.AssertExpectations(t)

	args := runner.Calls[0].Arguments.Get(1).([]string)
	assert.Equal(t, "/src/grpc/proto/b.proto", args[len(args)-1])

	assert.DirExists(t, filepath.Join(out, "java"))
	assert.DirExists(t, filepath.Join(out, "grpc_output"))
}

func TestInvoker_SkipsEmptyTask(t *testing.T) {
	task := testTask(t.TempDir())
	task.InputFiles = []string{}

	runner := &mockRunner{}
	inv := NewInvoker(Locators{}, zerolog.Nop()).WithRunner(runner, noPath)

	require.NoError(t, inv.Invoke(context.Background(), task))
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestInvoker_Failure(t *testing.T) {
	out := t.TempDir()
	runner := &mockRunner{}
	runner.On("Run", "/tools/protoc", mock.Anything).Return([]byte("a.proto:3:1: Expected \";\"."), errors.New("exit status 1"))

	inv := NewInvoker(Locators{
		Protoc:  Locator{Path: "/tools/protoc"},
		Plugins: map[string]Locator{"grpc": {Path: "/tools/grpc"}},
	}, zerolog.Nop()).WithRunner(runner, noPath)

	err := inv.Invoke(context.Background(), testTask(out))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "protoc failed for generateGrpcProto")
	assert.Contains(t, err.Error(), `Expected ";"`)
}

func TestInvoker_MissingProtoc(t *testing.T) {
	inv := NewInvoker(Locators{}, zerolog.Nop()).WithRunner(&mockRunner{}, noPath)
	err := inv.Invoke(context.Background(), testTask(t.TempDir()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, planerr.ErrNotFound))
	assert.Contains(t, err.Error(), `"protoc" not found`)
}
