// Package protoc runs the protobuf compiler for resolved generation tasks
package protoc

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/okra-platform/protoplan/internal/planerr"
	"github.com/okra-platform/protoplan/internal/planner"
	"github.com/okra-platform/protoplan/internal/registry"
	"github.com/rs/zerolog"
)

// KindLocators is the NotFoundError kind for missing executables
const KindLocators = "locators"

// Locator points at a generator executable. Artifact is informational;
// only Path (or a PATH lookup) is used to run it.
type Locator struct {
	Artifact string `json:"artifact,omitempty" yaml:"artifact,omitempty"`
	Path     string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Locators declares protoc and the plugin executables by id
type Locators struct {
	Protoc  Locator            `json:"protoc" yaml:"protoc"`
	Plugins map[string]Locator `json:"plugins,omitempty" yaml:"plugins,omitempty"`
}

// CommandRunner executes a command and returns its combined output
type CommandRunner interface {
	Run(ctx context.Context, name string, args []string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args []string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Invoker turns tasks into protoc command lines and runs them
type Invoker struct {
	locators Locators
	runner   CommandRunner
	lookPath func(file string) (string, error)
	logger   zerolog.Logger
}

// NewInvoker creates an invoker using the real protoc
func NewInvoker(locators Locators, logger zerolog.Logger) *Invoker {
	return &Invoker{
		locators: locators,
		runner:   execRunner{},
		lookPath: exec.LookPath,
		logger:   logger.With().Str("component", "protoc").Logger(),
	}
}

// WithRunner replaces the command runner and PATH lookup, for testing
func (i *Invoker) WithRunner(runner CommandRunner, lookPath func(string) (string, error)) *Invoker {
	i.runner = runner
	if lookPath != nil {
		i.lookPath = lookPath
	}
	return i
}

// Invoke runs protoc for task. Tasks without inputs are skipped.
func (i *Invoker) Invoke(ctx context.Context, task *planner.Task) error {
	if !task.HasInputs() {
		i.logger.Debug().Str("task", task.Name).Msg("no proto inputs, skipping")
		return nil
	}

	protocPath, err := i.executable("protoc", i.locators.Protoc)
	if err != nil {
		return err
	}

	args, err := i.Args(task)
	if err != nil {
		return err
	}

	for _, dir := range task.OutputDirs() {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if path := task.DescriptorSetPath(); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create descriptor set directory: %w", err)
		}
	}

	i.logger.Debug().
		Str("task", task.Name).
		Str("protoc", protocPath).
		Strs("args", args).
		Msg("running protoc")

	output, err := i.runner.Run(ctx, protocPath, args)
	if err != nil {
		return fmt.Errorf("protoc failed for %s: %w\n%s", task.Name, err, output)
	}

	i.logger.Info().
		Str("task", task.Name).
		Int("inputs", len(task.InputFiles)).
		Msg("generated sources")

	return nil
}

// Args builds the protoc arguments for task: builtins, plugins, include
// dirs, descriptor-set flags and finally the input files
func (i *Invoker) Args(task *planner.Task) ([]string, error) {
	var args []string

	for _, spec := range task.Builtins.All() {
		args = append(args, outFlag(spec, task.GeneratorOutputDir(spec)))
	}

	for _, spec := range task.Plugins.All() {
		path, err := i.executable("protoc-gen-"+spec.ID, i.locators.Plugins[spec.ID])
		if err != nil {
			return nil, err
		}
		args = append(args,
			fmt.Sprintf("--plugin=protoc-gen-%s=%s", spec.ID, path),
			outFlag(spec, task.GeneratorOutputDir(spec)),
		)
	}

	for _, dir := range task.IncludeDirs {
		args = append(args, "-I"+dir)
	}

	if task.GenerateDescriptorSet {
		args = append(args, "--descriptor_set_out="+task.DescriptorSetPath())
		if task.DescriptorSet.IncludeImports {
			args = append(args, "--include_imports")
		}
		if task.DescriptorSet.IncludeSourceInfo {
			args = append(args, "--include_source_info")
		}
	}

	return append(args, task.InputFiles...), nil
}

// outFlag renders --<id>_out=[options:]<dir>
func outFlag(spec *registry.PluginSpec, dir string) string {
	if opts := spec.OptionString(); opts != "" {
		return fmt.Sprintf("--%s_out=%s:%s", spec.ID, opts, dir)
	}
	return fmt.Sprintf("--%s_out=%s", spec.ID, dir)
}

func (i *Invoker) executable(name string, loc Locator) (string, error) {
	if loc.Path != "" {
		return loc.Path, nil
	}
	path, err := i.lookPath(name)
	if err != nil {
		if loc.Artifact != "" {
			i.logger.Warn().
				Str("executable", name).
				Str("artifact", loc.Artifact).
				Msg("artifact download is not supported, set a path")
		}
		return "", fmt.Errorf("%w: %v", &planerr.NotFoundError{Kind: KindLocators, ID: name}, err)
	}
	return path, nil
}
