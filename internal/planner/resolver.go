package planner

import (
	"fmt"
	"path/filepath"

	"github.com/okra-platform/protoplan/internal/planerr"
	"github.com/okra-platform/protoplan/internal/registry"
	"github.com/okra-platform/protoplan/internal/variant"
	"github.com/rs/zerolog"
)

// Inputs is what the file-resolution collaborator returns for a scope
type Inputs struct {
	Files       []string
	IncludeDirs []string
}

// FileResolver resolves the proto inputs of a scope: its own source
// directories, attached bundles and files contributed by upstream modules
type FileResolver interface {
	ResolveInputs(v variant.Variant) (Inputs, error)
}

// FileResolverFunc adapts a function to FileResolver
type FileResolverFunc func(v variant.Variant) (Inputs, error)

// ResolveInputs implements FileResolver
func (f FileResolverFunc) ResolveInputs(v variant.Variant) (Inputs, error) {
	return f(v)
}

// Resolver builds one Task per variant
type Resolver struct {
	baseDir string
	files   FileResolver
	logger  zerolog.Logger
}

// NewResolver creates a resolver writing under baseDir
func NewResolver(baseDir string, files FileResolver, logger zerolog.Logger) *Resolver {
	return &Resolver{
		baseDir: baseDir,
		files:   files,
		logger:  logger,
	}
}

// Resolve produces the generation task of a variant. The default registries
// are cloned before override runs and are never modified.
func (r *Resolver) Resolve(v variant.Variant, defaultPlugins, defaultBuiltins *registry.Registry, override OverrideFn) (*Task, error) {
	tc := &TaskConfig{
		Variant:  v,
		Plugins:  cloneOrEmpty(defaultPlugins, registry.KindPlugins),
		Builtins: cloneOrEmpty(defaultBuiltins, registry.KindBuiltins),
	}

	if override != nil {
		if err := override(tc); err != nil {
			return nil, &planerr.ConfigurationError{
				Scope:   v.Name,
				Message: "override failed",
				Err:     err,
			}
		}
	}

	var inputs Inputs
	if r.files != nil {
		var err error
		inputs, err = r.files.ResolveInputs(v)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve inputs for %s: %w", v.Name, err)
		}
	}

	outputDir := filepath.Join(r.baseDir, v.Name)

	descriptorSet := tc.DescriptorSet
	if tc.GenerateDescriptorSet && descriptorSet.Path == "" {
		descriptorSet.Path = filepath.Join(outputDir, DescriptorSetFileName)
	}

	task := &Task{
		Name:                  v.TaskName(),
		Scope:                 v.Name,
		InputFiles:            dedupePaths(inputs.Files),
		IncludeDirs:           dedupePaths(inputs.IncludeDirs),
		OutputDir:             outputDir,
		Plugins:               tc.Plugins,
		Builtins:              tc.Builtins,
		GenerateDescriptorSet: tc.GenerateDescriptorSet,
		DescriptorSet:         descriptorSet,
	}

	r.logger.Debug().
		Str("task", task.Name).
		Int("inputs", len(task.InputFiles)).
		Strs("builtins", task.Builtins.IDs()).
		Strs("plugins", task.Plugins.IDs()).
		Bool("descriptor_set", task.GenerateDescriptorSet).
		Msg("resolved generation task")

	return task, nil
}

func cloneOrEmpty(r *registry.Registry, kind string) *registry.Registry {
	if r == nil {
		return registry.New(kind)
	}
	return r.Clone()
}

// dedupePaths drops repeated paths, keeping the first occurrence. It never
// returns nil so an empty input set stays distinguishable in JSON.
func dedupePaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		clean := filepath.Clean(p)
		if seen[clean] {
			continue
		}
		seen[clean] = true
		out = append(out, clean)
	}
	return out
}
