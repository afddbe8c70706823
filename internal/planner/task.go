package planner

import (
	"path/filepath"

	"github.com/okra-platform/protoplan/internal/registry"
	"github.com/okra-platform/protoplan/internal/variant"
)

// DescriptorSetFileName is the default descriptor-set file name under a scope dir
const DescriptorSetFileName = "descriptor_set.desc"

// DescriptorSetOptions controls the descriptor-set artifact of a task
type DescriptorSetOptions struct {
	// Path overrides <base>/<scope>/descriptor_set.desc
	Path              string `json:"path,omitempty"`
	IncludeImports    bool   `json:"includeImports,omitempty"`
	IncludeSourceInfo bool   `json:"includeSourceInfo,omitempty"`
}

// Task is a resolved generation task. It is read-only once produced.
type Task struct {
	// Name is the task name, e.g. "generateX86FreeappDebugProto"
	Name string `json:"name"`

	// Scope is the variant or source-set name
	Scope string `json:"scope"`

	// InputFiles are the proto files to compile, duplicates removed
	InputFiles []string `json:"inputFiles"`

	// IncludeDirs are the import roots of the input files
	IncludeDirs []string `json:"includeDirs,omitempty"`

	// OutputDir is <base>/<scope>; each generator writes into its own sub-directory
	OutputDir string `json:"outputDir"`

	Plugins  *registry.Registry `json:"plugins"`
	Builtins *registry.Registry `json:"builtins"`

	GenerateDescriptorSet bool                 `json:"generateDescriptorSet"`
	DescriptorSet         DescriptorSetOptions `json:"descriptorSet"`
}

// GeneratorOutputDir returns the directory a generator of this task writes into
func (t *Task) GeneratorOutputDir(spec *registry.PluginSpec) string {
	return filepath.Join(t.OutputDir, spec.OutputDirName())
}

// OutputDirs returns every generator output directory, builtins first
func (t *Task) OutputDirs() []string {
	dirs := make([]string, 0, t.Builtins.Len()+t.Plugins.Len())
	for _, spec := range t.Builtins.All() {
		dirs = append(dirs, t.GeneratorOutputDir(spec))
	}
	for _, spec := range t.Plugins.All() {
		dirs = append(dirs, t.GeneratorOutputDir(spec))
	}
	return dirs
}

// DescriptorSetPath returns where the descriptor set is written, or "" when
// the task does not emit one
func (t *Task) DescriptorSetPath() string {
	if !t.GenerateDescriptorSet {
		return ""
	}
	return t.DescriptorSet.Path
}

// HasInputs reports whether there is anything to generate
func (t *Task) HasInputs() bool {
	return len(t.InputFiles) > 0
}

// TaskConfig is the task-local configuration handed to overrides. The
// registries are private copies of the defaults.
type TaskConfig struct {
	Variant variant.Variant

	Plugins  *registry.Registry
	Builtins *registry.Registry

	GenerateDescriptorSet bool
	DescriptorSet         DescriptorSetOptions
}

// OverrideFn customizes the generators of a single task
type OverrideFn func(tc *TaskConfig) error

// Override pairs an OverrideFn with the variants it applies to
type Override struct {
	// Name labels the override in logs and errors
	Name     string
	Selector variant.Selector
	Apply    OverrideFn
}

// Chain composes overrides into one, applied in order
func Chain(fns ...OverrideFn) OverrideFn {
	return func(tc *TaskConfig) error {
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			if err := fn(tc); err != nil {
				return err
			}
		}
		return nil
	}
}
