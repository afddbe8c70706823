package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/okra-platform/protoplan/internal/planner"
	"github.com/okra-platform/protoplan/internal/protoc"
	"github.com/okra-platform/protoplan/internal/registry"
	"github.com/okra-platform/protoplan/internal/sourcefiles"
	"github.com/okra-platform/protoplan/internal/variant"
	"github.com/rs/zerolog"
)

// PlannerConfig converts the file into the input of a planning pass.
// Relative directories are resolved against projectRoot.
func (c *Config) PlannerConfig(projectRoot string) planner.Config {
	cfg := planner.Config{
		Mode:       planner.Mode(c.Mode),
		SourceSets: c.SourceSets,
		BaseDir:    absPath(projectRoot, c.GeneratedFilesBaseDir),
		Builtins:   buildRegistry(registry.KindBuiltins, c.Defaults.Builtins),
		Plugins:    buildRegistry(registry.KindPlugins, c.Defaults.Plugins),
	}

	if c.Android != nil {
		cfg.Android = variant.Declaration{
			Dimensions:    c.Android.FlavorDimensions,
			BuildTypes:    c.Android.BuildTypes,
			TestBuildType: c.Android.TestBuildType,
		}
		if c.Android.UnitTests == nil || *c.Android.UnitTests {
			cfg.Android.TestKinds = append(cfg.Android.TestKinds, variant.UnitTest)
		}
		if c.Android.InstrumentedTests == nil || *c.Android.InstrumentedTests {
			cfg.Android.TestKinds = append(cfg.Android.TestKinds, variant.InstrumentedTest)
		}
	}

	for i, task := range c.Tasks {
		name := task.Name
		if name == "" {
			name = fmt.Sprintf("tasks[%d]", i)
		}
		cfg.Overrides = append(cfg.Overrides, planner.Override{
			Name:     name,
			Selector: task.Select.Matcher(),
			Apply:    task.apply,
		})
	}

	return cfg
}

// FileResolver creates the filesystem-backed resolver for the project
func (c *Config) FileResolver(projectRoot string, logger zerolog.Logger) *sourcefiles.Resolver {
	return sourcefiles.NewResolver(projectRoot, c.BuildDir, c.Sources, logger)
}

// Locators returns the executable locations declared in the file
func (c *Config) Locators(projectRoot string) protoc.Locators {
	locators := protoc.Locators{
		Protoc:  resolveLocator(projectRoot, c.Protoc),
		Plugins: make(map[string]protoc.Locator, len(c.Plugins)),
	}
	for id, loc := range c.Plugins {
		locators.Plugins[id] = resolveLocator(projectRoot, loc)
	}
	return locators
}

// Matcher converts the selector into a variant predicate
func (s Selector) Matcher() variant.Selector {
	var parts []variant.Selector
	if s.SourceSet != "" {
		parts = append(parts, variant.OfSourceSet(s.SourceSet))
	}
	if s.Flavor != "" {
		parts = append(parts, variant.OfFlavor(s.Flavor))
	}
	if s.BuildType != "" {
		parts = append(parts, variant.OfBuildType(s.BuildType))
	}
	if s.Variant != "" {
		parts = append(parts, variant.OfVariant(s.Variant))
	}
	if s.Test != nil {
		if *s.Test {
			parts = append(parts, variant.OfTest())
		} else {
			parts = append(parts, variant.OfNonTest())
		}
	}
	if len(parts) == 0 {
		return variant.All()
	}
	return variant.And(parts...)
}

// apply removes first, then ensures, then sets descriptor options
func (t TaskOverride) apply(tc *planner.TaskConfig) error {
	for _, id := range t.Remove.Builtins {
		if err := tc.Builtins.Remove(id); err != nil {
			return err
		}
	}
	for _, id := range t.Remove.Plugins {
		if err := tc.Plugins.Remove(id); err != nil {
			return err
		}
	}

	for _, g := range t.Builtins {
		tc.Builtins.Ensure(g.ID, g.configure)
	}
	for _, g := range t.Plugins {
		tc.Plugins.Ensure(g.ID, g.configure)
	}

	if t.GenerateDescriptorSet != nil {
		tc.GenerateDescriptorSet = *t.GenerateDescriptorSet
	}
	if t.DescriptorSet != nil {
		tc.DescriptorSet = planner.DescriptorSetOptions{
			Path:              t.DescriptorSet.Path,
			IncludeImports:    t.DescriptorSet.IncludeImports,
			IncludeSourceInfo: t.DescriptorSet.IncludeSourceInfo,
		}
	}
	return nil
}

func (g GeneratorConfig) configure(spec *registry.PluginSpec) {
	if g.Artifact != "" {
		spec.Artifact = g.Artifact
	}
	if g.OutputSubDir != "" {
		spec.OutputSubDir = g.OutputSubDir
	}
	for _, opt := range g.Options {
		if key, value, ok := strings.Cut(opt, "="); ok {
			spec.AddOptionValue(key, value)
		} else {
			spec.AddOption(opt)
		}
	}
}

func buildRegistry(kind string, generators []GeneratorConfig) *registry.Registry {
	r := registry.New(kind)
	for _, g := range generators {
		r.Ensure(g.ID, g.configure)
	}
	return r
}

func resolveLocator(projectRoot string, loc protoc.Locator) protoc.Locator {
	// Bare names are left for PATH lookup
	if loc.Path != "" && strings.ContainsRune(loc.Path, filepath.Separator) {
		loc.Path = absPath(projectRoot, loc.Path)
	}
	return loc
}

func absPath(root, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}
