// Package planner turns scope declarations and generator defaults into
// concrete generation tasks
package planner

import (
	"time"

	"github.com/okra-platform/protoplan/internal/planerr"
	"github.com/okra-platform/protoplan/internal/registry"
	"github.com/okra-platform/protoplan/internal/variant"
	"github.com/rs/zerolog"
)

// Mode selects how scopes are declared
type Mode string

const (
	// ModeJava plans one task per plain source set
	ModeJava Mode = "java"

	// ModeAndroid plans one task per flavor/build-type/test-kind variant
	ModeAndroid Mode = "android"
)

// Config is the full input of a planning pass
type Config struct {
	Mode Mode

	// SourceSets are used in ModeJava
	SourceSets []string

	// Android is used in ModeAndroid
	Android variant.Declaration

	// BaseDir is the root of all generated output
	BaseDir string

	// Plugins and Builtins are the shared defaults; they are cloned per task
	Plugins  *registry.Registry
	Builtins *registry.Registry

	// Overrides are applied to every matching task in declaration order
	Overrides []Override
}

// Planner runs planning passes
type Planner struct {
	files  FileResolver
	logger zerolog.Logger
}

// New creates a planner backed by the given file-resolution collaborator
func New(files FileResolver, logger zerolog.Logger) *Planner {
	return &Planner{
		files:  files,
		logger: logger.With().Str("component", "planner").Logger(),
	}
}

// Variants enumerates the scopes of cfg without resolving tasks
func Variants(cfg Config) ([]variant.Variant, error) {
	switch cfg.Mode {
	case ModeJava, "":
		return variant.FromSourceSets(cfg.SourceSets)
	case ModeAndroid:
		return variant.Enumerate(cfg.Android)
	default:
		return nil, planerr.Configurationf("", "unknown mode: %s", cfg.Mode)
	}
}

// Plan enumerates the scopes of cfg and resolves one task per scope. The
// first error aborts the whole pass.
func (p *Planner) Plan(cfg Config) (*Index, error) {
	start := time.Now()

	variants, err := Variants(cfg)
	if err != nil {
		return nil, err
	}

	resolver := NewResolver(cfg.BaseDir, p.files, p.logger)

	tasks := make([]*Task, 0, len(variants))
	for _, v := range variants {
		task, err := resolver.Resolve(v, cfg.Plugins, cfg.Builtins, overridesFor(v, cfg.Overrides))
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	p.logger.Info().
		Str("mode", string(cfg.Mode)).
		Int("tasks", len(tasks)).
		Dur("elapsed", time.Since(start)).
		Msg("planned generation tasks")

	return NewIndex(tasks, variants), nil
}

// overridesFor composes the overrides whose selector matches v
func overridesFor(v variant.Variant, overrides []Override) OverrideFn {
	var fns []OverrideFn
	for _, o := range overrides {
		if o.Selector != nil && !o.Selector(v) {
			continue
		}
		fns = append(fns, o.Apply)
	}
	if len(fns) == 0 {
		return nil
	}
	return Chain(fns...)
}
