package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/okra-platform/protoplan/internal/config"
	"github.com/okra-platform/protoplan/internal/planner"
	"github.com/okra-platform/protoplan/internal/report"
	"github.com/okra-platform/protoplan/internal/variant"
)

// PlanOptions controls the plan command
type PlanOptions struct {
	Format string
	Select config.Selector
}

// PlanDependencies for the plan command
type PlanDependencies struct {
	ConfigLoader ConfigLoader
	Output       Output
}

// PlanCommand prints the resolved generation tasks
type PlanCommand struct {
	deps   PlanDependencies
	logger zerolog.Logger
}

// NewPlanCommand creates a plan command with default dependencies
func NewPlanCommand(logger zerolog.Logger, configPath string) *PlanCommand {
	return &PlanCommand{
		deps: PlanDependencies{
			ConfigLoader: &defaultConfigLoader{path: configPath},
			Output:       newStdout(),
		},
		logger: logger,
	}
}

// WithDependencies allows injecting custom dependencies for testing
func (pc *PlanCommand) WithDependencies(deps PlanDependencies) *PlanCommand {
	pc.deps = deps
	return pc
}

// Execute plans the project and renders the result
func (pc *PlanCommand) Execute(ctx context.Context, opts PlanOptions) error {
	format, err := report.ParseFormat(opts.Format)
	if err != nil {
		return err
	}

	p, err := loadProject(pc.deps.ConfigLoader, pc.logger)
	if err != nil {
		return err
	}

	return report.Write(pc.deps.Output.Writer(), subset(p.index, opts.Select.Matcher()), format)
}

// project is a loaded configuration together with its plan
type project struct {
	config *config.Config
	root   string
	index  *planner.Index
}

func loadProject(loader ConfigLoader, logger zerolog.Logger) (*project, error) {
	cfg, root, err := loader.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}

	files := cfg.FileResolver(root, logger)
	idx, err := planner.New(files, logger).Plan(cfg.PlannerConfig(root))
	if err != nil {
		return nil, fmt.Errorf("failed to plan generation tasks: %w", err)
	}

	return &project{config: cfg, root: root, index: idx}, nil
}

// subset narrows idx to the tasks whose variant matches s
func subset(idx *planner.Index, s variant.Selector) *planner.Index {
	var tasks []*planner.Task
	var variants []variant.Variant
	for _, entry := range idx.Entries() {
		if s(entry.Variant) {
			tasks = append(tasks, entry.Task)
			variants = append(variants, entry.Variant)
		}
	}
	return planner.NewIndex(tasks, variants)
}
