package commands

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/okra-platform/protoplan/internal/config"
	"github.com/okra-platform/protoplan/internal/descriptor"
	"github.com/okra-platform/protoplan/internal/planerr"
	"github.com/okra-platform/protoplan/internal/planner"
	"github.com/okra-platform/protoplan/internal/protoc"
)

// GenerateOptions controls which planned tasks run
type GenerateOptions struct {
	// Tasks restricts the run to the named tasks
	Tasks  []string
	Select config.Selector
}

// TaskInvoker runs the code generator for one task
type TaskInvoker interface {
	Invoke(ctx context.Context, task *planner.Task) error
}

// GenerateDependencies for the generate command
type GenerateDependencies struct {
	ConfigLoader ConfigLoader
	NewInvoker   func(locators protoc.Locators, logger zerolog.Logger) TaskInvoker
	Output       Output
}

// GenerateResult summarizes one generation run
type GenerateResult struct {
	RunID       string
	Generated   []string
	Skipped     []string
	Descriptors map[string]descriptor.Summary
}

// GenerateCommand plans the project and runs protoc for every task
type GenerateCommand struct {
	deps   GenerateDependencies
	logger zerolog.Logger
}

// NewGenerateCommand creates a generate command with default dependencies
func NewGenerateCommand(logger zerolog.Logger, configPath string) *GenerateCommand {
	return &GenerateCommand{
		deps: GenerateDependencies{
			ConfigLoader: &defaultConfigLoader{path: configPath},
			NewInvoker: func(locators protoc.Locators, logger zerolog.Logger) TaskInvoker {
				return protoc.NewInvoker(locators, logger)
			},
			Output: newStdout(),
		},
		logger: logger,
	}
}

// WithDependencies allows injecting custom dependencies for testing
func (gc *GenerateCommand) WithDependencies(deps GenerateDependencies) *GenerateCommand {
	gc.deps = deps
	return gc
}

// Execute loads and plans the project, then generates
func (gc *GenerateCommand) Execute(ctx context.Context, opts GenerateOptions) (*GenerateResult, error) {
	p, err := loadProject(gc.deps.ConfigLoader, gc.logger)
	if err != nil {
		return nil, err
	}
	return gc.run(ctx, p, opts)
}

func (gc *GenerateCommand) run(ctx context.Context, p *project, opts GenerateOptions) (*GenerateResult, error) {
	tasks, err := selectTasks(p.index, opts)
	if err != nil {
		return nil, err
	}

	result := &GenerateResult{
		RunID:       uuid.NewString(),
		Descriptors: make(map[string]descriptor.Summary),
	}
	logger := gc.logger.With().Str("run_id", result.RunID).Logger()
	invoker := gc.deps.NewInvoker(p.config.Locators(p.root), logger)

	start := time.Now()
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism(p.config))

	for _, task := range tasks {
		task := task
		if !task.HasInputs() {
			result.Skipped = append(result.Skipped, task.Name)
			continue
		}

		g.Go(func() error {
			if err := invoker.Invoke(ctx, task); err != nil {
				return err
			}

			var summary *descriptor.Summary
			if path := task.DescriptorSetPath(); path != "" {
				fds, err := descriptor.Load(path)
				if err != nil {
					return fmt.Errorf("%s: %w", task.Name, err)
				}
				s := descriptor.Summarize(fds)
				summary = &s
				logger.Debug().
					Str("task", task.Name).
					Int("files", len(s.Files)).
					Int("messages", s.Messages).
					Strs("services", s.Services).
					Msg("descriptor set written")
			}

			mu.Lock()
			defer mu.Unlock()
			result.Generated = append(result.Generated, task.Name)
			if summary != nil {
				result.Descriptors[task.Name] = *summary
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(result.Generated)

	logger.Info().
		Int("generated", len(result.Generated)).
		Int("skipped", len(result.Skipped)).
		Dur("duration", time.Since(start)).
		Msg("generation complete")

	gc.deps.Output.Printf("Generated %d task(s), skipped %d without sources\n", len(result.Generated), len(result.Skipped))
	return result, nil
}

// parallelism returns the configured limit, or the CPU count when unset
func parallelism(cfg *config.Config) int {
	if cfg.Generate.Parallelism <= 0 {
		return runtime.NumCPU()
	}
	return cfg.Generate.Parallelism
}

// selectTasks applies the selector, then the explicit task names
func selectTasks(idx *planner.Index, opts GenerateOptions) ([]*planner.Task, error) {
	tasks := idx.Select(opts.Select.Matcher())
	if len(opts.Tasks) == 0 {
		return tasks, nil
	}

	selected := make(map[string]bool, len(tasks))
	for _, task := range tasks {
		selected[task.Name] = true
	}

	var named []*planner.Task
	for _, name := range opts.Tasks {
		task, ok := idx.Get(name)
		if !ok || !selected[name] {
			return nil, &planerr.NotFoundError{Kind: "tasks", ID: name}
		}
		named = append(named, task)
	}
	return named, nil
}
