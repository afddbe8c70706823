package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/okra-platform/protoplan/internal/commands"
	"github.com/okra-platform/protoplan/internal/config"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	short := commit
	if len(commit) > 7 {
		short = commit[:7]
	}

	return fmt.Sprintf("%s (%s) %s", version, short, date)
}

func selectorFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "source-set", Usage: "only tasks of this source set (main, test, androidTest or a plain source set)"},
		&cli.StringFlag{Name: "flavor", Usage: "only tasks of variants with this flavor"},
		&cli.StringFlag{Name: "build-type", Usage: "only tasks of variants with this build type"},
		&cli.StringFlag{Name: "variant", Usage: "only the task of this variant"},
	}
}

func selector(c *cli.Command) config.Selector {
	return config.Selector{
		SourceSet: c.String("source-set"),
		Flavor:    c.String("flavor"),
		BuildType: c.String("build-type"),
		Variant:   c.String("variant"),
	}
}

func generateOptions(c *cli.Command) commands.GenerateOptions {
	return commands.GenerateOptions{
		Tasks:  c.StringSlice("task"),
		Select: selector(c),
	}
}

func main() {
	ctrl := &commands.Controller{
		Flags: &commands.Flags{},
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	generateFlags := append(selectorFlags(), &cli.StringSliceFlag{
		Name:  "task",
		Usage: "run only the named task (repeatable)",
	})

	app := &cli.Command{
		Name:    "protoplan",
		Usage:   "Plan and run variant-scoped protobuf code generation",
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error, fatal, panic)",
				Sources: cli.EnvVars("PROTOPLAN_LOG_LEVEL"),
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to protoplan.json or protoplan.yaml (default: search upwards from the working directory)",
				Sources: cli.EnvVars("PROTOPLAN_CONFIG"),
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			level, err := zerolog.ParseLevel(c.String("log-level"))
			if err != nil {
				return ctx, fmt.Errorf("failed to parse log level: %w", err)
			}

			log.Logger = log.Level(level)
			ctrl.Flags.LogLevel = level.String()
			ctrl.Flags.ConfigPath = c.String("config")

			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Create a protoplan configuration in the current directory",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Init(ctx)
				},
			},
			{
				Name:  "plan",
				Usage: "Print the generation tasks of the project",
				Flags: append(selectorFlags(), &cli.StringFlag{
					Name:  "format",
					Usage: "output format (text, json)",
					Value: "text",
				}),
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Plan(ctx, commands.PlanOptions{
						Format: c.String("format"),
						Select: selector(c),
					})
				},
			},
			{
				Name:  "generate",
				Usage: "Run protoc for every planned task",
				Flags: generateFlags,
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Generate(ctx, generateOptions(c))
				},
			},
			{
				Name:  "watch",
				Usage: "Generate, then regenerate whenever proto sources change",
				Flags: generateFlags,
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Watch(ctx, generateOptions(c))
				},
			},
		},
	}

	ctx := context.Background()

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("failed to run protoplan")
	}
}
