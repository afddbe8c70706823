// Package commands contains the CLI commands for the application
package commands

import (
	"context"
	"os"

	"github.com/rs/zerolog"
)

type Flags struct {
	LogLevel   string
	ConfigPath string
}

type Controller struct {
	Flags *Flags
}

// Logger returns the console logger shared by all commands
func (c *Controller) Logger() zerolog.Logger {
	level := zerolog.InfoLevel
	if c.Flags != nil && c.Flags.LogLevel != "" {
		if parsed, err := zerolog.ParseLevel(c.Flags.LogLevel); err == nil {
			level = parsed
		}
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func (c *Controller) configPath() string {
	if c.Flags == nil {
		return ""
	}
	return c.Flags.ConfigPath
}

// Plan prints the generation tasks of the project
func (c *Controller) Plan(ctx context.Context, opts PlanOptions) error {
	return NewPlanCommand(c.Logger(), c.configPath()).Execute(ctx, opts)
}

// Generate runs protoc for the planned tasks
func (c *Controller) Generate(ctx context.Context, opts GenerateOptions) error {
	_, err := NewGenerateCommand(c.Logger(), c.configPath()).Execute(ctx, opts)
	return err
}

// Watch regenerates whenever proto sources change
func (c *Controller) Watch(ctx context.Context, opts GenerateOptions) error {
	return NewWatchCommand(c.Logger(), c.configPath()).Execute(ctx, opts)
}

// Init writes a starter configuration file
func (c *Controller) Init(ctx context.Context) error {
	return NewInitCommand().Run(ctx)
}
