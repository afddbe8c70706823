package commands

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/okra-platform/protoplan/internal/config"
)

// ConfigLoader finds and parses the project configuration
type ConfigLoader interface {
	LoadConfig() (*config.Config, string, error)
}

// Output receives user-facing command output
type Output interface {
	Printf(format string, args ...interface{})
	Println(args ...interface{})
	Writer() io.Writer
}

// SignalNotifier abstracts os/signal for testing
type SignalNotifier interface {
	Notify(c chan<- os.Signal, sig ...os.Signal)
	Stop(c chan<- os.Signal)
}

// defaultConfigLoader loads an explicit path, or searches upwards from the
// working directory
type defaultConfigLoader struct {
	path string
}

func (l *defaultConfigLoader) LoadConfig() (*config.Config, string, error) {
	if l.path == "" {
		return config.LoadConfig()
	}
	cfg, err := config.LoadConfigFromPath(l.path)
	if err != nil {
		return nil, "", err
	}
	abs, err := filepath.Abs(l.path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve config path: %w", err)
	}
	return cfg, filepath.Dir(abs), nil
}

type defaultOutput struct {
	w io.Writer
}

func (o *defaultOutput) Printf(format string, args ...interface{}) {
	fmt.Fprintf(o.w, format, args...)
}

func (o *defaultOutput) Println(args ...interface{}) {
	fmt.Fprintln(o.w, args...)
}

func (o *defaultOutput) Writer() io.Writer {
	return o.w
}

func newStdout() Output {
	return &defaultOutput{w: os.Stdout}
}

type defaultSignalNotifier struct{}

func (defaultSignalNotifier) Notify(c chan<- os.Signal, sig ...os.Signal) {
	signal.Notify(c, sig...)
}

func (defaultSignalNotifier) Stop(c chan<- os.Signal) {
	signal.Stop(c)
}
