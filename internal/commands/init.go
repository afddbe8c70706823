package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"gopkg.in/yaml.v3"

	"github.com/okra-platform/protoplan/internal/config"
	"github.com/okra-platform/protoplan/internal/protoc"
	"github.com/okra-platform/protoplan/internal/variant"
)

// InitOptions are the answers of the init form
type InitOptions struct {
	Mode       string
	Generators []string
	Format     string
}

// Generators offered by the init form. Builtins run inside protoc.
var (
	initBuiltins = map[string]bool{"java": true, "cpp": true, "python": true}
	initPlugins  = map[string]protoc.Locator{
		"grpc":     {Artifact: "io.grpc:protoc-gen-grpc-java:1.0.0-pre2", Path: "protoc-gen-grpc-java"},
		"javalite": {Artifact: "com.google.protobuf:protoc-gen-javalite:3.0.0", Path: "protoc-gen-javalite"},
	}
)

type FileSystem interface {
	Stat(name string) (os.FileInfo, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
	Getwd() (string, error)
}

type osFileSystem struct{}

func (fs *osFileSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

func (fs *osFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (fs *osFileSystem) Getwd() (string, error) {
	return os.Getwd()
}

type InitCommand struct {
	filesystem FileSystem
	output     Output
	// For testing: if set, skip prompting
	testOptions *InitOptions
}

func NewInitCommand() *InitCommand {
	return &InitCommand{
		filesystem: &osFileSystem{},
		output:     newStdout(),
	}
}

func (ic *InitCommand) Run(ctx context.Context) error {
	return ic.RunWithOptions(ctx)
}

func (ic *InitCommand) RunWithOptions(ctx context.Context, opts ...tea.ProgramOption) error {
	dir, err := ic.filesystem.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	for _, name := range config.FileNames {
		if _, err := ic.filesystem.Stat(filepath.Join(dir, name)); err == nil {
			return fmt.Errorf("%s already exists in %s", name, dir)
		}
	}

	var options *InitOptions

	// For testing: use provided options instead of prompting
	if ic.testOptions != nil {
		options = ic.testOptions
	} else {
		options, err = ic.promptInitOptions(opts...)
		if err != nil {
			return fmt.Errorf("failed to get init options: %w", err)
		}
	}

	data, name, err := renderStarterConfig(options)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, name)
	if err := ic.filesystem.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	ic.output.Printf("Created %s (%s mode)\n", path, options.Mode)
	return nil
}

func (ic *InitCommand) promptInitOptions(opts ...tea.ProgramOption) (*InitOptions, error) {
	options := &InitOptions{}

	form := ic.createInitForm(options)

	if len(opts) > 0 {
		// For testing: run with provided options
		program := tea.NewProgram(form, opts...)
		if _, err := program.Run(); err != nil {
			return nil, err
		}
	} else {
		if err := form.Run(); err != nil {
			return nil, err
		}
	}

	return options, nil
}

func (ic *InitCommand) createInitForm(options *InitOptions) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Project layout").
				Description("Plain source sets, or flavors and build types").
				Options(
					huh.NewOption("Java (main and test source sets)", "java"),
					huh.NewOption("Android (flavors and build types)", "android"),
				).
				Value(&options.Mode),

			huh.NewMultiSelect[string]().
				Title("Generators").
				Description("Code generators every task starts with").
				Options(
					huh.NewOption("java (builtin)", "java").Selected(true),
					huh.NewOption("cpp (builtin)", "cpp"),
					huh.NewOption("python (builtin)", "python"),
					huh.NewOption("grpc (plugin)", "grpc"),
					huh.NewOption("javalite (plugin)", "javalite"),
				).
				Validate(func(s []string) error {
					if len(s) == 0 {
						return fmt.Errorf("select at least one generator")
					}
					return nil
				}).
				Value(&options.Generators),

			huh.NewSelect[string]().
				Title("Format").
				Options(
					huh.NewOption("JSON", "json"),
					huh.NewOption("YAML", "yaml"),
				).
				Value(&options.Format),
		),
	)
}

// renderStarterConfig returns the file content and file name for options
func renderStarterConfig(options *InitOptions) ([]byte, string, error) {
	cfg := config.Config{
		Mode: options.Mode,
		Defaults: config.Defaults{
			Builtins: []config.GeneratorConfig{},
		},
	}

	switch options.Mode {
	case "java":
		cfg.SourceSets = []string{"main", "test"}
	case "android":
		cfg.Android = &config.AndroidConfig{
			FlavorDimensions: []variant.Dimension{{Name: "version", Flavors: []string{"free", "paid"}}},
			BuildTypes:       []string{"debug", "release"},
		}
	default:
		return nil, "", fmt.Errorf("unknown mode: %s", options.Mode)
	}

	for _, id := range options.Generators {
		if initBuiltins[id] {
			cfg.Defaults.Builtins = append(cfg.Defaults.Builtins, config.GeneratorConfig{ID: id})
			continue
		}
		loc, ok := initPlugins[id]
		if !ok {
			return nil, "", fmt.Errorf("unknown generator: %s", id)
		}
		cfg.Defaults.Plugins = append(cfg.Defaults.Plugins, config.GeneratorConfig{ID: id, Artifact: loc.Artifact})
		if cfg.Plugins == nil {
			cfg.Plugins = make(map[string]protoc.Locator)
		}
		cfg.Plugins[id] = loc
	}

	switch options.Format {
	case "yaml", "yml":
		data, err := yaml.Marshal(&cfg)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode config: %w", err)
		}
		return data, "protoplan.yaml", nil
	default:
		data, err := json.MarshalIndent(&cfg, "", "  ")
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode config: %w", err)
		}
		return append(data, '\n'), "protoplan.json", nil
	}
}
