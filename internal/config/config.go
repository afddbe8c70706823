package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okra-platform/protoplan/internal/planerr"
	"github.com/okra-platform/protoplan/internal/protoc"
	"github.com/okra-platform/protoplan/internal/sourcefiles"
	"github.com/okra-platform/protoplan/internal/variant"
)

// FileNames are searched for, in order, in each directory
var FileNames = []string{"protoplan.json", "protoplan.yaml", "protoplan.yml"}

// Config represents the protoplan configuration file
type Config struct {
	Mode                  string                           `json:"mode" yaml:"mode"`
	BuildDir              string                           `json:"buildDir" yaml:"buildDir"`
	GeneratedFilesBaseDir string                           `json:"generatedFilesBaseDir" yaml:"generatedFilesBaseDir"`
	SourceSets            []string                         `json:"sourceSets,omitempty" yaml:"sourceSets,omitempty"`
	Android               *AndroidConfig                   `json:"android,omitempty" yaml:"android,omitempty"`
	Sources               map[string]sourcefiles.SourceSet `json:"sources,omitempty" yaml:"sources,omitempty"`
	Protoc                protoc.Locator                   `json:"protoc" yaml:"protoc"`
	Plugins               map[string]protoc.Locator        `json:"plugins,omitempty" yaml:"plugins,omitempty"`
	Defaults              Defaults                         `json:"defaults" yaml:"defaults"`
	Tasks                 []TaskOverride                   `json:"tasks,omitempty" yaml:"tasks,omitempty"`
	Generate              GenerateConfig                   `json:"generate" yaml:"generate"`
}

// AndroidConfig declares the variant dimensions
type AndroidConfig struct {
	FlavorDimensions  []variant.Dimension `json:"flavorDimensions,omitempty" yaml:"flavorDimensions,omitempty"`
	BuildTypes        []string            `json:"buildTypes,omitempty" yaml:"buildTypes,omitempty"`
	UnitTests         *bool               `json:"unitTests,omitempty" yaml:"unitTests,omitempty"`
	InstrumentedTests *bool               `json:"instrumentedTests,omitempty" yaml:"instrumentedTests,omitempty"`
	TestBuildType     string              `json:"testBuildType,omitempty" yaml:"testBuildType,omitempty"`
}

// Defaults are the generators every task starts from. A nil Builtins list
// means the java builtin; an explicit empty list means none.
type Defaults struct {
	Builtins []GeneratorConfig `json:"builtins" yaml:"builtins"`
	Plugins  []GeneratorConfig `json:"plugins" yaml:"plugins"`
}

// GeneratorConfig declares or reconfigures a generator. Options are written
// as "key" or "key=value".
type GeneratorConfig struct {
	ID           string   `json:"id" yaml:"id"`
	Artifact     string   `json:"artifact,omitempty" yaml:"artifact,omitempty"`
	Options      []string `json:"options,omitempty" yaml:"options,omitempty"`
	OutputSubDir string   `json:"outputSubDir,omitempty" yaml:"outputSubDir,omitempty"`
}

// TaskOverride customizes the tasks matched by Select
type TaskOverride struct {
	Name                  string               `json:"name,omitempty" yaml:"name,omitempty"`
	Select                Selector             `json:"select" yaml:"select"`
	Remove                RemoveConfig         `json:"remove" yaml:"remove"`
	Builtins              []GeneratorConfig    `json:"builtins,omitempty" yaml:"builtins,omitempty"`
	Plugins               []GeneratorConfig    `json:"plugins,omitempty" yaml:"plugins,omitempty"`
	GenerateDescriptorSet *bool                `json:"generateDescriptorSet,omitempty" yaml:"generateDescriptorSet,omitempty"`
	DescriptorSet         *DescriptorSetConfig `json:"descriptorSet,omitempty" yaml:"descriptorSet,omitempty"`
}

// Selector matches tasks. Set fields are combined; an empty selector matches all.
type Selector struct {
	SourceSet string `json:"sourceSet,omitempty" yaml:"sourceSet,omitempty"`
	Flavor    string `json:"flavor,omitempty" yaml:"flavor,omitempty"`
	BuildType string `json:"buildType,omitempty" yaml:"buildType,omitempty"`
	Variant   string `json:"variant,omitempty" yaml:"variant,omitempty"`
	Test      *bool  `json:"test,omitempty" yaml:"test,omitempty"`
}

// RemoveConfig lists default generators to drop from matched tasks
type RemoveConfig struct {
	Builtins []string `json:"builtins,omitempty" yaml:"builtins,omitempty"`
	Plugins  []string `json:"plugins,omitempty" yaml:"plugins,omitempty"`
}

// DescriptorSetConfig mirrors planner.DescriptorSetOptions
type DescriptorSetConfig struct {
	Path              string `json:"path,omitempty" yaml:"path,omitempty"`
	IncludeImports    bool   `json:"includeImports,omitempty" yaml:"includeImports,omitempty"`
	IncludeSourceInfo bool   `json:"includeSourceInfo,omitempty" yaml:"includeSourceInfo,omitempty"`
}

// GenerateConfig contains generate-command configuration
type GenerateConfig struct {
	// Parallelism bounds concurrent protoc runs
	Parallelism int `json:"parallelism,omitempty" yaml:"parallelism,omitempty"`
}

// LoadConfig loads the configuration from the current directory or a parent directory
func LoadConfig() (*Config, string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get current directory: %w", err)
	}

	return loadConfigFromDir(dir)
}

// LoadConfigFromPath loads the configuration from a specific path. The
// format follows the file extension.
func LoadConfigFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = "java"
		if c.Android != nil {
			c.Mode = "android"
		}
	}
	if c.BuildDir == "" {
		c.BuildDir = "build"
	}
	if c.GeneratedFilesBaseDir == "" {
		c.GeneratedFilesBaseDir = filepath.Join(c.BuildDir, "generated", "source", "proto")
	}
	if c.Mode == "java" && len(c.SourceSets) == 0 {
		c.SourceSets = []string{"main", "test"}
	}
	if c.Mode == "android" {
		if c.Android == nil {
			c.Android = &AndroidConfig{}
		}
		if len(c.Android.BuildTypes) == 0 {
			c.Android.BuildTypes = []string{"debug", "release"}
		}
		enabled := true
		if c.Android.UnitTests == nil {
			c.Android.UnitTests = &enabled
		}
		if c.Android.InstrumentedTests == nil {
			c.Android.InstrumentedTests = &enabled
		}
	}
	if c.Defaults.Builtins == nil {
		c.Defaults.Builtins = []GeneratorConfig{{ID: "java"}}
	}
	if c.Generate.Parallelism <= 0 {
		c.Generate.Parallelism = runtime.NumCPU()
	}
}

// Validate reports structural mistakes that do not need enumeration to find
func (c *Config) Validate() error {
	if c.Mode != "java" && c.Mode != "android" {
		return planerr.Configurationf("", "unknown mode: %s", c.Mode)
	}

	for _, g := range append(append([]GeneratorConfig{}, c.Defaults.Builtins...), c.Defaults.Plugins...) {
		if err := g.validate("defaults"); err != nil {
			return err
		}
	}

	for i, task := range c.Tasks {
		scope := task.Name
		if scope == "" {
			scope = fmt.Sprintf("tasks[%d]", i)
		}
		for _, g := range append(append([]GeneratorConfig{}, task.Builtins...), task.Plugins...) {
			if err := g.validate(scope); err != nil {
				return err
			}
		}
		for _, id := range append(append([]string{}, task.Remove.Builtins...), task.Remove.Plugins...) {
			if id == "" {
				return planerr.Configurationf(scope, "remove: id cannot be empty")
			}
		}
	}

	return nil
}

func (g GeneratorConfig) validate(scope string) error {
	if g.ID == "" {
		return planerr.Configurationf(scope, "generator id cannot be empty")
	}
	for _, opt := range g.Options {
		if opt == "" || strings.HasPrefix(opt, "=") {
			return planerr.Configurationf(scope, "generator %q has an option without a key", g.ID)
		}
	}
	return nil
}

// loadConfigFromDir searches for a config file in the given directory and its parents
func loadConfigFromDir(startDir string) (*Config, string, error) {
	dir := startDir
	for {
		for _, name := range FileNames {
			configPath := filepath.Join(dir, name)
			if _, err := os.Stat(configPath); err == nil {
				config, err := LoadConfigFromPath(configPath)
				if err != nil {
					return nil, "", err
				}
				return config, dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}

	return nil, "", fmt.Errorf("no %s found in %s or any parent directory", FileNames[0], startDir)
}
