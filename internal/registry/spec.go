package registry

import "strings"

// Option is a single generator option. A bare option has an empty Value.
type Option struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
}

// String renders the option the way protoc expects it in --<id>_out
func (o Option) String() string {
	if o.Value == "" {
		return o.Key
	}
	return o.Key + "=" + o.Value
}

// PluginSpec describes one generator (an external plugin or a protoc builtin)
// as it runs for a task
type PluginSpec struct {
	// ID identifies the generator, e.g. "java", "grpc", "javalite"
	ID string `json:"id"`

	// Artifact is opaque generator configuration, usually a module coordinate
	Artifact string `json:"artifact,omitempty"`

	// Options are passed to the generator in declaration order
	Options []Option `json:"options,omitempty"`

	// OutputSubDir overrides the directory name under the task output dir.
	// Empty means the ID is used.
	OutputSubDir string `json:"outputSubDir,omitempty"`
}

// AddOption appends a bare option
func (p *PluginSpec) AddOption(key string) *PluginSpec {
	p.Options = append(p.Options, Option{Key: key})
	return p
}

// AddOptionValue appends a key=value option
func (p *PluginSpec) AddOptionValue(key, value string) *PluginSpec {
	p.Options = append(p.Options, Option{Key: key, Value: value})
	return p
}

// OptionString joins the options with commas, e.g. "lite,foo=bar"
func (p *PluginSpec) OptionString() string {
	parts := make([]string, len(p.Options))
	for i, opt := range p.Options {
		parts[i] = opt.String()
	}
	return strings.Join(parts, ",")
}

// OutputDirName returns the directory name this generator writes into
func (p *PluginSpec) OutputDirName() string {
	if p.OutputSubDir != "" {
		return p.OutputSubDir
	}
	return p.ID
}

// Clone returns an independent copy of the spec
func (p *PluginSpec) Clone() *PluginSpec {
	c := *p
	if p.Options != nil {
		c.Options = make([]Option, len(p.Options))
		copy(c.Options, p.Options)
	}
	return &c
}
