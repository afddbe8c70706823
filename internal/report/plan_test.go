package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/okra-platform/protoplan/internal/planner"
	"github.com/okra-platform/protoplan/internal/registry"
	"github.com/okra-platform/protoplan/internal/variant"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func javaIndex(t *testing.T) *planner.Index {
	t.Helper()

	builtins := registry.New(registry.KindBuiltins)
	builtins.Ensure("java", nil)
	plugins := registry.New(registry.KindPlugins)
	plugins.Ensure("grpc", func(p *registry.PluginSpec) { p.AddOption("lite") })

	idx, err := planner.New(nil, zerolog.Nop()).Plan(planner.Config{
		Mode:       planner.ModeJava,
		SourceSets: []string{"main", "test"},
		BaseDir:    "/out",
		Builtins:   builtins,
		Plugins:    plugins,
		Overrides: []planner.Override{{
			Selector: variant.OfSourceSet("test"),
			Apply: func(tc *planner.TaskConfig) error {
				tc.GenerateDescriptorSet = true
				return tc.Plugins.Remove("grpc")
			},
		}},
	})
	require.NoError(t, err)
	return idx
}

func TestRenderText(t *testing.T) {
	expected := `generateProto
  scope: main
  source sets: main
  inputs: 0 file(s)
  output: /out/main
  builtins:
    java -> /out/main/java
  plugins:
    grpc [lite] -> /out/main/grpc

generateTestProto
  scope: test
  source sets: test
  inputs: 0 file(s)
  output: /out/test
  builtins:
    java -> /out/test/java
  descriptor set: /out/test/descriptor_set.desc

2 task(s)
`
	assert.Equal(t, expected, RenderText(javaIndex(t)))
}

func TestRenderText_Android(t *testing.T) {
	idx, err := planner.New(nil, zerolog.Nop()).Plan(planner.Config{
		Mode: planner.ModeAndroid,
		Android: variant.Declaration{
			Dimensions: []variant.Dimension{
				{Name: "abi", Flavors: []string{"x86"}},
				{Name: "version", Flavors: []string{"freeapp"}},
			},
			BuildTypes: []string{"debug"},
		},
		BaseDir: "/out",
	})
	require.NoError(t, err)

	out := RenderText(idx)
	assert.True(t, strings.HasPrefix(out, "generateX86FreeappDebugProto\n"))
	assert.Contains(t, out, "  flavors: x86, freeapp\n")
	assert.Contains(t, out, "  build type: debug\n")
	assert.Contains(t, out, "  test kind: nonTest\n")
	assert.Contains(t, out, "  source sets: main, x86, freeapp, x86Freeapp, debug, x86FreeappDebug\n")
	assert.NotContains(t, out, "builtins:")
	assert.True(t, strings.HasSuffix(out, "\n1 task(s)\n"))
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, javaIndex(t), FormatJSON))

	var doc struct {
		Tasks []struct {
			Task struct {
				Name    string `json:"name"`
				Plugins []struct {
					ID      string            `json:"id"`
					Options []registry.Option `json:"options"`
				} `json:"plugins"`
				GenerateDescriptorSet bool `json:"generateDescriptorSet"`
			} `json:"task"`
			Variant struct {
				Name      string `json:"name"`
				SourceSet string `json:"sourceSet"`
				TestKind  string `json:"testKind"`
			} `json:"variant"`
		} `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	require.Len(t, doc.Tasks, 2)
	assert.Equal(t, "generateProto", doc.Tasks[0].Task.Name)
	require.Len(t, doc.Tasks[0].Task.Plugins, 1)
	assert.Equal(t, "grpc", doc.Tasks[0].Task.Plugins[0].ID)
	assert.Equal(t, []registry.Option{{Key: "lite"}}, doc.Tasks[0].Task.Plugins[0].Options)
	assert.Equal(t, "nonTest", doc.Tasks[0].Variant.TestKind)

	assert.Equal(t, "generateTestProto", doc.Tasks[1].Task.Name)
	assert.Empty(t, doc.Tasks[1].Task.Plugins)
	assert.True(t, doc.Tasks[1].Task.GenerateDescriptorSet)
	assert.Equal(t, "unitTest", doc.Tasks[1].Variant.TestKind)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
		wantErr  bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
