// Package report renders planning results for people and for tools
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/okra-platform/protoplan/internal/planner"
	"github.com/okra-platform/protoplan/internal/registry"
	"github.com/okra-platform/protoplan/internal/variant"
)

// Format selects how a plan is rendered
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q (expected text or json)", s)
	}
}

// Write renders idx to out in the given format
func Write(out io.Writer, idx *planner.Index, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(planDocument{Tasks: idx.Entries()})
	default:
		_, err := io.WriteString(out, RenderText(idx))
		return err
	}
}

type planDocument struct {
	Tasks []planner.Entry `json:"tasks"`
}

// RenderText renders one block per task in planning order
func RenderText(idx *planner.Index) string {
	w := NewWriter("  ")

	for _, entry := range idx.Entries() {
		w.BlankLine()
		writeTask(w, entry.Task, entry.Variant)
	}

	w.BlankLine()
	w.WriteLinef("%d task(s)", idx.Len())
	return w.String()
}

func writeTask(w *Writer, task *planner.Task, v variant.Variant) {
	w.WriteSection(task.Name, func() {
		w.WriteField("scope", task.Scope)
		if v.IsAndroid() {
			w.WriteField("flavors", strings.Join(v.Flavors, ", "))
			w.WriteField("build type", v.BuildType)
			w.WriteField("test kind", v.TestKind.String())
		}
		w.WriteField("source sets", strings.Join(v.SourceSets(), ", "))
		w.WriteField("inputs", fmt.Sprintf("%d file(s)", len(task.InputFiles)))
		w.WriteField("output", task.OutputDir)

		writeGenerators(w, "builtins", task, task.Builtins)
		writeGenerators(w, "plugins", task, task.Plugins)

		if path := task.DescriptorSetPath(); path != "" {
			w.WriteField("descriptor set", path)
		}
	})
}

func writeGenerators(w *Writer, title string, task *planner.Task, r *registry.Registry) {
	if r == nil || r.Len() == 0 {
		return
	}
	w.WriteSection(title+":", func() {
		for _, spec := range r.All() {
			line := spec.ID
			if opts := spec.OptionString(); opts != "" {
				line += " [" + opts + "]"
			}
			w.WriteLinef("%s -> %s", line, task.GeneratorOutputDir(spec))
		}
	})
}
