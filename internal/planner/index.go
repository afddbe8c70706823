package planner

import (
	"github.com/okra-platform/protoplan/internal/variant"
)

// Entry pairs a task with the variant it was resolved from
type Entry struct {
	Task    *Task           `json:"task"`
	Variant variant.Variant `json:"variant"`
}

// Index answers slice queries over the tasks of a planning pass. Queries
// that do not apply to the current mode return an empty result.
type Index struct {
	entries []Entry
	byName  map[string]int
}

// NewIndex builds an index over tasks and the variants they came from.
// tasks[i] must have been resolved from variants[i].
func NewIndex(tasks []*Task, variants []variant.Variant) *Index {
	idx := &Index{
		entries: make([]Entry, len(tasks)),
		byName:  make(map[string]int, len(tasks)),
	}
	for i, task := range tasks {
		idx.entries[i] = Entry{Task: task, Variant: variants[i]}
		idx.byName[task.Name] = i
	}
	return idx
}

// Len returns the number of tasks
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Entries returns tasks with their variants, in plan order. Variants are
// copies; tasks are shared with the index and must be treated as read-only.
func (idx *Index) Entries() []Entry {
	out := make([]Entry, len(idx.entries))
	for i, e := range idx.entries {
		v := e.Variant
		v.Flavors = append([]string(nil), e.Variant.Flavors...)
		out[i] = Entry{Task: e.Task, Variant: v}
	}
	return out
}

// Get returns the task with the given task name
func (idx *Index) Get(taskName string) (*Task, bool) {
	i, ok := idx.byName[taskName]
	if !ok {
		return nil, false
	}
	return idx.entries[i].Task, true
}

// VariantOf returns the variant a task was resolved from
func (idx *Index) VariantOf(task *Task) (variant.Variant, bool) {
	i, ok := idx.byName[task.Name]
	if !ok || idx.entries[i].Task != task {
		return variant.Variant{}, false
	}
	return idx.entries[i].Variant, true
}

// Select returns the tasks whose variant matches s, in plan order
func (idx *Index) Select(s variant.Selector) []*Task {
	var out []*Task
	for _, e := range idx.entries {
		if s(e.Variant) {
			out = append(out, e.Task)
		}
	}
	return out
}

// All returns every task
func (idx *Index) All() []*Task {
	return idx.Select(variant.All())
}

// BySourceSet returns the tasks of a plain source set, or of the android
// "main", "test" or "androidTest" grouping
func (idx *Index) BySourceSet(name string) []*Task {
	return idx.Select(variant.OfSourceSet(name))
}

// ByFlavor returns the tasks whose flavor selection contains flavor
func (idx *Index) ByFlavor(flavor string) []*Task {
	return idx.Select(variant.OfFlavor(flavor))
}

// ByBuildType returns the tasks of a build type
func (idx *Index) ByBuildType(buildType string) []*Task {
	return idx.Select(variant.OfBuildType(buildType))
}

// ByVariantName returns the task of exactly one variant
func (idx *Index) ByVariantName(name string) []*Task {
	return idx.Select(variant.OfVariant(name))
}

// NonTest returns the production tasks
func (idx *Index) NonTest() []*Task {
	return idx.Select(variant.OfNonTest())
}

// Test returns the unit-test and instrumented-test tasks
func (idx *Index) Test() []*Task {
	return idx.Select(variant.OfTest())
}
