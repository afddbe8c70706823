package variant

import (
	"strings"

	"github.com/okra-platform/protoplan/internal/planerr"
)

// Dimension is a named flavor axis with its ordered flavors
type Dimension struct {
	Name    string   `json:"name" yaml:"name"`
	Flavors []string `json:"flavors" yaml:"flavors"`
}

// Declaration collects everything the android enumeration needs
type Declaration struct {
	// Dimensions are expanded outermost first, in declaration order
	Dimensions []Dimension

	// BuildTypes must be non-empty
	BuildTypes []string

	// TestKinds lists the enabled test kinds; NonTest is always produced
	TestKinds []TestKind

	// TestBuildType, when set, restricts InstrumentedTest variants to that
	// build type
	TestBuildType string
}

// Enumerate expands the declaration into the ordered cross product
// dimensions × build types × test kinds. Identical declarations always
// produce identical lists.
func Enumerate(decl Declaration) ([]Variant, error) {
	if err := decl.validate(); err != nil {
		return nil, err
	}

	kinds := enabledKinds(decl.TestKinds)

	combos := [][]string{{}}
	for _, dim := range decl.Dimensions {
		next := make([][]string, 0, len(combos)*len(dim.Flavors))
		for _, combo := range combos {
			for _, flavor := range dim.Flavors {
				c := make([]string, len(combo), len(combo)+1)
				copy(c, combo)
				next = append(next, append(c, flavor))
			}
		}
		combos = next
	}

	variants := make([]Variant, 0, len(combos)*len(decl.BuildTypes)*len(kinds))
	for _, flavors := range combos {
		for _, buildType := range decl.BuildTypes {
			for _, kind := range kinds {
				if kind == InstrumentedTest && decl.TestBuildType != "" && buildType != decl.TestBuildType {
					continue
				}
				parts := append(append([]string{}, flavors...), buildType)
				variants = append(variants, Variant{
					Name:      joinName(parts) + kind.Suffix(),
					Flavors:   append([]string(nil), flavors...),
					BuildType: buildType,
					TestKind:  kind,
					SourceSet: kind.sourceSetPrefix(),
					android:   true,
				})
			}
		}
	}

	if err := checkDistinct(variants); err != nil {
		return nil, err
	}
	return variants, nil
}

// FromSourceSets maps plain source-set names one to one onto variants.
// A source set named "test" or ending in "Test" is a unit-test scope.
func FromSourceSets(names []string) ([]Variant, error) {
	seen := make(map[string]bool, len(names))
	variants := make([]Variant, 0, len(names))
	for _, name := range names {
		if name == "" {
			return nil, planerr.Configurationf("", "source set name cannot be empty")
		}
		if seen[name] {
			return nil, planerr.Configurationf(name, "source set declared twice")
		}
		seen[name] = true

		kind := NonTest
		if name == "test" || strings.HasSuffix(name, "Test") {
			kind = UnitTest
		}
		variants = append(variants, Variant{
			Name:      name,
			TestKind:  kind,
			SourceSet: name,
		})
	}

	if err := checkDistinct(variants); err != nil {
		return nil, err
	}
	return variants, nil
}

// checkDistinct rejects declarations whose names collide once joined, e.g.
// flavors "x"+"yZ" and "xY"+"z", or source sets "foo" and "Foo"
func checkDistinct(variants []Variant) error {
	names := make(map[string]bool, len(variants))
	tasks := make(map[string]string, len(variants))
	for _, v := range variants {
		if names[v.Name] {
			return planerr.Configurationf(v.Name, "variant name produced by more than one declaration")
		}
		names[v.Name] = true

		task := v.TaskName()
		if other, exists := tasks[task]; exists {
			return planerr.Configurationf(v.Name, "task name %s already used by %q", task, other)
		}
		tasks[task] = v.Name
	}
	return nil
}

func (d Declaration) validate() error {
	if len(d.BuildTypes) == 0 {
		return planerr.Configurationf("", "at least one build type must be declared")
	}

	owner := make(map[string]string)
	for _, dim := range d.Dimensions {
		if dim.Name == "" {
			return planerr.Configurationf("", "flavor dimension name cannot be empty")
		}
		if len(dim.Flavors) == 0 {
			return planerr.Configurationf(dim.Name, "flavor dimension declares no flavors")
		}
		for _, flavor := range dim.Flavors {
			if flavor == "" {
				return planerr.Configurationf(dim.Name, "flavor name cannot be empty")
			}
			if other, exists := owner[flavor]; exists {
				if other == dim.Name {
					return planerr.Configurationf(dim.Name, "flavor %q declared twice", flavor)
				}
				return planerr.Configurationf(dim.Name, "flavor %q already declared in dimension %q", flavor, other)
			}
			owner[flavor] = dim.Name
		}
	}

	seen := make(map[string]bool, len(d.BuildTypes))
	for _, bt := range d.BuildTypes {
		if bt == "" {
			return planerr.Configurationf("", "build type name cannot be empty")
		}
		if seen[bt] {
			return planerr.Configurationf("", "build type %q declared twice", bt)
		}
		seen[bt] = true
	}

	if d.TestBuildType != "" && !seen[d.TestBuildType] {
		return planerr.Configurationf("", "test build type %q is not a declared build type", d.TestBuildType)
	}

	return nil
}

// enabledKinds returns NonTest followed by the enabled test kinds in fixed order
func enabledKinds(enabled []TestKind) []TestKind {
	kinds := []TestKind{NonTest}
	for _, k := range []TestKind{UnitTest, InstrumentedTest} {
		for _, e := range enabled {
			if e == k {
				kinds = append(kinds, k)
				break
			}
		}
	}
	return kinds
}
