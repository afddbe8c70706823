// Package variant expands build dimensions into named scopes
package variant

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TestKind partitions variants into production and test scopes
type TestKind int

const (
	NonTest TestKind = iota
	UnitTest
	InstrumentedTest
)

// String returns the kind name used in configuration files
func (k TestKind) String() string {
	switch k {
	case NonTest:
		return "nonTest"
	case UnitTest:
		return "unitTest"
	case InstrumentedTest:
		return "instrumentedTest"
	default:
		return fmt.Sprintf("TestKind(%d)", int(k))
	}
}

// Suffix is appended to variant names of this kind
func (k TestKind) Suffix() string {
	switch k {
	case UnitTest:
		return "UnitTest"
	case InstrumentedTest:
		return "AndroidTest"
	default:
		return ""
	}
}

// sourceSetPrefix is the source-set family the kind draws its sources from
func (k TestKind) sourceSetPrefix() string {
	switch k {
	case UnitTest:
		return "test"
	case InstrumentedTest:
		return "androidTest"
	default:
		return "main"
	}
}

// MarshalText implements encoding.TextMarshaler
func (k TestKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *TestKind) UnmarshalText(text []byte) error {
	parsed, err := ParseTestKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseTestKind parses a kind name as written in configuration files
func ParseTestKind(s string) (TestKind, error) {
	switch s {
	case "nonTest", "":
		return NonTest, nil
	case "unitTest":
		return UnitTest, nil
	case "instrumentedTest", "androidTest":
		return InstrumentedTest, nil
	default:
		return NonTest, fmt.Errorf("unknown test kind: %s", s)
	}
}

// Variant is one named planning scope. Values are immutable once enumerated.
type Variant struct {
	// Name is the scope name, e.g. "x86FreeappDebugAndroidTest" or "main"
	Name string `json:"name"`

	// Flavors holds one flavor per dimension, in dimension declaration order
	Flavors []string `json:"flavors,omitempty"`

	// BuildType is empty for plain source sets
	BuildType string `json:"buildType,omitempty"`

	TestKind TestKind `json:"testKind"`

	// SourceSet is the source-set grouping: the source-set name itself in
	// plain mode, or "main", "test" and "androidTest" for android variants
	SourceSet string `json:"sourceSet"`

	android bool
}

// IsAndroid reports whether the variant came from flavor/build-type enumeration
func (v Variant) IsAndroid() bool {
	return v.android
}

// IsTest reports whether the variant belongs to a test scope
func (v Variant) IsTest() bool {
	return v.TestKind != NonTest
}

// HasFlavor reports whether flavor is part of the selection
func (v Variant) HasFlavor(flavor string) bool {
	for _, f := range v.Flavors {
		if f == flavor {
			return true
		}
	}
	return false
}

// TaskName returns the generation task name, e.g. "generateX86FreeappDebugProto".
// The plain "main" source set maps to "generateProto".
func (v Variant) TaskName() string {
	if !v.android && v.Name == "main" {
		return "generateProto"
	}
	return "generate" + capitalize(v.Name) + "Proto"
}

// SourceSets returns the source-set names whose sources merge into the variant,
// from most general to most specific
func (v Variant) SourceSets() []string {
	if !v.android {
		return []string{v.Name}
	}

	prefix := v.TestKind.sourceSetPrefix()
	named := func(parts ...string) string {
		if prefix == "main" {
			return joinName(parts)
		}
		return joinName(append([]string{prefix}, parts...))
	}

	sets := []string{prefix}
	for _, f := range v.Flavors {
		sets = append(sets, named(f))
	}
	if len(v.Flavors) > 1 {
		sets = append(sets, named(v.Flavors...))
	}
	sets = append(sets, named(v.BuildType))
	sets = append(sets, named(append(append([]string{}, v.Flavors...), v.BuildType)...))

	return dedupe(sets)
}

// joinName lower-cases the first letter of the first part and capitalizes
// the first letter of every following part
func joinName(parts []string) string {
	var b strings.Builder
	for i, p := range parts {
		if i == 0 {
			b.WriteString(lowerFirst(p))
		} else {
			b.WriteString(capitalize(p))
		}
	}
	return b.String()
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0]
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
