// Package sourcefiles resolves the proto inputs of a planning scope from the
// project tree, attached bundles and upstream modules
package sourcefiles

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/okra-platform/protoplan/internal/planner"
	"github.com/okra-platform/protoplan/internal/variant"
	"github.com/rs/zerolog"
)

// ProtoExt is the extension of resolved input files
const ProtoExt = ".proto"

// SourceSet lists what a source set contributes. Relative paths are
// resolved against the project directory.
type SourceSet struct {
	// Dirs default to src/<name>/proto when empty
	Dirs []string `json:"dirs,omitempty" yaml:"dirs,omitempty"`

	// Bundles are directories, single .proto files or archives
	Bundles []string `json:"bundles,omitempty" yaml:"bundles,omitempty"`

	// Upstream are proto directories exported by dependency modules
	Upstream []string `json:"upstream,omitempty" yaml:"upstream,omitempty"`
}

// Resolver is the filesystem-backed planner.FileResolver
type Resolver struct {
	projectDir string
	extractDir string
	sourceSets map[string]SourceSet
	logger     zerolog.Logger
}

var _ planner.FileResolver = (*Resolver)(nil)

// NewResolver creates a resolver rooted at projectDir. Archives are extracted
// under <buildDir>/extracted-protos.
func NewResolver(projectDir, buildDir string, sourceSets map[string]SourceSet, logger zerolog.Logger) *Resolver {
	if !filepath.IsAbs(buildDir) {
		buildDir = filepath.Join(projectDir, buildDir)
	}
	return &Resolver{
		projectDir: projectDir,
		extractDir: filepath.Join(buildDir, "extracted-protos"),
		sourceSets: sourceSets,
		logger:     logger.With().Str("component", "sourcefiles").Logger(),
	}
}

// ResolveInputs walks every source set merged into v. Missing directories are
// skipped; a scope without any proto file resolves to an empty set.
func (r *Resolver) ResolveInputs(v variant.Variant) (planner.Inputs, error) {
	var inputs planner.Inputs

	for _, name := range v.SourceSets() {
		ss := r.sourceSets[name]

		dirs := ss.Dirs
		if len(dirs) == 0 {
			dirs = []string{filepath.Join("src", name, "proto")}
		}
		for _, dir := range dirs {
			if err := r.addDir(&inputs, r.abs(dir)); err != nil {
				return planner.Inputs{}, err
			}
		}

		for _, bundle := range ss.Bundles {
			if err := r.addBundle(&inputs, v.Name, r.abs(bundle)); err != nil {
				return planner.Inputs{}, err
			}
		}

		for _, dir := range ss.Upstream {
			if err := r.addDir(&inputs, r.abs(dir)); err != nil {
				return planner.Inputs{}, err
			}
		}
	}

	r.logger.Debug().
		Str("scope", v.Name).
		Int("files", len(inputs.Files)).
		Int("include_dirs", len(inputs.IncludeDirs)).
		Msg("resolved proto inputs")

	return inputs, nil
}

// WatchPatterns match the base names of files whose changes alter resolved
// inputs: proto sources and bundle archives
func WatchPatterns() []string {
	patterns := []string{"*" + ProtoExt}
	for _, s := range archiveSuffixes {
		patterns = append(patterns, "*"+s.suffix)
	}
	return patterns
}

// WatchDirs returns the existing directories whose contents feed any of the
// given variants. File and archive bundles are covered by their parent
// directory.
func (r *Resolver) WatchDirs(variants []variant.Variant) []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(dir string) {
		if seen[dir] {
			return
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}

	for _, v := range variants {
		for _, name := range v.SourceSets() {
			ss := r.sourceSets[name]
			if len(ss.Dirs) == 0 {
				add(r.abs(filepath.Join("src", name, "proto")))
			}
			for _, dir := range ss.Dirs {
				add(r.abs(dir))
			}
			for _, bundle := range ss.Bundles {
				path := r.abs(bundle)
				if info, err := os.Stat(path); err == nil && !info.IsDir() {
					path = filepath.Dir(path)
				}
				add(path)
			}
			for _, dir := range ss.Upstream {
				add(r.abs(dir))
			}
		}
	}
	return dirs
}

func (r *Resolver) abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(r.projectDir, path)
}

func (r *Resolver) addDir(inputs *planner.Inputs, dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	files, err := walkProtos(dir)
	if err != nil {
		return err
	}
	inputs.IncludeDirs = append(inputs.IncludeDirs, dir)
	inputs.Files = append(inputs.Files, files...)
	return nil
}

func (r *Resolver) addBundle(inputs *planner.Inputs, scope, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("bundle not found: %w", err)
	}

	switch {
	case info.IsDir():
		return r.addDir(inputs, path)
	case strings.HasSuffix(path, ProtoExt):
		inputs.IncludeDirs = append(inputs.IncludeDirs, filepath.Dir(path))
		inputs.Files = append(inputs.Files, path)
		return nil
	}

	format, ok := archiveFormat(path)
	if !ok {
		return fmt.Errorf("unsupported bundle %s: expected a directory, a .proto file or an archive", path)
	}

	dest := filepath.Join(r.extractDir, scope, archiveBase(path))
	if err := extract(path, format, dest); err != nil {
		return fmt.Errorf("failed to extract %s: %w", path, err)
	}

	r.logger.Debug().
		Str("bundle", path).
		Str("dest", dest).
		Msg("extracted proto bundle")

	return r.addDir(inputs, dest)
}

// walkProtos returns the .proto files under dir in lexical order
func walkProtos(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ProtoExt {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	return files, nil
}
