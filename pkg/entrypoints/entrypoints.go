// Package entrypoints collects the entry point globs declared by rule
// files and resolves them against a project tree. Entry points seed graph
// construction; they are not evaluated by the rule engine.
package entrypoints

import (
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/arthur-debert/danny/pkg/constants"
	"github.com/arthur-debert/danny/pkg/errors"
	"github.com/arthur-debert/danny/pkg/filesystem"
	"github.com/arthur-debert/danny/pkg/logging"
	"github.com/arthur-debert/danny/pkg/rules"
)

// DefaultExcludeDirs are build output and dependency directories
var DefaultExcludeDirs = []string{"node_modules", "dist", "build", "out", "coverage"}

// Match is a project file selected by an entry point
type Match struct {
	// Path is relative to the project root, slash separated
	Path string

	// EntryPoint is the name of the highest priority pattern set that matched
	EntryPoint string
}

// Options bounds Discover. Zero values use the defaults.
type Options struct {
	MaxDepth    int
	ExcludeDirs []string
}

// Extract collects entry points from files, sorted by priority then name
func Extract(files []*rules.File) []rules.EntryPointPattern {
	var out []rules.EntryPointPattern
	for _, f := range files {
		out = append(out, f.EntryPoints...)
	}
	rules.SortEntryPoints(out)
	return out
}

// Validate checks every glob of eps
func Validate(eps []rules.EntryPointPattern) error {
	for _, ep := range eps {
		for _, p := range ep.Patterns {
			if !doublestar.ValidatePattern(p) {
				return errors.Newf(errors.ErrInvalidPattern, "entry point %s: invalid glob %q", ep.Name, p).
					WithDetail(errors.DetailRule, ep.Name).
					WithDetail(errors.DetailPattern, p)
			}
		}
	}
	return nil
}

// Discover walks the project and returns the files matching any entry
// point, sorted by path. eps are tried in order, so pass them sorted.
func Discover(fs filesystem.FS, eps []rules.EntryPointPattern, opts Options) ([]Match, error) {
	if err := Validate(eps); err != nil {
		return nil, err
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = constants.MaxDirectoryDepth
	}
	if opts.ExcludeDirs == nil {
		opts.ExcludeDirs = DefaultExcludeDirs
	}

	logger := logging.GetLogger("entrypoints")
	done := logging.LogOperationStart(logger, "discover_entry_points")
	defer done()

	files, err := fs.Discover(fs.Root(), filesystem.DiscoverOptions{
		MaxDepth:    opts.MaxDepth,
		ExcludeDirs: opts.ExcludeDirs,
	})
	if err != nil {
		return nil, err
	}

	var matches []Match
	for _, abs := range files {
		rel, err := filepath.Rel(fs.Root(), abs)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		if name, ok := firstMatch(eps, rel); ok {
			matches = append(matches, Match{Path: rel, EntryPoint: name})
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Path < matches[j].Path })

	logger.Debug().Int("scanned", len(files)).Int("matched", len(matches)).Msg("Entry points discovered")
	return matches, nil
}

func firstMatch(eps []rules.EntryPointPattern, rel string) (string, bool) {
	for _, ep := range eps {
		for _, p := range ep.Patterns {
			if ok, _ := doublestar.Match(p, rel); ok {
				return ep.Name, true
			}
		}
	}
	return "", false
}
