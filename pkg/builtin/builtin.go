// Package builtin holds the rule bundles compiled into the binary: React,
// Next.js, Vue and Svelte. They are parsed once on first use and never
// change afterwards.
package builtin

import (
	"embed"
	"path"
	"sync"

	"github.com/arthur-debert/danny/pkg/bridge"
	"github.com/arthur-debert/danny/pkg/errors"
	"github.com/arthur-debert/danny/pkg/graph"
	"github.com/arthur-debert/danny/pkg/registry"
	"github.com/arthur-debert/danny/pkg/rules"
)

//go:embed rules/*.toml
var bundleFS embed.FS

// Bundle names an embedded rule file
type Bundle struct {
	Name string
	File string
}

// Bundles lists the embedded files in load order
var Bundles = []Bundle{
	{Name: "React", File: "react.toml"},
	{Name: "Next.js", File: "nextjs.toml"},
	{Name: "Vue", File: "vue.toml"},
	{Name: "Svelte", File: "svelte.toml"},
}

var (
	once    sync.Once
	files   []*rules.File
	loadErr error
)

// Source returns the raw text of the named bundle
func Source(name string) (string, error) {
	for _, b := range Bundles {
		if b.Name == name {
			data, err := bundleFS.ReadFile(path.Join("rules", b.File))
			if err != nil {
				return "", errors.Wrapf(err, errors.ErrInternal, "embedded bundle %s", name)
			}
			return string(data), nil
		}
	}
	return "", errors.Newf(errors.ErrNotFound, "no built-in bundle named %s", name).
		WithDetail(errors.DetailFramework, name)
}

// Files returns the parsed bundles in load order. Callers must not modify them.
func Files() ([]*rules.File, error) {
	once.Do(func() {
		files, loadErr = parseAll()
	})
	return files, loadErr
}

func parseAll() ([]*rules.File, error) {
	out := make([]*rules.File, 0, len(Bundles))
	for _, b := range Bundles {
		text, err := Source(b.Name)
		if err != nil {
			return nil, err
		}
		f, err := rules.ParseTOML(text)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrInternal, "embedded bundle %s", b.Name).
				WithDetail(errors.DetailFramework, b.Name)
		}
		f.Path = path.Join("builtin", b.File)
		out = append(out, f)
	}
	return out, nil
}

// Rules returns every built-in rule sorted by priority then name
func Rules() ([]rules.Rule, error) {
	fs, err := Files()
	if err != nil {
		return nil, err
	}
	var all []rules.Rule
	for _, f := range fs {
		all = append(all, f.Rules...)
	}
	rules.SortRules(all)
	return all, nil
}

// Frameworks returns the framework metadata of every bundle
func Frameworks() ([]rules.FrameworkMetadata, error) {
	fs, err := Files()
	if err != nil {
		return nil, err
	}
	out := make([]rules.FrameworkMetadata, 0, len(fs))
	for _, f := range fs {
		if f.Framework != nil {
			out = append(out, *f.Framework)
		}
	}
	return out, nil
}

// EntryPoints returns the entry point patterns of every bundle, sorted
// by priority then name
func EntryPoints() ([]rules.EntryPointPattern, error) {
	fs, err := Files()
	if err != nil {
		return nil, err
	}
	var out []rules.EntryPointPattern
	for _, f := range fs {
		out = append(out, f.EntryPoints...)
	}
	rules.SortEntryPoints(out)
	return out, nil
}

// FrameworkRules compiles one bundle per framework
func FrameworkRules() ([]graph.FrameworkRule, error) {
	fs, err := Files()
	if err != nil {
		return nil, err
	}
	out := make([]graph.FrameworkRule, 0, len(fs))
	for i, f := range fs {
		b, err := bridge.FromFile(Bundles[i].Name, f)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// Registry returns a registry populated with FrameworkRules
func Registry() (*registry.Frameworks, error) {
	frs, err := FrameworkRules()
	if err != nil {
		return nil, err
	}
	return registry.NewFrameworks(frs...)
}
