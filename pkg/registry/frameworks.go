package registry

import (
	"github.com/arthur-debert/danny/pkg/errors"
	"github.com/arthur-debert/danny/pkg/graph"
)

// Frameworks is a registry of framework rules keyed by their name
type Frameworks struct {
	reg Registry[graph.FrameworkRule]
}

// NewFrameworks registers rules, failing on duplicate names
func NewFrameworks(frameworkRules ...graph.FrameworkRule) (*Frameworks, error) {
	f := &Frameworks{reg: New[graph.FrameworkRule]()}
	for _, fr := range frameworkRules {
		if err := f.Register(fr); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Register adds fr under its name
func (f *Frameworks) Register(fr graph.FrameworkRule) error {
	return f.reg.Register(fr.Name(), fr)
}

// Override adds fr, replacing any rule with the same name
func (f *Frameworks) Override(fr graph.FrameworkRule) error {
	return f.reg.Replace(fr.Name(), fr)
}

// Get returns the rule registered as name
func (f *Frameworks) Get(name string) (graph.FrameworkRule, error) {
	return f.reg.Get(name)
}

// Names returns every registered name, sorted
func (f *Frameworks) Names() []string {
	return f.reg.List()
}

// All returns every rule ordered by name
func (f *Frameworks) All() []graph.FrameworkRule {
	return f.reg.Values()
}

// Defaults returns the rules that run when none are selected
func (f *Frameworks) Defaults() []graph.FrameworkRule {
	var out []graph.FrameworkRule
	for _, fr := range f.reg.Values() {
		if fr.IsDefault() {
			out = append(out, fr)
		}
	}
	return out
}

// Select returns the named rules in the given order, or Defaults when
// names is empty
func (f *Frameworks) Select(names []string) ([]graph.FrameworkRule, error) {
	if len(names) == 0 {
		return f.Defaults(), nil
	}
	out := make([]graph.FrameworkRule, 0, len(names))
	for _, name := range names {
		fr, err := f.reg.Get(name)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrInvalidInput, "unknown framework %q", name)
		}
		out = append(out, fr)
	}
	return out, nil
}

// Count is the number of registered rules
func (f *Frameworks) Count() int {
	return f.reg.Count()
}
