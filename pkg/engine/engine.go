// Package engine applies compiled rules to modules.
//
// Rules run in the order they were given. A file-only rule (one with no
// export conditions) that matches a module ends rule evaluation for that
// module. Export rules fire for every matching export and never stop
// evaluation.
package engine

import (
	"github.com/arthur-debert/danny/pkg/errors"
	"github.com/arthur-debert/danny/pkg/logging"
	"github.com/arthur-debert/danny/pkg/matchers"
	"github.com/arthur-debert/danny/pkg/rules"
	"github.com/arthur-debert/danny/pkg/types"
)

// CompiledRule is a rule ready for evaluation
type CompiledRule struct {
	Name        string
	Description string
	Priority    uint32
	Matcher     *matchers.CompiledMatcher
	Action      rules.Action
}

// Engine is an immutable, ordered set of compiled rules.
// It is safe to share between goroutines and clones.
type Engine struct {
	rules []CompiledRule
}

// Options customizes compilation of every rule
type Options struct {
	Matcher matchers.Options
}

// Stats summarizes one application run
type Stats struct {
	// RulesApplied counts callback invocations
	RulesApplied int
	// ExportsMarkedUsed counts export level matches
	ExportsMarkedUsed int
	// FilesSkipped counts file level matches
	FilesSkipped int
}

// Add accumulates other into s
func (s *Stats) Add(other Stats) {
	s.RulesApplied += other.RulesApplied
	s.ExportsMarkedUsed += other.ExportsMarkedUsed
	s.FilesSkipped += other.FilesSkipped
}

// Callback receives each match. export is nil for file level matches.
// Returning an error aborts the run.
type Callback func(module *types.Module, export *types.Export, action rules.Action) error

// New compiles rs in the given order
func New(rs []rules.Rule) (*Engine, error) {
	return NewWithOptions(rs, Options{})
}

// NewWithOptions compiles rs in the given order. The caller is responsible
// for sorting; the engine never reorders.
func NewWithOptions(rs []rules.Rule, opts Options) (*Engine, error) {
	compiled := make([]CompiledRule, 0, len(rs))
	for _, r := range rs {
		m, err := matchers.CompileWithOptions(r.Match, opts.Matcher)
		if err != nil {
			return nil, errors.Wrapf(err, errors.GetErrorCode(err), "rule %s", r.Name).
				WithDetail(errors.DetailRule, r.Name)
		}
		compiled = append(compiled, CompiledRule{
			Name:        r.Name,
			Description: r.Description,
			Priority:    r.PriorityValue(),
			Matcher:     m,
			Action:      r.Action.ToAction(),
		})
	}
	return &Engine{rules: compiled}, nil
}

// Len is the number of rules
func (e *Engine) Len() int { return len(e.rules) }

// Rules returns the compiled rules in evaluation order
func (e *Engine) Rules() []CompiledRule {
	out := make([]CompiledRule, len(e.rules))
	copy(out, e.rules)
	return out
}

// RuleNames returns rule names in evaluation order
func (e *Engine) RuleNames() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name
	}
	return names
}

// placeholder stands in for the export when evaluating file-only rules
var placeholder = types.Export{Kind: types.ExportKindNamed}

// ApplyWithCallback evaluates every rule against every module and reports
// matches to fn. The first callback error stops the run; earlier callback
// effects are not undone.
func (e *Engine) ApplyWithCallback(modules []*types.Module, fn Callback) (Stats, error) {
	logger := logging.GetLogger("engine")
	var stats Stats

	for _, module := range modules {
	ruleLoop:
		for i := range e.rules {
			rule := &e.rules[i]

			if rule.Matcher.IsFileOnly() {
				ph := placeholder
				if !rule.Matcher.Matches(module, &ph) {
					continue
				}
				logger.Trace().Str("rule", rule.Name).Str("module", module.Path).Msg("Rule matched file")
				if err := fn(module, nil, rule.Action); err != nil {
					return stats, callbackError(err, module, rule.Name)
				}
				stats.RulesApplied++
				stats.FilesSkipped++
				break ruleLoop
			}

			for j := range module.Exports {
				export := &module.Exports[j]
				if !rule.Matcher.Matches(module, export) {
					continue
				}
				logger.Trace().
					Str("rule", rule.Name).
					Str("module", module.Path).
					Str("export", export.Name).
					Msg("Rule matched export")
				if err := fn(module, export, rule.Action); err != nil {
					return stats, callbackError(err, module, rule.Name)
				}
				stats.RulesApplied++
				stats.ExportsMarkedUsed++
			}
		}
	}

	logger.Debug().
		Int("modules", len(modules)).
		Int("rules_applied", stats.RulesApplied).
		Int("exports_marked_used", stats.ExportsMarkedUsed).
		Int("files_skipped", stats.FilesSkipped).
		Msg("Rules applied")
	return stats, nil
}

func callbackError(err error, module *types.Module, rule string) error {
	return errors.Wrapf(err, errors.ErrLoad, "callback failed for %s", module.Path).
		WithDetail(errors.DetailPath, module.Path).
		WithDetail(errors.DetailRule, rule)
}
