// Package bridge adapts rule sets to the graph.FrameworkRule plugin
// contract so that matched exports get flagged in a module graph.
package bridge

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/danny/pkg/engine"
	"github.com/arthur-debert/danny/pkg/errors"
	"github.com/arthur-debert/danny/pkg/graph"
	"github.com/arthur-debert/danny/pkg/logging"
	"github.com/arthur-debert/danny/pkg/rules"
	"github.com/arthur-debert/danny/pkg/types"
)

// Observer is told about every action the bundle handles, after any graph
// write has succeeded. export is nil for file level matches.
type Observer func(bundle string, module *types.Module, export *types.Export, action rules.Action)

// RuleBundle is a named, compiled rule set usable as a framework rule
type RuleBundle struct {
	name        string
	description string
	engine      *engine.Engine
	observer    Observer
}

var _ graph.FrameworkRule = (*RuleBundle)(nil)

// New compiles rs in the given order
func New(name, description string, rs []rules.Rule) (*RuleBundle, error) {
	eng, err := engine.New(rs)
	if err != nil {
		return nil, errors.Wrapf(err, errors.GetErrorCode(err), "bundle %s", name).
			WithDetail(errors.DetailFramework, name)
	}
	return &RuleBundle{name: name, description: description, engine: eng}, nil
}

// NewWithEngine wraps an already compiled engine
func NewWithEngine(name, description string, eng *engine.Engine) *RuleBundle {
	return &RuleBundle{name: name, description: description, engine: eng}
}

// FromFile builds a bundle from a parsed rule file. Rules are sorted by
// priority then name.
func FromFile(name string, f *rules.File) (*RuleBundle, error) {
	rs := append([]rules.Rule(nil), f.Rules...)
	rules.SortRules(rs)
	if name == "" {
		name = f.Name()
	}
	return New(name, f.Description(), rs)
}

// FromTOML parses text and builds a bundle from it
func FromTOML(name, text string) (*RuleBundle, error) {
	f, err := rules.ParseTOML(text)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrParse, "bundle %s", name).
			WithDetail(errors.DetailFramework, name)
	}
	return FromFile(name, f)
}

func (b *RuleBundle) Name() string        { return b.name }
func (b *RuleBundle) Description() string { return b.description }

// IsDefault is always true: every bundle runs unless a selection excludes it
func (b *RuleBundle) IsDefault() bool { return true }

// Engine returns the compiled rules
func (b *RuleBundle) Engine() *engine.Engine { return b.engine }

// WithObserver returns a copy of b that reports actions to fn
func (b *RuleBundle) WithObserver(fn Observer) *RuleBundle {
	c := *b
	c.observer = fn
	return &c
}

// Clone returns a bundle sharing the compiled engine
func (b *RuleBundle) Clone() graph.FrameworkRule {
	c := *b
	return &c
}

// Apply runs the bundle against g
func (b *RuleBundle) Apply(ctx context.Context, g graph.Graph) error {
	_, err := b.ApplyWithStats(ctx, g)
	return err
}

// ApplyWithStats runs the bundle against g and reports what matched.
// The module list is read once. A failed write aborts the run without
// undoing earlier writes.
func (b *RuleBundle) ApplyWithStats(ctx context.Context, g graph.Graph) (engine.Stats, error) {
	logger := logging.GetLogger("bridge").With().Str("bundle", b.name).Logger()

	modules, err := g.Modules(ctx)
	if err != nil {
		return engine.Stats{}, errors.Wrapf(err, errors.ErrGraph, "bundle %s: failed to list modules", b.name).
			WithDetail(errors.DetailFramework, b.name)
	}

	stats, err := b.engine.ApplyWithCallback(modules, func(module *types.Module, export *types.Export, action rules.Action) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.handle(ctx, g, logger, module, export, action); err != nil {
			return err
		}
		if b.observer != nil {
			b.observer(b.name, module, export, action)
		}
		return nil
	})
	if err != nil {
		return stats, errors.Wrapf(err, errors.ErrGraph, "bundle %s", b.name).
			WithDetail(errors.DetailFramework, b.name)
	}

	logger.Debug().
		Int("rules_applied", stats.RulesApplied).
		Int("exports_marked_used", stats.ExportsMarkedUsed).
		Msg("Bundle applied")
	return stats, nil
}

func (b *RuleBundle) handle(ctx context.Context, g graph.Graph, logger zerolog.Logger, module *types.Module, export *types.Export, action rules.Action) error {
	switch action.Kind {
	case rules.ActionMarkUsed:
		if export == nil {
			return nil
		}
		return markUsed(ctx, g, module, export.Name)
	case rules.ActionWarn:
		ev := logger.Warn().Str("module", module.Path).Str("message", action.Message)
		if export != nil {
			ev = ev.Str("export", export.Name)
		}
		ev.Msg("Rule warning")
	}
	return nil
}

// markUsed flags one export with a read-modify-write of its module. The
// current graph copy is read so that earlier writes in the same run are
// kept.
func markUsed(ctx context.Context, g graph.Graph, module *types.Module, export string) error {
	current, err := g.Module(ctx, module.Key())
	switch {
	case errors.IsErrorCode(err, errors.ErrNotFound):
		current = module.Clone()
	case err != nil:
		return err
	}

	idx := current.ExportIndex(export)
	if idx < 0 {
		return nil
	}
	current.Exports[idx].IsFrameworkUsed = true
	return g.ReplaceModule(ctx, current)
}

type statsApplier interface {
	ApplyWithStats(ctx context.Context, g graph.Graph) (engine.Stats, error)
}

// ApplyAll runs rules one after another against g and sums their stats.
// Rules that do not report stats contribute nothing to the total.
func ApplyAll(ctx context.Context, g graph.Graph, frameworkRules []graph.FrameworkRule) (engine.Stats, error) {
	var total engine.Stats
	for _, fr := range frameworkRules {
		if sa, ok := fr.(statsApplier); ok {
			stats, err := sa.ApplyWithStats(ctx, g)
			total.Add(stats)
			if err != nil {
				return total, err
			}
			continue
		}
		if err := fr.Apply(ctx, g); err != nil {
			return total, errors.Wrapf(err, errors.ErrGraph, "rule %s", fr.Name()).
				WithDetail(errors.DetailFramework, fr.Name())
		}
	}
	return total, nil
}
