// Package graph defines the module graph contract consumed by framework
// rules and ships an in-memory provider.
//
// The graph is module-granular: readers get whole modules and writers
// replace whole modules. Partial updates of a single export are done by
// reading a module, modifying a clone and writing it back.
package graph

import (
	"context"

	"github.com/arthur-debert/danny/pkg/types"
)

// Graph is a module graph provider
type Graph interface {
	// Modules returns every module in a stable order
	Modules(ctx context.Context) ([]*types.Module, error)

	// Module returns the module with the given key, or an ErrNotFound error
	Module(ctx context.Context, key string) (*types.Module, error)

	// ReplaceModule stores m under m.Key(), inserting it when absent
	ReplaceModule(ctx context.Context, m *types.Module) error
}

// FrameworkRule is a plugin that marks exports in a graph.
// The set of implementations is fixed at build time.
type FrameworkRule interface {
	Apply(ctx context.Context, g Graph) error
	Name() string
	Description() string

	// IsDefault reports whether the rule runs when none are selected explicitly
	IsDefault() bool

	Clone() FrameworkRule
}
