package graph

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/arthur-debert/danny/pkg/errors"
	"github.com/arthur-debert/danny/pkg/types"
)

// Memory is a concurrency safe in-memory Graph. Modules are copied on the
// way in and on the way out, so callers never share state with the store.
type Memory struct {
	mu      sync.RWMutex
	modules map[string]*types.Module
	order   []string
}

// Snapshot is the serialized form of a graph
type Snapshot struct {
	Modules []*types.Module `json:"modules"`
}

// NewMemory returns a graph holding copies of modules
func NewMemory(modules ...*types.Module) *Memory {
	g := &Memory{modules: make(map[string]*types.Module)}
	for _, m := range modules {
		g.put(m)
	}
	return g
}

func (g *Memory) put(m *types.Module) {
	key := m.Key()
	if _, exists := g.modules[key]; !exists {
		g.order = append(g.order, key)
	}
	g.modules[key] = m.Clone()
}

// Modules returns copies of every module in insertion order
func (g *Memory) Modules(ctx context.Context) ([]*types.Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]*types.Module, 0, len(g.order))
	for _, key := range g.order {
		out = append(out, g.modules[key].Clone())
	}
	return out, nil
}

// Module returns a copy of the module stored under key
func (g *Memory) Module(ctx context.Context, key string) (*types.Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	m, ok := g.modules[key]
	if !ok {
		return nil, errors.Newf(errors.ErrNotFound, "module %s not found", key).
			WithDetail(errors.DetailPath, key)
	}
	return m.Clone(), nil
}

// ReplaceModule stores a copy of m
func (g *Memory) ReplaceModule(ctx context.Context, m *types.Module) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m == nil || m.Key() == "" {
		return errors.New(errors.ErrInvalidInput, "module must have an id or a path")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.put(m)
	return nil
}

// Len is the number of modules
func (g *Memory) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.order)
}

// Snapshot returns a copy of the graph contents
func (g *Memory) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s := Snapshot{Modules: make([]*types.Module, 0, len(g.order))}
	for _, key := range g.order {
		s.Modules = append(s.Modules, g.modules[key].Clone())
	}
	return s
}

// FrameworkUsed returns "key#export" for every export flagged as framework used
func (g *Memory) FrameworkUsed() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []string
	for _, key := range g.order {
		for _, exp := range g.modules[key].Exports {
			if exp.IsFrameworkUsed {
				out = append(out, key+"#"+exp.Name)
			}
		}
	}
	return out
}

// ReadSnapshot decodes a JSON snapshot into a new graph
func ReadSnapshot(r io.Reader) (*Memory, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, errors.Wrap(err, errors.ErrParse, "invalid graph snapshot")
	}
	for i, m := range s.Modules {
		if m == nil || m.Key() == "" {
			return nil, errors.Newf(errors.ErrParse, "snapshot module %d has no id or path", i).
				WithDetail(errors.DetailValue, i)
		}
	}
	return NewMemory(s.Modules...), nil
}

// WriteSnapshot encodes the graph as indented JSON
func (g *Memory) WriteSnapshot(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g.Snapshot()); err != nil {
		return errors.Wrap(err, errors.ErrIO, "failed to write graph snapshot")
	}
	return nil
}
