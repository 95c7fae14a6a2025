package registry

import (
	"sort"
	"sync"

	"github.com/arthur-debert/danny/pkg/errors"
)

// Registry stores items by unique name
type Registry[T any] interface {
	// Register adds item, failing if name is empty or taken
	Register(name string, item T) error

	// Replace adds or overwrites item
	Replace(name string, item T) error

	Get(name string) (T, error)
	Remove(name string) error
	Has(name string) bool

	// List returns names in sorted order
	List() []string

	// Values returns items ordered by name
	Values() []T

	Count() int
}

type registry[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

// New creates an empty registry
func New[T any]() Registry[T] {
	return &registry[T]{items: make(map[string]T)}
}

func (r *registry[T]) Register(name string, item T) error {
	if name == "" {
		return errors.New(errors.ErrInvalidInput, "registry name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[name]; exists {
		return errors.Newf(errors.ErrAlreadyExists, "%s is already registered", name).
			WithDetail(errors.DetailFramework, name)
	}
	r.items[name] = item
	return nil
}

func (r *registry[T]) Replace(name string, item T) error {
	if name == "" {
		return errors.New(errors.ErrInvalidInput, "registry name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[name] = item
	return nil
}

func (r *registry[T]) Get(name string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, exists := r.items[name]
	if !exists {
		var zero T
		return zero, errors.Newf(errors.ErrNotFound, "%s is not registered", name).
			WithDetail(errors.DetailFramework, name)
	}
	return item, nil
}

func (r *registry[T]) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[name]; !exists {
		return errors.Newf(errors.ErrNotFound, "%s is not registered", name).
			WithDetail(errors.DetailFramework, name)
	}
	delete(r.items, name)
	return nil
}

func (r *registry[T]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.items[name]
	return exists
}

func (r *registry[T]) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNames()
}

func (r *registry[T]) Values() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := r.sortedNames()
	out := make([]T, len(names))
	for i, name := range names {
		out[i] = r.items[name]
	}
	return out
}

func (r *registry[T]) sortedNames() []string {
	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *registry[T]) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
