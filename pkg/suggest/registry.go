package suggest

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrUnknownSource is returned for names no registry entry carries.
	ErrUnknownSource = errors.New("suggest: unknown source")
	// ErrDuplicateSource is returned when two entries share a name.
	ErrDuplicateSource = errors.New("suggest: duplicate source")
)

// Named is anything registered by name.
type Named interface {
	Name() string
}

// Registry maps names to sources or helpers. It is immutable once built.
type Registry[T Named] struct {
	byName map[string]T
	order  []string
	def    string
}

// NewRegistry builds a registry whose default entry is def.
func NewRegistry[T Named](def string, items ...T) (*Registry[T], error) {
	r := &Registry[T]{byName: make(map[string]T, len(items)), def: def}
	for _, it := range items {
		name := it.Name()
		if _, dup := r.byName[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSource, name)
		}
		r.byName[name] = it
		r.order = append(r.order, name)
	}
	if _, ok := r.byName[def]; !ok && def != "" {
		return nil, fmt.Errorf("%w: default %q", ErrUnknownSource, def)
	}
	return r, nil
}

// Get returns the entry for name, or the default when name is empty.
func (r *Registry[T]) Get(name string) (T, bool) {
	if name == "" {
		name = r.def
	}
	it, ok := r.byName[name]
	return it, ok
}

// Lookup is Get with an error for missing names.
func (r *Registry[T]) Lookup(name string) (T, error) {
	it, ok := r.Get(name)
	if !ok {
		return it, fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
	return it, nil
}

// Default returns the default entry.
func (r *Registry[T]) Default() (T, bool) {
	return r.Get("")
}

// All returns entries in registration order.
func (r *Registry[T]) All() []T {
	out := make([]T, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Names returns entry names in registration order.
func (r *Registry[T]) Names() []string {
	return slices.Clone(r.order)
}
