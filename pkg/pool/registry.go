package pool

import (
	"errors"
	"fmt"
	"sort"

	uierrors "github.com/go-drift/panelkit/pkg/errors"
)

// ErrUnknownPool is returned when a named pool does not exist.
var ErrUnknownPool = errors.New("pool: no pool with that name")

// Registry holds named pools of the same item type.
type Registry[T comparable] struct {
	pools map[string]*Pool[T]
}

// NewRegistry creates an empty registry.
func NewRegistry[T comparable]() *Registry[T] {
	return &Registry[T]{pools: make(map[string]*Pool[T])}
}

// Create registers a pool under name and preloads initial items.
// Creating a name twice is reported as misuse and returns the existing pool.
func (r *Registry[T]) Create(name string, cfg Config[T], initial int) (*Pool[T], error) {
	if name == "" {
		err := errors.New("pool name is empty")
		uierrors.Report(&uierrors.UIError{Op: "pool.Create", Kind: uierrors.KindConfiguration, Err: err})
		return nil, err
	}
	if existing, ok := r.pools[name]; ok {
		uierrors.Report(&uierrors.UIError{
			Op:   "pool.Create",
			Kind: uierrors.KindMisuse,
			Err:  fmt.Errorf("pool %q already exists", name),
		})
		return existing, nil
	}
	if cfg.Name == "" {
		cfg.Name = name
	}
	p, err := New(cfg)
	if err != nil {
		uierrors.Report(&uierrors.UIError{Op: "pool.Create(" + name + ")", Kind: uierrors.KindConfiguration, Err: err})
		return nil, err
	}
	if err := p.Preload(initial); err != nil {
		uierrors.Report(&uierrors.UIError{Op: "pool.Create(" + name + ")", Kind: uierrors.KindResource, Err: err})
	}
	r.pools[name] = p
	return p, nil
}

// Lookup returns the pool registered under name.
func (r *Registry[T]) Lookup(name string) (*Pool[T], bool) {
	p, ok := r.pools[name]
	return p, ok
}

// Get takes an item from the named pool.
func (r *Registry[T]) Get(name string) (T, error) {
	p, ok := r.pools[name]
	if !ok {
		uierrors.Report(&uierrors.UIError{Op: "pool.Get(" + name + ")", Kind: uierrors.KindConfiguration, Err: ErrUnknownPool})
		var zero T
		return zero, ErrUnknownPool
	}
	return p.Get()
}

// Release hands an item back to the named pool.
func (r *Registry[T]) Release(name string, item T) error {
	p, ok := r.pools[name]
	if !ok {
		uierrors.Report(&uierrors.UIError{Op: "pool.Release(" + name + ")", Kind: uierrors.KindConfiguration, Err: ErrUnknownPool})
		return ErrUnknownPool
	}
	return p.Release(item)
}

// Clear empties the named pool and removes it from the registry.
func (r *Registry[T]) Clear(name string) {
	p, ok := r.pools[name]
	if !ok {
		return
	}
	p.Clear()
	delete(r.pools, name)
}

// ClearAll empties and removes every pool.
func (r *Registry[T]) ClearAll() {
	for _, p := range r.pools {
		p.Clear()
	}
	r.pools = make(map[string]*Pool[T])
}

// Names returns the registered pool names in sorted order.
func (r *Registry[T]) Names() []string {
	names := make([]string, 0, len(r.pools))
	for name := range r.pools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
