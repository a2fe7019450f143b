// Package pool provides a capacity-bounded generic object pool.
//
// A Pool recycles constructed items instead of discarding them. Released
// items are kept on a LIFO stack of at most MaxSize entries; anything
// released beyond that is handed to the destroy hook and dropped, so the
// pool never grows past its bound.
//
// Pools are not safe for concurrent use. Like the rest of panelkit they are
// driven from the single UI thread.
package pool

import (
	"errors"
	"fmt"

	uierrors "github.com/go-drift/panelkit/pkg/errors"
)

const (
	// DefaultMaxSize is used when Config.MaxSize is zero.
	DefaultMaxSize = 100
	// DefaultCapacity is used when Config.Capacity is zero or negative.
	DefaultCapacity = 10
	// NoRetain is a MaxSize that keeps nothing: every release destroys.
	NoRetain = -1
)

var (
	// ErrNotActive is returned when releasing an item the pool did not hand out.
	ErrNotActive = errors.New("pool: item is not active in this pool")
	// ErrNoFactory is returned when a pool is created without a factory.
	ErrNoFactory = errors.New("pool: factory is required")
)

// Config describes how a pool constructs and recycles its items.
type Config[T comparable] struct {
	// Name labels the pool in error reports.
	Name string

	// New constructs a fresh item. A returned error leaves the pool unchanged.
	New func() (T, error)

	// OnGet runs every time an item is handed out.
	OnGet func(T)
	// OnRelease runs when an item is parked on the inactive stack,
	// including items created by Preload.
	OnRelease func(T)
	// OnDestroy runs when an item is dropped for good.
	OnDestroy func(T)

	// MaxSize bounds the inactive stack. Zero means DefaultMaxSize and a
	// negative value retains nothing.
	MaxSize int
	// Capacity preallocates the inactive stack.
	Capacity int
}

// Pool is a bounded container of reusable items.
type Pool[T comparable] struct {
	cfg      Config[T]
	maxSize  int
	inactive []T
	active   map[T]struct{}
}

// New creates a pool from cfg. It returns ErrNoFactory if cfg.New is nil.
func New[T comparable](cfg Config[T]) (*Pool[T], error) {
	if cfg.New == nil {
		return nil, ErrNoFactory
	}
	maxSize := cfg.MaxSize
	switch {
	case maxSize == 0:
		maxSize = DefaultMaxSize
	case maxSize < 0:
		maxSize = 0
	}
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if capacity > maxSize {
		capacity = maxSize
	}
	return &Pool[T]{
		cfg:      cfg,
		maxSize:  maxSize,
		inactive: make([]T, 0, capacity),
		active:   make(map[T]struct{}),
	}, nil
}

// Get returns a recycled item if one is available, otherwise a new one
// built by the factory. The item is marked active.
func (p *Pool[T]) Get() (T, error) {
	var item T
	if n := len(p.inactive); n > 0 {
		item = p.inactive[n-1]
		var zero T
		p.inactive[n-1] = zero
		p.inactive = p.inactive[:n-1]
	} else {
		created, err := p.cfg.New()
		if err != nil {
			var zero T
			return zero, err
		}
		item = created
	}

	p.active[item] = struct{}{}
	if p.cfg.OnGet != nil {
		p.cfg.OnGet(item)
	}
	return item, nil
}

// Release returns an active item to the pool. If the inactive stack is
// full the item is destroyed instead. Releasing an item that is not
// active is reported as misuse and leaves the pool untouched.
func (p *Pool[T]) Release(item T) error {
	if _, ok := p.active[item]; !ok {
		uierrors.Report(&uierrors.UIError{
			Op:   p.op("Release"),
			Kind: uierrors.KindMisuse,
			Err:  ErrNotActive,
		})
		return ErrNotActive
	}
	delete(p.active, item)

	if len(p.inactive) < p.maxSize {
		if p.cfg.OnRelease != nil {
			p.cfg.OnRelease(item)
		}
		p.inactive = append(p.inactive, item)
		return nil
	}
	if p.cfg.OnDestroy != nil {
		p.cfg.OnDestroy(item)
	}
	return nil
}

// Discard drops an active item for good instead of recycling it. The
// destroy hook runs on it. Discarding an item that is not active is
// reported as misuse.
func (p *Pool[T]) Discard(item T) error {
	if _, ok := p.active[item]; !ok {
		uierrors.Report(&uierrors.UIError{
			Op:   p.op("Discard"),
			Kind: uierrors.KindMisuse,
			Err:  ErrNotActive,
		})
		return ErrNotActive
	}
	delete(p.active, item)
	if p.cfg.OnDestroy != nil {
		p.cfg.OnDestroy(item)
	}
	return nil
}

// ReleaseAll releases every active item.
func (p *Pool[T]) ReleaseAll() {
	snapshot := make([]T, 0, len(p.active))
	for item := range p.active {
		snapshot = append(snapshot, item)
	}
	for _, item := range snapshot {
		p.Release(item)
	}
}

// Clear destroys every active and inactive item and empties the pool.
func (p *Pool[T]) Clear() {
	if p.cfg.OnDestroy != nil {
		for item := range p.active {
			p.cfg.OnDestroy(item)
		}
		for _, item := range p.inactive {
			p.cfg.OnDestroy(item)
		}
	}
	p.active = make(map[T]struct{})
	clear(p.inactive)
	p.inactive = p.inactive[:0]
}

// Trim destroys every inactive item, leaving active items alone.
func (p *Pool[T]) Trim() {
	inactive := p.inactive
	p.inactive = inactive[:0:0]
	if p.cfg.OnDestroy != nil {
		for _, item := range inactive {
			p.cfg.OnDestroy(item)
		}
	}
}

// Preload constructs up to n items straight onto the inactive stack,
// stopping once the stack is full. The release hook runs on each.
func (p *Pool[T]) Preload(n int) error {
	if n <= 0 {
		return nil
	}
	n = min(n, p.maxSize-len(p.inactive))
	for i := 0; i < n; i++ {
		item, err := p.cfg.New()
		if err != nil {
			return fmt.Errorf("preload %d/%d: %w", i+1, n, err)
		}
		if p.cfg.OnRelease != nil {
			p.cfg.OnRelease(item)
		}
		p.inactive = append(p.inactive, item)
		if len(p.inactive) >= p.maxSize {
			break
		}
	}
	return nil
}

// Peek returns the item Get would recycle next, if any.
func (p *Pool[T]) Peek() (T, bool) {
	if n := len(p.inactive); n > 0 {
		return p.inactive[n-1], true
	}
	var zero T
	return zero, false
}

// IsActive reports whether item is currently handed out by this pool.
func (p *Pool[T]) IsActive(item T) bool {
	_, ok := p.active[item]
	return ok
}

// MaxSize returns the bound on the inactive stack.
func (p *Pool[T]) MaxSize() int { return p.maxSize }

// CountInactive returns the number of items waiting to be reused.
func (p *Pool[T]) CountInactive() int { return len(p.inactive) }

// CountActive returns the number of items currently handed out.
func (p *Pool[T]) CountActive() int { return len(p.active) }

// CountAll returns active plus inactive items.
func (p *Pool[T]) CountAll() int { return len(p.inactive) + len(p.active) }

func (p *Pool[T]) op(method string) string {
	if p.cfg.Name != "" {
		return "pool." + method + "(" + p.cfg.Name + ")"
	}
	return "pool." + method
}
