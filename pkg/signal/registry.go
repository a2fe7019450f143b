package signal

import (
	"errors"
	"fmt"
	"sort"

	uierrors "github.com/go-drift/panelkit/pkg/errors"
)

var (
	// ErrTypeMismatch is returned when a name is looked up with a payload
	// type other than the one it was registered with.
	ErrTypeMismatch = errors.New("signal: name registered with a different payload type")
	// ErrEmptyName is returned for lookups with an empty name.
	ErrEmptyName = errors.New("signal: name is empty")
)

type entry interface {
	Name() string
	dispose()
}

// Registry maps names to signals. It replaces a process-wide singleton:
// the application owns one and hands it to panels.
type Registry struct {
	signals map[string]entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{signals: make(map[string]entry)}
}

// Get returns the zero-argument signal registered under name, creating it
// on first use.
func Get(r *Registry, name string) (*Signal, error) {
	return lookup(r, name, newSignal)
}

// GetTyped returns the one-argument signal registered under name, creating
// it on first use.
func GetTyped[T any](r *Registry, name string) (*Typed[T], error) {
	return lookup(r, name, newTyped[T])
}

func lookup[S entry](r *Registry, name string, create func(string) S) (S, error) {
	var zero S
	if name == "" {
		uierrors.Report(&uierrors.UIError{Op: "signal.Get", Kind: uierrors.KindConfiguration, Err: ErrEmptyName})
		return zero, ErrEmptyName
	}
	if r.signals == nil {
		r.signals = make(map[string]entry)
	}
	if existing, ok := r.signals[name]; ok {
		s, ok := existing.(S)
		if !ok {
			err := fmt.Errorf("%w: %q is %T, requested %T", ErrTypeMismatch, name, existing, zero)
			uierrors.Report(&uierrors.UIError{Op: "signal.Get(" + name + ")", Kind: uierrors.KindMisuse, Err: err})
			return zero, err
		}
		return s, nil
	}
	s := create(name)
	r.signals[name] = s
	return s, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.signals[name]
	return ok
}

// Len returns the number of registered signals.
func (r *Registry) Len() int { return len(r.signals) }

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.signals))
	for name := range r.signals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ClearAll completes and disposes every signal, then empties the registry.
// Later lookups create fresh instances.
func (r *Registry) ClearAll() {
	signals := r.signals
	r.signals = make(map[string]entry)
	for _, s := range signals {
		s.dispose()
	}
}
