package binding

import (
	"errors"
	"fmt"

	uierrors "github.com/go-drift/panelkit/pkg/errors"
	"github.com/go-drift/panelkit/pkg/host"
	"github.com/go-drift/panelkit/pkg/rx"
	"github.com/go-drift/panelkit/pkg/signal"
	"github.com/go-drift/panelkit/pkg/viewmodel"
)

var (
	// ErrElementNotFound is returned when a declared element does not exist.
	ErrElementNotFound = errors.New("binding: element not found")
	// ErrMissingCapability is returned when an element cannot serve a mode.
	ErrMissingCapability = errors.New("binding: element lacks capability")
	// ErrEmptyProperty is returned for a declaration without a property or
	// signal name.
	ErrEmptyProperty = errors.New("binding: property name is empty")
	// ErrNoCommand is returned when a Command property does not hold a
	// viewmodel.Command.
	ErrNoCommand = errors.New("binding: property holds no command")
	// ErrNoSignals is returned for Signal bindings on an engine built
	// without a signal registry.
	ErrNoSignals = errors.New("binding: engine has no signal registry")
)

// Resolver finds elements by path. host.Node satisfies it.
type Resolver interface {
	Find(path string) (any, bool)
}

// Engine applies declaration lists.
type Engine struct {
	signals *signal.Registry
}

// NewEngine returns an engine that resolves Signal bindings in signals.
func NewEngine(signals *signal.Registry) *Engine {
	return &Engine{signals: signals}
}

// Set holds everything one Bind call attached.
type Set struct {
	subs     rx.Composite
	removers []func()
	bound    int
}

// Len returns the number of declarations that were bound.
func (s *Set) Len() int { return s.bound }

// Unbind detaches every store subscription and element listener.
func (s *Set) Unbind() {
	s.subs.Dispose()
	removers := s.removers
	s.removers = nil
	for i := len(removers) - 1; i >= 0; i-- {
		if removers[i] != nil {
			removers[i]()
		}
	}
	s.bound = 0
}

// Bind wires every declaration against store and the elements below root.
// A declaration that cannot be bound is reported as a configuration error
// and skipped; the rest are still bound. The returned error joins every
// skipped declaration's failure.
func (e *Engine) Bind(store *viewmodel.Store, root Resolver, decls []Declaration) (*Set, error) {
	set := &Set{}
	var errs []error
	for _, d := range decls {
		if err := e.bind(set, store, root, d); err != nil {
			err = fmt.Errorf("%s %q: %w", d.Mode, d.Element, err)
			uierrors.Report(&uierrors.UIError{
				Op:    "binding.Bind",
				Kind:  uierrors.KindConfiguration,
				Panel: store.Name,
				Err:   err,
			})
			errs = append(errs, err)
			continue
		}
		set.bound++
	}
	return set, errors.Join(errs...)
}

func (e *Engine) bind(set *Set, store *viewmodel.Store, root Resolver, d Declaration) error {
	el, ok := root.Find(d.Element)
	if !ok || el == nil {
		return ErrElementNotFound
	}

	switch d.Mode {
	case OneWay:
		display, ok := el.(host.Display)
		if !ok {
			return capability("Display")
		}
		if d.Property == "" {
			return ErrEmptyProperty
		}
		set.subs.Add(bindDisplay(store, display, d.Property))

	case TwoWay:
		editable, ok := el.(host.Editable)
		if !ok {
			return capability("Editable")
		}
		if d.Property == "" {
			return ErrEmptyProperty
		}
		var committable host.Committable
		if d.OnCommit {
			if committable, ok = el.(host.Committable); !ok {
				return capability("Committable")
			}
		}
		set.subs.Add(bindDisplay(store, editable, d.Property))
		prop := d.Property
		write := func(v any) { store.Set(prop, v) }
		if committable != nil {
			set.removers = append(set.removers, committable.OnValueCommitted(write))
		} else {
			set.removers = append(set.removers, editable.OnValueChanged(write))
		}

	case Selection:
		selectable, ok := el.(host.Selectable)
		if !ok {
			return capability("Selectable")
		}
		display, ok := el.(host.Display)
		if !ok {
			return capability("Display")
		}
		if d.Property == "" {
			return ErrEmptyProperty
		}
		prop := d.Property
		set.subs.Add(bindDisplay(store, display, prop))
		set.removers = append(set.removers, selectable.OnSelectionChanged(func(i int) {
			store.Set(prop, i)
		}))

	case Command:
		activatable, ok := el.(host.Activatable)
		if !ok {
			return capability("Activatable")
		}
		if d.Property == "" {
			return ErrEmptyProperty
		}
		var toggle host.Interactable
		if d.EnabledProperty != "" {
			if toggle, ok = el.(host.Interactable); !ok {
				return capability("Interactable")
			}
		}
		cmd, ok := store.Get(d.Property).(viewmodel.Command)
		if !ok || cmd == nil {
			return fmt.Errorf("%w: %q", ErrNoCommand, d.Property)
		}
		if toggle != nil {
			set.subs.Add(bindEnabled(store, toggle, d.EnabledProperty))
		}
		set.removers = append(set.removers, activatable.OnActivate(func() {
			viewmodel.Execute(cmd, nil)
		}))

	case Signal:
		activatable, ok := el.(host.Activatable)
		if !ok {
			return capability("Activatable")
		}
		if d.Signal == "" {
			return ErrEmptyProperty
		}
		if e.signals == nil {
			return ErrNoSignals
		}
		sig, err := signal.Get(e.signals, d.Signal)
		if err != nil {
			return err
		}
		set.removers = append(set.removers, activatable.OnActivate(sig.Emit))

	default:
		return fmt.Errorf("binding: unknown mode %d", d.Mode)
	}
	return nil
}

func bindDisplay(store *viewmodel.Store, display host.Display, property string) rx.Subscription {
	display.SetValue(store.Get(property))
	return store.Subscribe(func(name string) {
		if name == property {
			display.SetValue(store.Get(property))
		}
	})
}

func bindEnabled(store *viewmodel.Store, toggle host.Interactable, property string) rx.Subscription {
	toggle.SetInteractable(viewmodel.Get[bool](store, property))
	return store.Subscribe(func(name string) {
		if name == property {
			toggle.SetInteractable(viewmodel.Get[bool](store, property))
		}
	})
}

func capability(name string) error {
	return fmt.Errorf("%w: needs %s", ErrMissingCapability, name)
}
