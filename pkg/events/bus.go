// Package events provides a named, synchronous event bus.
//
// Listeners are kept per event name in registration order and deduplicated
// by identity. Dispatch is reentrancy-safe: Trigger walks a snapshot of
// the listener list, listeners added during a dispatch are not called by
// it, and removals requested during a dispatch are queued and applied once
// the outermost dispatch returns.
package events

import (
	"errors"
	"reflect"
	"slices"

	uierrors "github.com/go-drift/panelkit/pkg/errors"
)

var (
	// ErrEmptyName is returned for an empty event name.
	ErrEmptyName = errors.New("events: event name is empty")
	// ErrNilListener is returned for a nil listener.
	ErrNilListener = errors.New("events: listener is nil")
	// ErrNoIdentity is returned for listeners whose dynamic type cannot be
	// compared, such as a bare func value. Wrap functions with Func.
	ErrNoIdentity = errors.New("events: listener has no comparable identity")
)

// Listener receives event payloads.
type Listener interface {
	HandleEvent(data any)
}

// FuncListener gives a function a stable identity.
type FuncListener struct {
	fn func(any)
}

// Func wraps fn in a listener. Keep the returned pointer to remove it later.
func Func(fn func(data any)) *FuncListener {
	return &FuncListener{fn: fn}
}

// HandleEvent calls the wrapped function.
func (l *FuncListener) HandleEvent(data any) {
	if l.fn != nil {
		l.fn(data)
	}
}

type pendingRemoval struct {
	name     string
	listener Listener
}

// Bus maps event names to ordered listener lists.
type Bus struct {
	listeners   map[string][]Listener
	dispatching int
	pending     []pendingRemoval
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{listeners: make(map[string][]Listener)}
}

// AddListener appends l to the listeners of name unless it is already there.
func (b *Bus) AddListener(name string, l Listener) error {
	if err := validate("events.AddListener", name, l); err != nil {
		return err
	}
	if b.listeners == nil {
		b.listeners = make(map[string][]Listener)
	}
	list := b.listeners[name]
	if slices.Contains(list, l) {
		return nil
	}
	b.listeners[name] = append(list, l)
	return nil
}

// RemoveListener detaches l from name. During a dispatch the removal is
// deferred until the dispatch completes.
func (b *Bus) RemoveListener(name string, l Listener) {
	if name == "" || l == nil || !hasIdentity(l) {
		return
	}
	if b.dispatching > 0 {
		b.pending = append(b.pending, pendingRemoval{name: name, listener: l})
		return
	}
	b.removeNow(name, l)
}

// Trigger delivers data to every listener of name, in registration order.
// A panicking listener is reported and the remaining listeners still run.
// Triggering a name with no listeners does nothing.
func (b *Bus) Trigger(name string, data any) {
	if name == "" {
		uierrors.Report(&uierrors.UIError{Op: "events.Trigger", Kind: uierrors.KindConfiguration, Err: ErrEmptyName})
		return
	}
	list := b.listeners[name]
	if len(list) == 0 {
		return
	}

	snapshot := slices.Clone(list)
	op := "events.Trigger(" + name + ")"

	b.dispatching++
	for _, l := range snapshot {
		uierrors.Call(op, func() { l.HandleEvent(data) })
	}
	b.dispatching--

	if b.dispatching == 0 {
		b.flushPending()
	}
}

// ListenerCount returns the number of listeners registered for name.
func (b *Bus) ListenerCount(name string) int {
	return len(b.listeners[name])
}

// HasListeners reports whether name has any listener.
func (b *Bus) HasListeners(name string) bool {
	return len(b.listeners[name]) > 0
}

// Dispatching reports whether a Trigger is in progress.
func (b *Bus) Dispatching() bool { return b.dispatching > 0 }

// ClearAll drops every listener and pending removal. Called from a
// listener, it leaves the dispatch depth alone so the enclosing Trigger
// still unwinds it.
func (b *Bus) ClearAll() {
	b.listeners = make(map[string][]Listener)
	b.pending = nil
}

func (b *Bus) flushPending() {
	if len(b.pending) == 0 {
		return
	}
	pending := b.pending
	b.pending = nil
	for _, p := range pending {
		b.removeNow(p.name, p.listener)
	}
}

func (b *Bus) removeNow(name string, l Listener) {
	list, ok := b.listeners[name]
	if !ok {
		return
	}
	if i := slices.Index(list, l); i >= 0 {
		list = slices.Delete(list, i, i+1)
	}
	if len(list) == 0 {
		delete(b.listeners, name)
		return
	}
	b.listeners[name] = list
}

func validate(op, name string, l Listener) error {
	var err error
	switch {
	case name == "":
		err = ErrEmptyName
	case l == nil:
		err = ErrNilListener
	case !hasIdentity(l):
		err = ErrNoIdentity
	}
	if err != nil {
		uierrors.Report(&uierrors.UIError{Op: op, Kind: uierrors.KindConfiguration, Err: err})
	}
	return err
}

// hasIdentity guards the == used for dedup and removal, which would panic
// on listeners backed by uncomparable types.
func hasIdentity(l Listener) bool {
	return reflect.TypeOf(l).Comparable()
}
