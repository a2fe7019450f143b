// Package viewmodel provides the property store panels bind against.
//
// A [Store] keeps named values and notifies subscribers with the property
// name whenever a value actually changes. Notification is synchronous, in
// subscription order, and walks a snapshot of the subscriber list, so a
// subscriber may unsubscribe itself or others from inside the callback.
package viewmodel

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	uierrors "github.com/go-drift/panelkit/pkg/errors"
	"github.com/go-drift/panelkit/pkg/rx"
)

var (
	// ErrEmptyName is returned for an empty property name.
	ErrEmptyName = errors.New("viewmodel: property name is empty")
	// ErrWrongType is reported when a property is read as a type it does
	// not hold.
	ErrWrongType = errors.New("viewmodel: property holds a different type")
)

// Store is a map of named properties with change notification.
// The zero value is ready to use.
type Store struct {
	// Name labels the store in error reports.
	Name string

	values   map[string]any
	changed  rx.Subject[string]
	disposed bool
}

// NewStore returns an empty store labelled name.
func NewStore(name string) *Store {
	s := &Store{Name: name, values: make(map[string]any)}
	s.changed.Name = "viewmodel:" + name
	return s
}

// Properties returns s. Types embedding *Store use it to satisfy
// interfaces that ask for their property store.
func (s *Store) Properties() *Store { return s }

// Set stores value under name and notifies subscribers. It returns false,
// and notifies no one, when value equals the current value. An absent
// property compares as the zero value of value's type.
func (s *Store) Set(name string, value any) bool {
	if !s.writable(name) {
		return false
	}
	old, ok := s.values[name]
	if !ok {
		old = zeroOf(value)
	}
	return s.store(name, old, value)
}

// Get returns the stored value, or nil if name was never set.
func (s *Store) Get(name string) any {
	return s.values[name]
}

// Lookup returns the stored value and whether name was set.
func (s *Store) Lookup(name string) (any, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Has reports whether name holds a value.
func (s *Store) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}

// Keys returns the property names in sorted order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Subscribe calls fn with the property name after every change. After
// Dispose it reports misuse and returns rx.Nop.
func (s *Store) Subscribe(fn func(name string)) rx.Subscription {
	sub, _ := s.changed.SubscribeFunc(fn)
	return sub
}

// Changes exposes the change stream as an observable.
func (s *Store) Changes() rx.Observable[string] {
	return &s.changed
}

// Notify raises a change notification for name without touching its value.
// Use it for derived properties whose inputs changed.
func (s *Store) Notify(name string) {
	if s.disposed || name == "" {
		return
	}
	s.changed.OnNext(name)
}

// SubscriberCount returns the number of live subscriptions.
func (s *Store) SubscriberCount() int { return s.changed.ObserverCount() }

// Dispose clears every value and detaches every subscriber. Later Set
// calls store nothing.
func (s *Store) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.values = nil
	s.changed.Dispose()
}

// IsDisposed reports whether Dispose has been called.
func (s *Store) IsDisposed() bool { return s.disposed }

// Get returns the property name as a T, or the zero T if it was never set.
// A stored value of another type is reported and yields the zero T.
func Get[T any](s *Store, name string) T {
	var zero T
	v, ok := s.values[name]
	if !ok || v == nil {
		return zero
	}
	t, ok := v.(T)
	if !ok {
		s.report("Get", uierrors.KindMisuse, fmt.Errorf("%w: %q is %T, requested %T", ErrWrongType, name, v, zero))
		return zero
	}
	return t
}

// Set stores value under name, comparing against the zero T when absent.
func Set[T any](s *Store, name string, value T) bool {
	if !s.writable(name) {
		return false
	}
	var old any
	if v, ok := s.values[name]; ok {
		old = v
	} else {
		var zero T
		old = zero
	}
	return s.store(name, old, value)
}

func (s *Store) writable(name string) bool {
	if name == "" {
		s.report("Set", uierrors.KindConfiguration, ErrEmptyName)
		return false
	}
	return !s.disposed
}

func (s *Store) store(name string, old, value any) bool {
	if equal(old, value) {
		return false
	}
	if s.values == nil {
		s.values = make(map[string]any)
	}
	s.values[name] = value
	s.changed.OnNext(name)
	return true
}

func (s *Store) report(method string, kind uierrors.ErrorKind, err error) {
	op := "viewmodel." + method
	if s.Name != "" {
		op += "(" + s.Name + ")"
	}
	uierrors.Report(&uierrors.UIError{Op: op, Kind: kind, Err: err})
}

func zeroOf(v any) any {
	if v == nil {
		return nil
	}
	return reflect.Zero(reflect.TypeOf(v)).Interface()
}

// equal uses == where the dynamic type allows it and falls back to
// reflect.DeepEqual for slices, maps and structs holding them.
func equal(a, b any) (eq bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if !ta.Comparable() {
		return reflect.DeepEqual(a, b)
	}
	// Comparable types can still hold uncomparable values behind
	// interface fields.
	defer func() {
		if recover() != nil {
			eq = reflect.DeepEqual(a, b)
		}
	}()
	return a == b
}
