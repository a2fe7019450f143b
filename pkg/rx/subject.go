package rx

import (
	"errors"
	"slices"

	uierrors "github.com/go-drift/panelkit/pkg/errors"
)

// errNilTerminal replaces a nil error passed to OnError.
var errNilTerminal = errors.New("rx: OnError called with nil error")

// Subject is a publish sink and a subscribable source at once.
// The zero value is ready to use.
type Subject[T any] struct {
	// Name labels the subject in error reports.
	Name string

	observers []*subscription[T]
	disposed  bool
	completed bool
	err       error
}

// NewSubject returns a subject labelled name.
func NewSubject[T any](name string) *Subject[T] {
	return &Subject[T]{Name: name}
}

type subscription[T any] struct {
	subject  *Subject[T]
	observer Observer[T]
	disposed bool
}

func (s *subscription[T]) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.subject.remove(s)
}

// Subscribe attaches observer. If the subject has already completed or
// failed, the observer immediately receives that terminal notification and
// a no-op subscription is returned.
func (s *Subject[T]) Subscribe(observer Observer[T]) (Subscription, error) {
	if observer == nil {
		uierrors.Report(&uierrors.UIError{Op: s.op("Subscribe"), Kind: uierrors.KindConfiguration, Err: ErrNilObserver})
		return Nop, ErrNilObserver
	}
	if s.disposed {
		uierrors.Report(&uierrors.UIError{Op: s.op("Subscribe"), Kind: uierrors.KindMisuse, Err: ErrDisposed})
		return Nop, ErrDisposed
	}
	if s.completed {
		uierrors.Call(s.op("OnCompleted"), observer.OnCompleted)
		return Nop, nil
	}
	if s.err != nil {
		err := s.err
		uierrors.Call(s.op("OnError"), func() { observer.OnError(err) })
		return Nop, nil
	}

	sub := &subscription[T]{subject: s, observer: observer}
	s.observers = append(s.observers, sub)
	return sub, nil
}

// SubscribeFunc subscribes a function that only receives values.
func (s *Subject[T]) SubscribeFunc(next func(T)) (Subscription, error) {
	if next == nil {
		return s.Subscribe(nil)
	}
	return s.Subscribe(Funcs[T]{Next: next})
}

// OnNext delivers value to every current observer in subscription order.
// It is a no-op once the subject is disposed or terminated.
func (s *Subject[T]) OnNext(value T) {
	if s.disposed || s.completed || s.err != nil {
		return
	}
	s.broadcast("OnNext", func(o Observer[T]) { o.OnNext(value) })
}

// OnError moves the subject into the error state and notifies observers.
// Only the first terminal call has any effect.
func (s *Subject[T]) OnError(err error) {
	if s.disposed || s.completed || s.err != nil {
		return
	}
	if err == nil {
		err = errNilTerminal
	}
	s.err = err
	s.broadcast("OnError", func(o Observer[T]) { o.OnError(err) })
}

// OnCompleted moves the subject into the completed state and notifies
// observers. Only the first terminal call has any effect.
func (s *Subject[T]) OnCompleted() {
	if s.disposed || s.completed || s.err != nil {
		return
	}
	s.completed = true
	s.broadcast("OnCompleted", func(o Observer[T]) { o.OnCompleted() })
}

// Dispose drops every observer and marks the subject permanently unusable.
func (s *Subject[T]) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	for _, sub := range s.observers {
		sub.disposed = true
	}
	s.observers = nil
}

// IsDisposed reports whether Dispose has been called.
func (s *Subject[T]) IsDisposed() bool { return s.disposed }

// IsCompleted reports whether OnCompleted has been called.
func (s *Subject[T]) IsCompleted() bool { return s.completed }

// Err returns the terminal error, if any.
func (s *Subject[T]) Err() error { return s.err }

// ObserverCount returns the number of live subscriptions.
func (s *Subject[T]) ObserverCount() int { return len(s.observers) }

func (s *Subject[T]) broadcast(method string, deliver func(Observer[T])) {
	if len(s.observers) == 0 {
		return
	}
	op := s.op(method)
	for _, sub := range slices.Clone(s.observers) {
		if sub.disposed {
			continue
		}
		observer := sub.observer
		uierrors.Call(op, func() { deliver(observer) })
	}
}

func (s *Subject[T]) remove(sub *subscription[T]) {
	if i := slices.Index(s.observers, sub); i >= 0 {
		s.observers = slices.Delete(s.observers, i, i+1)
	}
}

func (s *Subject[T]) op(method string) string {
	if s.Name != "" {
		return "rx." + method + "(" + s.Name + ")"
	}
	return "rx." + method
}
