// Package signal provides named, registry-scoped notification channels.
//
// A signal is a zero-argument ([Signal]) or one-argument ([Typed]) channel
// built on an rx.Subject. Signals live in a [Registry] keyed by name; the
// first registration of a name wins until the registry is cleared.
//
// Lookups are type-safe: asking for a name under a different payload type
// than it was registered with is reported as misuse and fails with
// [ErrTypeMismatch], leaving the registered signal untouched.
package signal

import (
	"github.com/go-drift/panelkit/pkg/rx"
)

// Unit is the payload of a zero-argument signal.
type Unit struct{}

// Signal is a zero-argument notification channel.
type Signal struct {
	name    string
	subject *rx.Subject[Unit]
}

func newSignal(name string) *Signal {
	return &Signal{name: name, subject: rx.NewSubject[Unit]("signal:" + name)}
}

// Name returns the registry key of the signal.
func (s *Signal) Name() string { return s.name }

// Emit notifies every subscriber.
func (s *Signal) Emit() { s.subject.OnNext(Unit{}) }

// Subscribe calls fn on every Emit until the subscription is disposed.
// Subscribing to a cleared signal is reported and returns rx.Nop.
func (s *Signal) Subscribe(fn func()) rx.Subscription {
	if fn == nil {
		sub, _ := s.subject.Subscribe(nil)
		return sub
	}
	sub, _ := s.subject.SubscribeFunc(func(Unit) { fn() })
	return sub
}

// Observe attaches a full observer, including completion on teardown.
func (s *Signal) Observe(o rx.Observer[Unit]) (rx.Subscription, error) {
	return s.subject.Subscribe(o)
}

// SubscriberCount returns the number of live subscriptions.
func (s *Signal) SubscriberCount() int { return s.subject.ObserverCount() }

func (s *Signal) dispose() {
	s.subject.OnCompleted()
	s.subject.Dispose()
}

// Typed is a one-argument notification channel.
type Typed[T any] struct {
	name    string
	subject *rx.Subject[T]
}

func newTyped[T any](name string) *Typed[T] {
	return &Typed[T]{name: name, subject: rx.NewSubject[T]("signal:" + name)}
}

// Name returns the registry key of the signal.
func (s *Typed[T]) Name() string { return s.name }

// Emit delivers arg to every subscriber.
func (s *Typed[T]) Emit(arg T) { s.subject.OnNext(arg) }

// Subscribe calls fn with every emitted value until disposed.
func (s *Typed[T]) Subscribe(fn func(T)) rx.Subscription {
	sub, _ := s.subject.SubscribeFunc(fn)
	return sub
}

// Observe attaches a full observer, including completion on teardown.
func (s *Typed[T]) Observe(o rx.Observer[T]) (rx.Subscription, error) {
	return s.subject.Subscribe(o)
}

// SubscriberCount returns the number of live subscriptions.
func (s *Typed[T]) SubscriberCount() int { return s.subject.ObserverCount() }

func (s *Typed[T]) dispose() {
	s.subject.OnCompleted()
	s.subject.Dispose()
}
