// Package rx provides minimal push-based observable primitives.
//
// A [Subject] is both ends of a channel: producers call OnNext, OnError and
// OnCompleted, consumers Subscribe an [Observer]. Delivery is synchronous
// and in subscription order. Broadcast walks a snapshot of the observer
// list, so observers may subscribe or dispose subscriptions from inside a
// callback; a subscription disposed mid-broadcast receives nothing further.
package rx

import "errors"

var (
	// ErrDisposed is returned when subscribing to a disposed subject.
	ErrDisposed = errors.New("rx: subject is disposed")
	// ErrNilObserver is returned when subscribing a nil observer.
	ErrNilObserver = errors.New("rx: observer is nil")
)

// Observer receives notifications from an observable.
type Observer[T any] interface {
	OnNext(value T)
	OnError(err error)
	OnCompleted()
}

// Observable is a source that observers can subscribe to.
type Observable[T any] interface {
	Subscribe(observer Observer[T]) (Subscription, error)
}

// Subscription cancels delivery to one observer.
type Subscription interface {
	Dispose()
}

// Funcs adapts plain functions to an Observer. Nil fields are ignored.
type Funcs[T any] struct {
	Next      func(T)
	Error     func(error)
	Completed func()
}

// OnNext calls f.Next.
func (f Funcs[T]) OnNext(value T) {
	if f.Next != nil {
		f.Next(value)
	}
}

// OnError calls f.Error.
func (f Funcs[T]) OnError(err error) {
	if f.Error != nil {
		f.Error(err)
	}
}

// OnCompleted calls f.Completed.
func (f Funcs[T]) OnCompleted() {
	if f.Completed != nil {
		f.Completed()
	}
}

// Nop is a subscription whose Dispose does nothing. It is handed out when
// subscribing to a subject that has already terminated.
var Nop Subscription = nopSubscription{}

type nopSubscription struct{}

func (nopSubscription) Dispose() {}

// Composite disposes a group of subscriptions together.
type Composite struct {
	subs []Subscription
}

// Add tracks sub. Nil subscriptions are ignored.
func (c *Composite) Add(sub Subscription) {
	if sub != nil {
		c.subs = append(c.subs, sub)
	}
}

// Dispose disposes every tracked subscription in reverse order.
func (c *Composite) Dispose() {
	subs := c.subs
	c.subs = nil
	for i := len(subs) - 1; i >= 0; i-- {
		subs[i].Dispose()
	}
}

// Len returns the number of tracked subscriptions.
func (c *Composite) Len() int { return len(c.subs) }
