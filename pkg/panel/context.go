package panel

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-drift/panelkit/pkg/binding"
	uierrors "github.com/go-drift/panelkit/pkg/errors"
	"github.com/go-drift/panelkit/pkg/events"
	"github.com/go-drift/panelkit/pkg/host"
	"github.com/go-drift/panelkit/pkg/signal"
)

var (
	// ErrElementNotFound is reported when Find cannot resolve a path.
	ErrElementNotFound = errors.New("panel: element not found")
	// ErrElementType is reported when an element has an unexpected type.
	ErrElementType = errors.New("panel: element has unexpected type")
)

// Services are the subsystems shared by every panel of a manager.
type Services struct {
	Events    *events.Bus
	Signals   *signal.Registry
	Bindings  *binding.Engine
	Resources host.ResourceProvider
	Prefs     host.KeyValueStore
	Panels    *Manager
}

// Context is handed to a panel on Initialize and stays valid for the life
// of its instance.
type Context struct {
	Name     string
	Layer    int
	Node     host.Node
	Services *Services
	// Events tracks bus listeners added by the panel. They are removed
	// every time the panel closes.
	Events *events.Scope

	ctx    context.Context
	cancel context.CancelFunc
	found  map[string]any
}

func newContext(name string, layer int, node host.Node, services *Services) *Context {
	c := &Context{
		Name:     name,
		Layer:    layer,
		Node:     node,
		Services: services,
		Events:   events.NewScope(services.Events),
		found:    make(map[string]any),
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c
}

// Context returns a context that is cancelled whenever the panel closes.
func (c *Context) Context() context.Context { return c.ctx }

// Find resolves path below the panel node. Results are cached for the
// life of the instance.
func (c *Context) Find(path string) (any, bool) {
	if v, ok := c.found[path]; ok {
		return v, true
	}
	v, ok := c.Node.Find(path)
	if !ok {
		return nil, false
	}
	c.found[path] = v
	return v, true
}

// Find resolves path as a T. A missing element or one of another type is
// reported as a configuration error and yields the zero T.
func Find[T any](c *Context, path string) (T, bool) {
	var zero T
	v, ok := c.Find(path)
	if !ok {
		c.report("Find", uierrors.KindConfiguration, fmt.Errorf("%w: %q", ErrElementNotFound, path))
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		c.report("Find", uierrors.KindConfiguration, fmt.Errorf("%w: %q is %T, want %T", ErrElementType, path, v, zero))
		return zero, false
	}
	return t, true
}

// Resolver adapts the context to binding.Resolver, sharing its lookup
// cache.
func (c *Context) Resolver() binding.Resolver { return resolver{c} }

type resolver struct{ c *Context }

func (r resolver) Find(path string) (any, bool) { return r.c.Find(path) }

// LoadAsync loads an asset through the resource provider. The completion
// is dropped if the panel closes before it arrives.
func (c *Context) LoadAsync(kind, path string, done func(asset any, err error)) {
	res := c.Services.Resources
	if res == nil || done == nil {
		return
	}
	ctx := c.ctx
	res.LoadAsync(ctx, kind, path, func(asset any, err error) {
		if ctx.Err() != nil {
			return
		}
		done(asset, err)
	})
}

// Emit triggers a zero-argument signal.
func (c *Context) Emit(name string) {
	if c.Services.Signals == nil {
		return
	}
	if s, err := signal.Get(c.Services.Signals, name); err == nil {
		s.Emit()
	}
}

// Send triggers an event on the bus.
func (c *Context) Send(event string, data any) {
	c.Events.Send(event, data)
}

// activate gives a closed instance a fresh live context.
func (c *Context) activate() {
	if c.ctx.Err() == nil {
		return
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
}

// deactivate cancels pending loads and drops bus listeners.
func (c *Context) deactivate() {
	c.cancel()
	c.Events.RemoveAll()
}

func (c *Context) release() {
	c.deactivate()
	clear(c.found)
}

func (c *Context) report(method string, kind uierrors.ErrorKind, err error) {
	uierrors.Report(&uierrors.UIError{Op: "panel." + method, Kind: kind, Panel: c.Name, Err: err})
}
