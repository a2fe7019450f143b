// Package panel manages the lifecycle of named UI panels.
//
// A [Manager] opens panels by name from a [Registry] of descriptors,
// instantiates their templates under per-layer roots, and closes them
// either into a cache or for good. Each panel name has at most one live
// instance, which is Open or Cached:
//
//	Uninitialized --Open--> Open --Close--> Cached --Open--> Open
//	                          \                \
//	                           +--Close/Destroy-+--> Destroyed
//
// Cached instances live in a pool.Pool per descriptor. Descriptors with
// CacheOnClose use a pool that retains one instance; the others use a pool
// that retains nothing, so closing destroys.
package panel

// Panel is the behavior attached to an instantiated template.
type Panel interface {
	// Initialize runs once per instance, before the first Open.
	// Returning an error aborts the open and destroys the instance.
	Initialize(ctx *Context) error
	// Open runs every time the panel is shown.
	Open(args ...any)
	// Close runs every time the panel is hidden or destroyed.
	Close()
	// Refresh runs when Open is called on a panel that is already open.
	Refresh(args ...any)
}

// Destroyer is implemented by panels that release resources when their
// instance is destroyed.
type Destroyer interface {
	Destroy()
}

// Factory creates the behavior for a new instance.
type Factory func() Panel

// contextBinder is satisfied by types embedding Base, so the manager can
// hand them their context before Initialize runs.
type contextBinder interface {
	bindContext(ctx *Context)
}

// Base implements Panel with no-op hooks. Embed it and override what you
// need; Context is available from Initialize on.
type Base struct {
	ctx *Context
}

func (b *Base) bindContext(ctx *Context) { b.ctx = ctx }

// Context returns the instance context.
func (b *Base) Context() *Context { return b.ctx }

// Name returns the panel name, or "" before initialization.
func (b *Base) Name() string {
	if b.ctx == nil {
		return ""
	}
	return b.ctx.Name
}

// Initialize does nothing.
func (b *Base) Initialize(*Context) error { return nil }

// Open does nothing.
func (b *Base) Open(...any) {}

// Close does nothing.
func (b *Base) Close() {}

// Refresh does nothing.
func (b *Base) Refresh(...any) {}
