// Package host defines the boundary between panelkit and the program that
// actually draws things.
//
// The runtime never talks to a scene graph, asset loader or storage backend
// directly. It depends on the small interfaces here; pkg/headless, pkg/resource
// and pkg/prefs provide reference implementations.
package host

import "context"

// Node is a visual node in the host's scene graph.
type Node interface {
	Name() string
	SetActive(active bool)
	Active() bool
	// Find resolves a slash separated path below this node and returns the
	// widget found there.
	Find(path string) (any, bool)
	// SetAsFirstSibling moves the node behind its siblings.
	SetAsFirstSibling()
	// SetSortOrder sets the stacking order among sibling roots.
	SetSortOrder(order int)
}

// Renderer creates, parents and destroys nodes.
type Renderer interface {
	// Instantiate builds a node tree from a loaded template under parent.
	Instantiate(template any, parent Node, name string) (Node, error)
	// NewNode creates an empty node under parent. A nil parent creates a root.
	NewNode(name string, parent Node) Node
	Destroy(node Node)
}

// Asset kinds understood by resource providers.
const (
	KindTemplate = "template"
	KindSprite   = "sprite"
	KindText     = "text"
)

// ResourceProvider loads assets keyed by (kind, path) and caches them.
type ResourceProvider interface {
	Load(kind, path string) (any, error)
	// LoadAsync completes exactly once with the asset or an error. The
	// completion runs on the UI thread.
	LoadAsync(ctx context.Context, kind, path string, done func(asset any, err error))
	UnloadUnused()
}

// KeyValueStore is a small persistent settings store.
type KeyValueStore interface {
	GetString(key, def string) string
	GetInt(key string, def int) int
	SetString(key, value string)
	SetInt(key string, value int)
	Save() error
}

// Display is a widget that shows a value.
type Display interface {
	SetValue(v any)
}

// Editable is a widget whose value the user can change.
type Editable interface {
	Display
	// OnValueChanged registers fn for user edits and returns a function
	// that detaches it.
	OnValueChanged(fn func(v any)) (remove func())
}

// Activatable is a widget that can be pressed.
type Activatable interface {
	OnActivate(fn func()) (remove func())
}

// Interactable is a widget that can be enabled or disabled.
type Interactable interface {
	SetInteractable(enabled bool)
	Interactable() bool
}

// Committable is an editable widget that also reports when editing ends.
type Committable interface {
	OnValueCommitted(fn func(v any)) (remove func())
}

// Selectable is a widget with a selected index, such as a dropdown.
type Selectable interface {
	OnSelectionChanged(fn func(index int)) (remove func())
}
