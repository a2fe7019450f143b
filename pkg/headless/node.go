// Package headless is an in-memory host renderer. It builds node trees
// from resource templates, gives them working widgets and lets tests and
// tools drive those widgets without a display.
package headless

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/go-drift/panelkit/pkg/host"
)

// Node is a node in the headless scene graph.
type Node struct {
	name      string
	parent    *Node
	children  []*Node
	active    bool
	sortOrder int
	widget    any
	destroyed bool
}

var _ host.Node = (*Node)(nil)

// Name returns the node name.
func (n *Node) Name() string { return n.name }

// SetActive shows or hides the node.
func (n *Node) SetActive(active bool) { n.active = active }

// Active reports whether the node itself is active.
func (n *Node) Active() bool { return n.active }

// Visible reports whether the node and all its ancestors are active.
func (n *Node) Visible() bool {
	for c := n; c != nil; c = c.parent {
		if !c.active {
			return false
		}
	}
	return true
}

// Parent returns the parent node, or nil for a root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the child nodes in sibling order.
func (n *Node) Children() []*Node { return slices.Clone(n.children) }

// Widget returns the widget attached to the node, if any.
func (n *Node) Widget() any { return n.widget }

// SortOrder returns the order set by SetSortOrder.
func (n *Node) SortOrder() int { return n.sortOrder }

// SetSortOrder sets the stacking order.
func (n *Node) SetSortOrder(order int) { n.sortOrder = order }

// Kind returns the template widget kind of n, or "" for a plain node.
func (n *Node) Kind() string {
	if n.widget == nil {
		return ""
	}
	return widgetKind(n.widget)
}

// Destroyed reports whether the renderer destroyed the node.
func (n *Node) Destroyed() bool { return n.destroyed }

// Path returns the slash separated names from the root to n.
func (n *Node) Path() string {
	var parts []string
	for c := n; c != nil; c = c.parent {
		parts = append(parts, c.name)
	}
	slices.Reverse(parts)
	return strings.Join(parts, "/")
}

// SetAsFirstSibling moves the node to the front of its parent's children,
// which draws it behind its siblings.
func (n *Node) SetAsFirstSibling() {
	p := n.parent
	if p == nil {
		return
	}
	if i := slices.Index(p.children, n); i > 0 {
		p.children = slices.Delete(p.children, i, i+1)
		p.children = slices.Insert(p.children, 0, n)
	}
}

// Child returns the direct child named name.
func (n *Node) Child(name string) *Node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// FindNode resolves a slash separated path below n.
func (n *Node) FindNode(path string) *Node {
	cur := n
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}
		if cur = cur.Child(part); cur == nil {
			return nil
		}
	}
	return cur
}

// Find resolves path and returns the widget there, or the node itself when
// it has no widget.
func (n *Node) Find(path string) (any, bool) {
	found := n.FindNode(path)
	if found == nil {
		return nil, false
	}
	if found.widget != nil {
		return found.widget, true
	}
	return found, true
}

func (n *Node) attach(child *Node) {
	child.parent = n
	n.children = append(n.children, child)
}

func (n *Node) detach() {
	if p := n.parent; p != nil {
		if i := slices.Index(p.children, n); i >= 0 {
			p.children = slices.Delete(p.children, i, i+1)
		}
		n.parent = nil
	}
}

// Dump writes an indented outline of the tree rooted at n.
func (n *Node) Dump(w io.Writer) {
	n.dump(w, 0)
}

func (n *Node) dump(w io.Writer, depth int) {
	state := ""
	if !n.active {
		state = " (inactive)"
	}
	kind := ""
	if n.widget != nil {
		kind = fmt.Sprintf(" [%s]", widgetKind(n.widget))
	}
	fmt.Fprintf(w, "%s%s%s%s\n", strings.Repeat("  ", depth), n.name, kind, state)
	for _, c := range n.children {
		c.dump(w, depth+1)
	}
}
