package headless

import (
	"errors"
	"fmt"

	"github.com/go-drift/panelkit/pkg/host"
	"github.com/go-drift/panelkit/pkg/resource"
)

var (
	// ErrUnsupportedTemplate is returned for templates that are not
	// resource templates.
	ErrUnsupportedTemplate = errors.New("headless: unsupported template")
	// ErrForeignNode is returned for parents created by another renderer.
	ErrForeignNode = errors.New("headless: node does not belong to this renderer")
)

// Renderer creates headless nodes.
type Renderer struct {
	roots     []*Node
	live      int
	created   int
	destroyed int
}

var _ host.Renderer = (*Renderer)(nil)

// NewRenderer returns an empty renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// NewNode creates an active, empty node under parent, or a root when parent
// is nil.
func (r *Renderer) NewNode(name string, parent host.Node) host.Node {
	return r.newNode(name, asNode(parent))
}

// Instantiate builds the tree described by template under parent. The
// template may be a *resource.Template or a resource.Template.
func (r *Renderer) Instantiate(template any, parent host.Node, name string) (host.Node, error) {
	var t *resource.Template
	switch v := template.(type) {
	case *resource.Template:
		t = v
	case resource.Template:
		t = &v
	}
	if t == nil {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedTemplate, template)
	}
	p := asNode(parent)
	if parent != nil && p == nil {
		return nil, fmt.Errorf("%w: %T", ErrForeignNode, parent)
	}

	root := &Node{name: name, active: true}
	if err := r.build(root, t.Nodes); err != nil {
		return nil, err
	}
	r.adopt(root, p)
	return root, nil
}

// Destroy detaches node and everything below it.
func (r *Renderer) Destroy(node host.Node) {
	n := asNode(node)
	if n == nil || n.destroyed {
		return
	}
	if n.parent == nil {
		for i, root := range r.roots {
			if root == n {
				r.roots = append(r.roots[:i], r.roots[i+1:]...)
				break
			}
		}
	}
	n.detach()
	r.markDestroyed(n)
}

// Roots returns the root nodes in creation order.
func (r *Renderer) Roots() []*Node {
	return append([]*Node(nil), r.roots...)
}

// Live returns the number of nodes created and not yet destroyed.
func (r *Renderer) Live() int { return r.live }

// Created returns the number of nodes ever created.
func (r *Renderer) Created() int { return r.created }

// Destroyed returns the number of nodes destroyed.
func (r *Renderer) Destroyed() int { return r.destroyed }

func (r *Renderer) newNode(name string, parent *Node) *Node {
	n := &Node{name: name, active: true}
	r.adopt(n, parent)
	return n
}

func (r *Renderer) adopt(n, parent *Node) {
	count := countNodes(n)
	r.created += count
	r.live += count
	if parent == nil {
		r.roots = append(r.roots, n)
		return
	}
	parent.attach(n)
}

func (r *Renderer) build(parent *Node, elems []resource.Element) error {
	for _, e := range elems {
		w, err := newWidget(e.Widget)
		if err != nil {
			return fmt.Errorf("%s/%s: %w", parent.Path(), e.Name, err)
		}
		if d, ok := w.(host.Display); ok && e.Value != nil {
			d.SetValue(e.Value)
		}
		child := &Node{name: e.Name, active: !e.Hidden, widget: w}
		parent.attach(child)
		if err := r.build(child, e.Children); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) markDestroyed(n *Node) {
	n.destroyed = true
	r.live--
	r.destroyed++
	for _, c := range n.children {
		r.markDestroyed(c)
	}
}

func countNodes(n *Node) int {
	count := 1
	for _, c := range n.children {
		count += countNodes(c)
	}
	return count
}

func asNode(n host.Node) *Node {
	if n == nil {
		return nil
	}
	hn, _ := n.(*Node)
	return hn
}
