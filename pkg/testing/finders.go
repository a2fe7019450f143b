package testing

import (
	"fmt"
	"strings"

	"github.com/go-drift/panelkit/pkg/headless"
)

// Finder locates nodes in the headless tree.
type Finder interface {
	// Evaluate returns all matching nodes under root (depth-first pre-order).
	Evaluate(root *headless.Node) []*headless.Node
	// Description returns a human-readable description for error messages.
	Description() string
}

// FinderResult wraps finder results with convenient accessors.
type FinderResult struct {
	nodes  []*headless.Node
	finder Finder
}

// First returns the first match. Panics if no matches.
func (r FinderResult) First() *headless.Node {
	if len(r.nodes) == 0 {
		panic(fmt.Sprintf("Finder found no nodes: %s", r.describe()))
	}
	return r.nodes[0]
}

// FirstOrNil returns the first match, or nil if none.
func (r FinderResult) FirstOrNil() *headless.Node {
	if len(r.nodes) == 0 {
		return nil
	}
	return r.nodes[0]
}

// At returns the match at index. Panics if out of range.
func (r FinderResult) At(index int) *headless.Node {
	if index < 0 || index >= len(r.nodes) {
		panic(fmt.Sprintf("Finder index %d out of range (found %d): %s", index, len(r.nodes), r.describe()))
	}
	return r.nodes[index]
}

// All returns all matches in traversal order.
func (r FinderResult) All() []*headless.Node {
	return r.nodes
}

// Count returns the number of matches.
func (r FinderResult) Count() int {
	return len(r.nodes)
}

// Exists returns true if at least one match was found.
func (r FinderResult) Exists() bool {
	return len(r.nodes) > 0
}

// Widget returns the widget of the first match. Panics if no matches.
func (r FinderResult) Widget() any {
	return r.First().Widget()
}

func (r FinderResult) describe() string {
	if r.finder == nil {
		return "unknown"
	}
	return r.finder.Description()
}

type nameFinder struct {
	name string
}

func (f *nameFinder) Evaluate(root *headless.Node) []*headless.Node {
	return collectMatches(root, func(n *headless.Node) bool { return n.Name() == f.name })
}

func (f *nameFinder) Description() string {
	return fmt.Sprintf("ByName(%q)", f.name)
}

// ByName finds nodes with the given name.
func ByName(name string) Finder {
	return &nameFinder{name: name}
}

type pathFinder struct {
	path string
}

func (f *pathFinder) Evaluate(root *headless.Node) []*headless.Node {
	var out []*headless.Node
	walkTree(root, func(n *headless.Node) bool {
		if p := n.Path(); p == f.path || strings.HasSuffix(p, "/"+f.path) {
			out = append(out, n)
		}
		return true
	})
	return out
}

func (f *pathFinder) Description() string {
	return fmt.Sprintf("ByPath(%q)", f.path)
}

// ByPath finds nodes whose slash-separated path ends with path, such as
// "Login/Form/UsernameInput" or "Form/UsernameInput".
func ByPath(path string) Finder {
	return &pathFinder{path: strings.Trim(path, "/")}
}

type widgetFinder[T any] struct{}

func (f *widgetFinder[T]) Evaluate(root *headless.Node) []*headless.Node {
	return collectMatches(root, func(n *headless.Node) bool {
		_, ok := n.Widget().(T)
		return ok
	})
}

func (f *widgetFinder[T]) Description() string {
	var zero T
	return fmt.Sprintf("ByWidget[%T]", zero)
}

// ByWidget finds nodes whose widget is a T, such as *headless.Button.
func ByWidget[T any]() Finder {
	return &widgetFinder[T]{}
}

type textFinder struct {
	text string
}

func (f *textFinder) Evaluate(root *headless.Node) []*headless.Node {
	return collectMatches(root, func(n *headless.Node) bool {
		text, ok := textOf(n.Widget())
		return ok && text == f.text
	})
}

func (f *textFinder) Description() string {
	return fmt.Sprintf("ByText(%q)", f.text)
}

// ByText finds text widgets, inputs and buttons showing exactly text.
func ByText(text string) Finder {
	return &textFinder{text: text}
}

type textContainingFinder struct {
	substring string
}

func (f *textContainingFinder) Evaluate(root *headless.Node) []*headless.Node {
	return collectMatches(root, func(n *headless.Node) bool {
		text, ok := textOf(n.Widget())
		return ok && strings.Contains(text, f.substring)
	})
}

func (f *textContainingFinder) Description() string {
	return fmt.Sprintf("ByTextContaining(%q)", f.substring)
}

// ByTextContaining finds widgets whose text contains substring.
func ByTextContaining(substring string) Finder {
	return &textContainingFinder{substring: substring}
}

type predicateFinder struct {
	fn   func(*headless.Node) bool
	desc string
}

func (f *predicateFinder) Evaluate(root *headless.Node) []*headless.Node {
	return collectMatches(root, f.fn)
}

func (f *predicateFinder) Description() string {
	return f.desc
}

// ByPredicate finds nodes matching fn.
func ByPredicate(fn func(*headless.Node) bool) Finder {
	return &predicateFinder{fn: fn, desc: "ByPredicate"}
}

type visibleFinder struct {
	inner Finder
}

func (f *visibleFinder) Evaluate(root *headless.Node) []*headless.Node {
	var out []*headless.Node
	for _, n := range f.inner.Evaluate(root) {
		if n.Visible() {
			out = append(out, n)
		}
	}
	return out
}

func (f *visibleFinder) Description() string {
	return "Visible(" + f.inner.Description() + ")"
}

// Visible narrows finder to nodes whose whole ancestor chain is active.
func Visible(finder Finder) Finder {
	return &visibleFinder{inner: finder}
}

type descendantFinder struct {
	of       Finder
	matching Finder
}

func (f *descendantFinder) Evaluate(root *headless.Node) []*headless.Node {
	seen := make(map[*headless.Node]bool)
	var out []*headless.Node
	for _, ancestor := range f.of.Evaluate(root) {
		for _, child := range ancestor.Children() {
			for _, n := range f.matching.Evaluate(child) {
				if !seen[n] {
					seen[n] = true
					out = append(out, n)
				}
			}
		}
	}
	return out
}

func (f *descendantFinder) Description() string {
	return fmt.Sprintf("Descendant(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Descendant finds nodes matching matching below a node matching of.
func Descendant(of, matching Finder) Finder {
	return &descendantFinder{of: of, matching: matching}
}

func textOf(w any) (string, bool) {
	switch w := w.(type) {
	case *headless.Text:
		return w.Value(), true
	case *headless.Input:
		return w.Value(), true
	case *headless.Button:
		return w.Label(), true
	default:
		return "", false
	}
}

func collectMatches(root *headless.Node, predicate func(*headless.Node) bool) []*headless.Node {
	var out []*headless.Node
	walkTree(root, func(n *headless.Node) bool {
		if predicate(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// walkTree visits root and its descendants in pre-order until visitor
// returns false.
func walkTree(root *headless.Node, visitor func(*headless.Node) bool) bool {
	if root == nil {
		return true
	}
	if !visitor(root) {
		return false
	}
	for _, c := range root.Children() {
		if !walkTree(c, visitor) {
			return false
		}
	}
	return true
}
