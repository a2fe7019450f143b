package resource

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Template is a panel layout loaded from YAML.
//
//	behavior: Login
//	nodes:
//	  - name: UsernameInput
//	    widget: input
//	  - name: Footer
//	    children:
//	      - name: LoginButton
//	        widget: button
type Template struct {
	// Path is the path the template was loaded from.
	Path string `yaml:"-"`
	// Behavior optionally names the panel type that drives the template.
	Behavior string    `yaml:"behavior,omitempty"`
	Nodes    []Element `yaml:"nodes"`
}

// Element is one node of a template.
type Element struct {
	Name     string    `yaml:"name"`
	Widget   string    `yaml:"widget,omitempty"`
	Value    any       `yaml:"value,omitempty"`
	Hidden   bool      `yaml:"hidden,omitempty"`
	Children []Element `yaml:"children,omitempty"`
}

// ParseTemplate decodes a YAML template.
func ParseTemplate(path string, data []byte) (*Template, error) {
	var t Template
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("parse template %s: %w", path, err)
	}
	if err := t.validate(); err != nil {
		return nil, fmt.Errorf("template %s: %w", path, err)
	}
	t.Path = path
	return &t, nil
}

// Count returns the number of elements in the template.
func (t *Template) Count() int {
	return countElements(t.Nodes)
}

func (t *Template) validate() error {
	return validateElements(t.Nodes, "")
}

func validateElements(elems []Element, prefix string) error {
	seen := make(map[string]bool, len(elems))
	for _, e := range elems {
		if e.Name == "" {
			return fmt.Errorf("element under %q has no name", prefix)
		}
		if seen[e.Name] {
			return fmt.Errorf("duplicate element %q", prefix+e.Name)
		}
		seen[e.Name] = true
		if err := validateElements(e.Children, prefix+e.Name+"/"); err != nil {
			return err
		}
	}
	return nil
}

func countElements(elems []Element) int {
	n := len(elems)
	for _, e := range elems {
		n += countElements(e.Children)
	}
	return n
}

// BehaviorName returns the panel type named by the template.
func (t *Template) BehaviorName() string { return t.Behavior }
