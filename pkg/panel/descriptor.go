package panel

import (
	"errors"
	"fmt"

	"github.com/go-drift/panelkit/pkg/config"
)

// ErrInvalidDescriptor is returned by NewRegistry for bad descriptors.
var ErrInvalidDescriptor = errors.New("panel: invalid descriptor")

// Descriptor is the static configuration of one panel.
type Descriptor struct {
	Name     string
	Template string
	// Layer indexes the manager's layer roots.
	Layer        int
	CacheOnClose bool
	ShowMask     bool
}

// Registry holds the descriptors known to a manager. It does not change
// after construction.
type Registry struct {
	layers []string
	byName map[string]Descriptor
	order  []string
}

// NewRegistry validates descs against layers and returns a registry.
func NewRegistry(layers []string, descs ...Descriptor) (*Registry, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("%w: no layers", ErrInvalidDescriptor)
	}
	r := &Registry{
		layers: append([]string(nil), layers...),
		byName: make(map[string]Descriptor, len(descs)),
	}
	for _, d := range descs {
		if d.Name == "" {
			return nil, fmt.Errorf("%w: empty name", ErrInvalidDescriptor)
		}
		if _, dup := r.byName[d.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate %q", ErrInvalidDescriptor, d.Name)
		}
		if d.Layer < 0 || d.Layer >= len(layers) {
			return nil, fmt.Errorf("%w: %q has layer %d, want 0..%d", ErrInvalidDescriptor, d.Name, d.Layer, len(layers)-1)
		}
		if d.Template == "" {
			return nil, fmt.Errorf("%w: %q has no template", ErrInvalidDescriptor, d.Name)
		}
		r.byName[d.Name] = d
		r.order = append(r.order, d.Name)
	}
	return r, nil
}

// FromConfig builds a registry from a resolved ui.yaml.
func FromConfig(cfg *config.Resolved) (*Registry, error) {
	descs := make([]Descriptor, len(cfg.Panels))
	for i, p := range cfg.Panels {
		descs[i] = Descriptor{
			Name:         p.Name,
			Template:     p.Template,
			Layer:        p.Layer,
			CacheOnClose: p.Cache,
			ShowMask:     p.Mask,
		}
	}
	return NewRegistry(cfg.Layers, descs...)
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Names returns descriptor names in declaration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Descriptors returns every descriptor in declaration order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(r.order))
	for i, name := range r.order {
		out[i] = r.byName[name]
	}
	return out
}

// Layers returns the layer names, lowest first.
func (r *Registry) Layers() []string {
	return append([]string(nil), r.layers...)
}

// LayerName returns the name of layer i.
func (r *Registry) LayerName(i int) string {
	if i < 0 || i >= len(r.layers) {
		return ""
	}
	return r.layers[i]
}

// Len returns the number of descriptors.
func (r *Registry) Len() int { return len(r.order) }
