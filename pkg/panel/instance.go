package panel

import "github.com/go-drift/panelkit/pkg/host"

// Instance is one live panel: its behavior, node and state.
type Instance struct {
	desc  Descriptor
	node  host.Node
	panel Panel
	ctx   *Context
	state State
}

// Name returns the panel name.
func (i *Instance) Name() string { return i.desc.Name }

// Descriptor returns the descriptor the instance was created from.
func (i *Instance) Descriptor() Descriptor { return i.desc }

// Panel returns the panel behavior.
func (i *Instance) Panel() Panel { return i.panel }

// Node returns the root node of the instance.
func (i *Instance) Node() host.Node { return i.node }

// Context returns the instance context.
func (i *Instance) Context() *Context { return i.ctx }

// State returns the instance's lifecycle state.
func (i *Instance) State() State { return i.state }
