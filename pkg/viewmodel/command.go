package viewmodel

import (
	"errors"

	uierrors "github.com/go-drift/panelkit/pkg/errors"
)

// ErrNilExecute is reported when a RelayCommand is built without an action.
var ErrNilExecute = errors.New("viewmodel: command has no execute function")

// Command is an action a view can trigger, such as a button press.
type Command interface {
	CanExecute() bool
	Execute(param any)
}

// RelayCommand is a Command backed by functions.
type RelayCommand struct {
	execute    func(param any)
	canExecute func() bool
}

// NewRelayCommand returns a command that runs execute. canExecute may be
// nil, in which case the command is always executable.
func NewRelayCommand(execute func(param any), canExecute func() bool) *RelayCommand {
	if execute == nil {
		uierrors.Report(&uierrors.UIError{Op: "viewmodel.NewRelayCommand", Kind: uierrors.KindConfiguration, Err: ErrNilExecute})
	}
	return &RelayCommand{execute: execute, canExecute: canExecute}
}

// CanExecute reports whether Execute would run the action.
func (c *RelayCommand) CanExecute() bool {
	if c.execute == nil {
		return false
	}
	return c.canExecute == nil || c.canExecute()
}

// Execute runs the action if CanExecute allows it.
func (c *RelayCommand) Execute(param any) {
	if c.CanExecute() {
		c.execute(param)
	}
}

// Execute runs cmd with param when cmd is non-nil and executable, and
// reports whether it ran.
func Execute(cmd Command, param any) bool {
	if cmd == nil || !cmd.CanExecute() {
		return false
	}
	cmd.Execute(param)
	return true
}
