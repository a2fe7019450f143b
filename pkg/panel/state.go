package panel

// State is the lifecycle state of a panel instance.
type State string

const (
	// StateUninitialized means no instance exists, or it has not finished
	// initializing.
	StateUninitialized State = "uninitialized"
	// StateOpen means the instance is shown and registered as open.
	StateOpen State = "open"
	// StateCached means the instance is hidden and waiting to be reopened.
	StateCached State = "cached"
	// StateDestroyed means the instance's node was destroyed. It cannot be
	// reopened.
	StateDestroyed State = "destroyed"
)

// Transition records one state change.
type Transition struct {
	Name string
	From State
	To   State
}
