package signal

import (
	"errors"
	"fmt"

	"github.com/dd0wney/episignal/pkg/graph"
)

// Sentinel errors. Precondition violations abort a run before it
// corrupts state; invariant violations mean internal state has already
// desynchronised and are never recovered from.
var (
	// ErrEmptySignal is returned when bounds are requested of a signal
	// with no values at any time
	ErrEmptySignal = errors.New("empty signal")

	// ErrTripleLengths is returned when update-triple slices differ in length
	ErrTripleLengths = errors.New("update triple slices differ in length")

	// ErrEventOrder is returned when an event stream is not
	// non-decreasing in time
	ErrEventOrder = errors.New("events out of time order")

	// ErrFirstEventNotInfection is returned when a stream does not
	// begin with a seeding infection
	ErrFirstEventNotInfection = errors.New("first event is not an infection")

	// ErrWrongCompartment is returned when an event references a node
	// that is not in the expected source compartment
	ErrWrongCompartment = errors.New("node not in expected source compartment")

	// ErrInitialRemoved is returned when the initial network contains
	// removed nodes
	ErrInitialRemoved = errors.New("initial network contains removed nodes")

	// ErrDistanceShrank is returned when a recomputed distance is
	// smaller than the recorded one after losing a source: the
	// boundary index has desynchronised from the true shortest-path
	// structure
	ErrDistanceShrank = errors.New("distance shrank after source removal")
)

// EventError wraps a failure while processing one event with enough
// context to locate it in the stream.
type EventError struct {
	Op    string      // handler operation, e.g. "infect", "remove"
	Type  EventType   // event type being processed
	Node  graph.Node  // node the event references
	Time  float64     // simulation time of the event
	Cause error       // underlying error
}

// Error implements the error interface
func (e *EventError) Error() string {
	return fmt.Sprintf("%s %s node %d at t=%v: %v", e.Op, e.Type, e.Node, e.Time, e.Cause)
}

// Unwrap returns the underlying cause for error chain support
func (e *EventError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's cause
func (e *EventError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// IsPrecondition reports whether err is a precondition violation (bad
// input) rather than an internal invariant failure.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrEventOrder) ||
		errors.Is(err, ErrFirstEventNotInfection) ||
		errors.Is(err, ErrWrongCompartment) ||
		errors.Is(err, ErrInitialRemoved)
}

// IsInvariant reports whether err signals corrupted internal state.
func IsInvariant(err error) bool {
	return errors.Is(err, ErrDistanceShrank)
}
