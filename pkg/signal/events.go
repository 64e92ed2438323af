package signal

import "github.com/dd0wney/episignal/pkg/graph"

// EventType identifies a kind of epidemic event
type EventType string

const (
	// EventInfected marks a node transitioning susceptible -> infected.
	// The event carries the SI edge the infection passed over.
	EventInfected EventType = "INFECTED"
	// EventRemoved marks a node transitioning infected -> removed
	EventRemoved EventType = "REMOVED"
)

// Event is one element of the ordered stream an epidemic process emits.
// For infections Node is the newly infected node and From the far end of
// the SI edge (zero when the infection is a seeding with no infector).
// For removals only Node is meaningful.
type Event struct {
	Time float64    `json:"time"`
	Type EventType  `json:"type"`
	Node graph.Node `json:"node"`
	From graph.Node `json:"from,omitempty"`
}

// Compartment labels a node's disease state
type Compartment string

const (
	// Susceptible nodes have not yet been infected
	Susceptible Compartment = "S"
	// Infected nodes are currently infectious
	Infected Compartment = "I"
	// Removed nodes have left the infectious state and cannot return
	Removed Compartment = "R"
)

// CompartmentFunc reports the initial compartment of a node. It is
// consulted during generator setup only; afterwards generators track
// compartments themselves from the event stream.
type CompartmentFunc func(n graph.Node) Compartment

// AllSusceptible is the initial state of a network seeded purely by
// infection events
func AllSusceptible(graph.Node) Compartment {
	return Susceptible
}

// SeededInfected returns a CompartmentFunc where the given nodes start
// infected and everything else susceptible
func SeededInfected(seeds ...graph.Node) CompartmentFunc {
	set := make(map[graph.Node]struct{}, len(seeds))
	for _, n := range seeds {
		set[n] = struct{}{}
	}
	return func(n graph.Node) Compartment {
		if _, ok := set[n]; ok {
			return Infected
		}
		return Susceptible
	}
}

// ValidateStream checks the structural preconditions of an event
// stream: non-decreasing times and a seeding infection first.
func ValidateStream(events []Event) error {
	if len(events) == 0 {
		return nil
	}
	if events[0].Type != EventInfected {
		return &EventError{
			Op:    "validate",
			Type:  events[0].Type,
			Node:  events[0].Node,
			Time:  events[0].Time,
			Cause: ErrFirstEventNotInfection,
		}
	}
	for i := 1; i < len(events); i++ {
		if events[i].Time < events[i-1].Time {
			return &EventError{
				Op:    "validate",
				Type:  events[i].Type,
				Node:  events[i].Node,
				Time:  events[i].Time,
				Cause: ErrEventOrder,
			}
		}
	}
	return nil
}
