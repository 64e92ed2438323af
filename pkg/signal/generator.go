package signal

import (
	"golang.org/x/exp/constraints"

	"github.com/dd0wney/episignal/pkg/graph"
)

// Handler responds to one event of a registered type
type Handler func(ev Event) error

// Generator is the lifecycle a signal generator exposes to a Runner:
// Setup seeds the signal at t=0, HandleEvent consumes one event, and
// Finalize runs after the last event.
type Generator interface {
	Setup(compartment CompartmentFunc) error
	HandleEvent(ev Event) error
	Finalize() error
}

// Base provides event dispatch for generators. A concrete generator
// embeds Base, registers handlers with On, and overrides Setup (and
// Finalize if it needs one; the default is a no-op).
type Base[V constraints.Ordered] struct {
	sig      *Signal[V]
	handlers map[EventType][]Handler
}

// NewBase creates a dispatch base bound to the given signal
func NewBase[V constraints.Ordered](sig *Signal[V]) *Base[V] {
	return &Base[V]{
		sig:      sig,
		handlers: make(map[EventType][]Handler),
	}
}

// Signal returns the signal being generated
func (b *Base[V]) Signal() *Signal[V] {
	return b.sig
}

// Network returns the network the signal is generated for
func (b *Base[V]) Network() graph.Graph {
	return b.sig.Network()
}

// On registers a handler for the given event type. Handlers for a type
// run in registration order.
func (b *Base[V]) On(etype EventType, h Handler) {
	b.handlers[etype] = append(b.handlers[etype], h)
}

// HandleEvent dispatches an event to the handlers registered for its
// type. Types with no handler are silently ignored: a generator may
// only care about a subset of event types.
func (b *Base[V]) HandleEvent(ev Event) error {
	for _, h := range b.handlers[ev.Type] {
		if err := h(ev); err != nil {
			return err
		}
	}
	return nil
}

// Setup is a no-op by default
func (b *Base[V]) Setup(CompartmentFunc) error {
	return nil
}

// Finalize is a no-op by default
func (b *Base[V]) Finalize() error {
	return nil
}
