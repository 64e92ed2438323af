// Package generators holds the simple per-event signal generators that
// need only local bookkeeping: the compartment signal and the infection
// boundary signal. The heavier shortest-path progress signal lives in
// its own package.
package generators

import (
	"github.com/dd0wney/episignal/pkg/signal"
)

// Compartment generates a signal whose value at each node is the node's
// disease compartment at that time.
type Compartment struct {
	*signal.Base[signal.Compartment]
}

// NewCompartment creates a compartment-signal generator writing into sig
func NewCompartment(sig *signal.Signal[signal.Compartment]) *Compartment {
	c := &Compartment{Base: signal.NewBase(sig)}
	c.On(signal.EventInfected, c.infect)
	c.On(signal.EventRemoved, c.remove)
	return c
}

// Setup records the initial compartment of every node at t=0
func (c *Compartment) Setup(compartment signal.CompartmentFunc) error {
	view := c.Signal().At(0.0)
	for _, n := range c.Network().Nodes() {
		view.Set(n, compartment(n))
	}
	return nil
}

func (c *Compartment) infect(ev signal.Event) error {
	view := c.Signal().At(ev.Time)
	if cur, _ := view.Get(ev.Node); cur != signal.Susceptible {
		return &signal.EventError{
			Op: "compartment", Type: ev.Type, Node: ev.Node, Time: ev.Time,
			Cause: signal.ErrWrongCompartment,
		}
	}
	view.Set(ev.Node, signal.Infected)
	return nil
}

func (c *Compartment) remove(ev signal.Event) error {
	view := c.Signal().At(ev.Time)
	if cur, _ := view.Get(ev.Node); cur != signal.Infected {
		return &signal.EventError{
			Op: "compartment", Type: ev.Type, Node: ev.Node, Time: ev.Time,
			Cause: signal.ErrWrongCompartment,
		}
	}
	view.Set(ev.Node, signal.Removed)
	return nil
}
