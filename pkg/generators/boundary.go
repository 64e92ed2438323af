package generators

import (
	"github.com/dd0wney/episignal/pkg/graph"
	"github.com/dd0wney/episignal/pkg/signal"
)

// Boundary generates the infection-boundary signal: each infected node
// carries the number of its SI edges, the edges along which it can
// still pass the infection on. Susceptible and removed nodes sit at
// zero. Updates are O(degree) per event.
type Boundary struct {
	*signal.Base[float64]
	compartment map[graph.Node]signal.Compartment
}

// NewBoundary creates an infection-boundary generator writing into sig
func NewBoundary(sig *signal.Signal[float64]) *Boundary {
	b := &Boundary{Base: signal.NewBase(sig)}
	b.On(signal.EventInfected, b.infect)
	b.On(signal.EventRemoved, b.remove)
	return b
}

// Setup counts the SI edges of each seed infected at t=0
func (b *Boundary) Setup(compartment signal.CompartmentFunc) error {
	g := b.Network()
	b.compartment = make(map[graph.Node]signal.Compartment, g.Order())
	for _, n := range g.Nodes() {
		b.compartment[n] = compartment(n)
	}

	view := b.Signal().At(0.0)
	for _, n := range g.Nodes() {
		view.Set(n, b.siDegree(n))
	}
	return nil
}

// siDegree counts the susceptible neighbours of an infected node; any
// other node contributes nothing to the boundary.
func (b *Boundary) siDegree(n graph.Node) float64 {
	if b.compartment[n] != signal.Infected {
		return 0
	}
	count := 0.0
	for _, m := range b.Network().Neighbors(n) {
		if b.compartment[m] == signal.Susceptible {
			count++
		}
	}
	return count
}

func (b *Boundary) infect(ev signal.Event) error {
	s := ev.Node
	if b.compartment[s] != signal.Susceptible {
		return &signal.EventError{
			Op: "boundary", Type: ev.Type, Node: s, Time: ev.Time,
			Cause: signal.ErrWrongCompartment,
		}
	}
	view := b.Signal().At(ev.Time)
	b.compartment[s] = signal.Infected
	view.Set(s, b.siDegree(s))

	// s stopped being susceptible, so each infected neighbour loses one
	// SI edge
	for _, m := range b.Network().Neighbors(s) {
		if b.compartment[m] == signal.Infected {
			cur, _ := view.Get(m)
			view.Set(m, cur-1)
		}
	}
	return nil
}

func (b *Boundary) remove(ev signal.Event) error {
	s := ev.Node
	if b.compartment[s] != signal.Infected {
		return &signal.EventError{
			Op: "boundary", Type: ev.Type, Node: s, Time: ev.Time,
			Cause: signal.ErrWrongCompartment,
		}
	}
	view := b.Signal().At(ev.Time)
	b.compartment[s] = signal.Removed
	view.Set(s, 0)
	return nil
}
