// Package progress maintains the progress signal of an SIR epidemic:
// zero on infected nodes, the hop distance to the nearest infected node
// through susceptible-only paths on susceptible nodes, and the negated
// hop distance through susceptible-or-removed paths on removed nodes.
//
// The signal is maintained incrementally. A boundary index records, for
// every non-infected node, which infected node it is currently nearest
// to; the inverted coboundary index then bounds the work of each event
// to the nodes whose nearest source actually changed, instead of a
// full-graph search per event.
package progress

import (
	"fmt"

	"github.com/dd0wney/episignal/pkg/graph"
	"github.com/dd0wney/episignal/pkg/logging"
	"github.com/dd0wney/episignal/pkg/metrics"
	"github.com/dd0wney/episignal/pkg/signal"
)

// Generator maintains the progress signal under infection and removal
// events. One generator owns its state exclusively: concurrent
// generators over the same graph must use independent instances.
type Generator struct {
	*signal.Base[float64]

	log logging.Logger
	met *metrics.Registry

	// inf is strictly greater than any attainable path length; it
	// marks susceptible nodes with no reachable infected node, and its
	// negation removed ones
	inf float64

	compartment map[graph.Node]signal.Compartment

	// boundary points each non-infected node at its nearest infected
	// node under the compartment-restricted path metric; coboundaryS
	// and coboundaryR invert it, split by the target's compartment
	// since the two footprints are invalidated independently
	boundary    map[graph.Node]graph.Node
	coboundaryS map[graph.Node]map[graph.Node]struct{}
	coboundaryR map[graph.Node]map[graph.Node]struct{}
}

// New creates a progress-signal generator writing into sig
func New(sig *signal.Signal[float64]) *Generator {
	p := &Generator{
		Base: signal.NewBase(sig),
		log:  logging.NewNopLogger(),
	}
	p.On(signal.EventInfected, p.infect)
	p.On(signal.EventRemoved, p.remove)
	return p
}

// SetLogger replaces the generator's logger
func (p *Generator) SetLogger(l logging.Logger) {
	p.log = l.With(logging.Component("progress"))
}

// SetMetrics attaches a metrics registry
func (p *Generator) SetMetrics(m *metrics.Registry) {
	p.met = m
}

// Infinity returns the sentinel used for unreachable susceptible nodes.
// Valid after Setup.
func (p *Generator) Infinity() float64 {
	return p.inf
}

// Compartment returns the tracked compartment of a node
func (p *Generator) Compartment(n graph.Node) signal.Compartment {
	return p.compartment[n]
}

// Setup captures the initial compartments and computes the signal at
// t=0. Every node starts at +infinity; a pruned multi-source relaxation
// from the seed infecteds then fills in distances, boundary, and
// coboundary. Removed nodes in the initial network are a hard
// precondition violation.
func (p *Generator) Setup(compartment signal.CompartmentFunc) error {
	g := p.Network()
	p.inf = float64(g.Order() + 1)
	p.compartment = make(map[graph.Node]signal.Compartment, g.Order())
	p.boundary = make(map[graph.Node]graph.Node)
	p.coboundaryS = make(map[graph.Node]map[graph.Node]struct{})
	p.coboundaryR = make(map[graph.Node]map[graph.Node]struct{})

	view := p.Signal().At(0.0)
	var seeds []graph.Node
	for _, n := range g.Nodes() {
		c := compartment(n)
		if c == signal.Removed {
			return fmt.Errorf("setup: node %d: %w", n, signal.ErrInitialRemoved)
		}
		if c != signal.Infected {
			c = signal.Susceptible
		}
		p.compartment[n] = c
		view.Set(n, p.inf)
		if c == signal.Infected {
			seeds = append(seeds, n)
		}
	}

	visits := 0
	for _, s := range seeds {
		view.Set(s, 0)
		p.coboundaryS[s] = make(map[graph.Node]struct{})
		p.coboundaryR[s] = make(map[graph.Node]struct{})
		visits += p.relaxFrom(view, s)
	}

	p.log.Info("setup complete",
		logging.Int("order", g.Order()),
		logging.Int("seeds", len(seeds)),
		logging.Int("visits", visits),
	)
	p.updateGauges()
	return nil
}

// infect handles a susceptible -> infected transition. The signal at
// the new infected drops to zero and a pruned relaxation propagates the
// improvement outward; only nodes whose distance strictly improves are
// re-expanded.
func (p *Generator) infect(ev signal.Event) error {
	s := ev.Node
	if p.compartment[s] != signal.Susceptible {
		return &signal.EventError{
			Op: "infect", Type: ev.Type, Node: s, Time: ev.Time,
			Cause: signal.ErrWrongCompartment,
		}
	}
	view := p.Signal().At(ev.Time)

	// unlink s from its old owner's coboundary. An s with no boundary
	// is legal only when no infected node could reach it: the very
	// first infection, or a component the epidemic never entered.
	if b, ok := p.boundary[s]; ok {
		delete(p.coboundaryS[b], s)
		delete(p.boundary, s)
	}
	p.compartment[s] = signal.Infected
	view.Set(s, 0)

	p.coboundaryS[s] = make(map[graph.Node]struct{})
	p.coboundaryR[s] = make(map[graph.Node]struct{})
	visits := p.relaxFrom(view, s)

	if p.met != nil {
		p.met.RecordSearch(string(ev.Type), visits)
	}
	p.log.Debug("infected",
		logging.Node(uint64(s)),
		logging.Time(ev.Time),
		logging.Int("visits", visits),
	)
	p.updateGauges()
	return nil
}

// remove handles an infected -> removed transition. Nodes that pointed
// at s as their nearest infected are the only ones whose distance can
// have changed; each is recomputed with a fresh bounded search. A
// recomputed distance smaller than the recorded one means the boundary
// index has desynchronised from the true shortest-path structure and is
// fatal.
func (p *Generator) remove(ev signal.Event) error {
	s := ev.Node
	if p.compartment[s] != signal.Infected {
		return &signal.EventError{
			Op: "remove", Type: ev.Type, Node: s, Time: ev.Time,
			Cause: signal.ErrWrongCompartment,
		}
	}
	view := p.Signal().At(ev.Time)
	p.compartment[s] = signal.Removed

	visits := 0
	recomputed := 0

	// susceptible nodes that lost their nearest source
	for q := range p.coboundaryS[s] {
		n, d, found, v := p.nearestInfected(q, signal.Susceptible)
		visits += v
		recomputed++
		if !found {
			view.Set(q, p.inf)
			delete(p.boundary, q)
			continue
		}
		prev := view.GetDefault(q, p.inf)
		if d < prev {
			if p.met != nil {
				p.met.InvariantFailures.Inc()
			}
			return &signal.EventError{
				Op: "remove", Type: ev.Type, Node: q, Time: ev.Time,
				Cause: fmt.Errorf("susceptible distance %v -> %v: %w", prev, d, signal.ErrDistanceShrank),
			}
		}
		view.Set(q, d)
		p.boundary[q] = n
		p.coboundaryS[n][q] = struct{}{}
	}
	delete(p.coboundaryS, s)

	// s's own distance to the remaining infecteds
	n, d, found, v := p.nearestInfected(s, signal.Susceptible, signal.Removed)
	visits += v
	if !found {
		view.Set(s, -p.inf)
	} else {
		view.Set(s, -d)
		p.boundary[s] = n
		p.coboundaryR[n][s] = struct{}{}
	}

	// removed nodes that pointed at s
	for q := range p.coboundaryR[s] {
		n, d, found, v := p.nearestInfected(q, signal.Susceptible, signal.Removed)
		visits += v
		recomputed++
		if !found {
			view.Set(q, -p.inf)
			delete(p.boundary, q)
			continue
		}
		prev := -view.GetDefault(q, -p.inf)
		if d < prev {
			if p.met != nil {
				p.met.InvariantFailures.Inc()
			}
			return &signal.EventError{
				Op: "remove", Type: ev.Type, Node: q, Time: ev.Time,
				Cause: fmt.Errorf("removed distance %v -> %v: %w", prev, d, signal.ErrDistanceShrank),
			}
		}
		view.Set(q, -d)
		p.boundary[q] = n
		p.coboundaryR[n][q] = struct{}{}
	}
	delete(p.coboundaryR, s)

	if p.met != nil {
		p.met.RecordSearch(string(ev.Type), visits)
		p.met.RecomputedNodes.Observe(float64(recomputed))
	}
	p.log.Debug("removed",
		logging.Node(uint64(s)),
		logging.Time(ev.Time),
		logging.Int("visits", visits),
		logging.Int("recomputed", recomputed),
	)
	p.updateGauges()
	return nil
}

func (p *Generator) updateGauges() {
	if p.met == nil {
		return
	}
	p.met.BoundarySize.Set(float64(len(p.boundary)))
	p.met.SignalTransitions.WithLabelValues(p.Signal().Name()).Set(float64(p.Signal().Len()))
}
