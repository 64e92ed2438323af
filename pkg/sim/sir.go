// Package sim draws synthetic SIR epidemics over a network, producing
// the ordered event streams the signal generators consume.
package sim

import (
	"math/rand"
	"sort"

	"github.com/dd0wney/episignal/pkg/graph"
	"github.com/dd0wney/episignal/pkg/signal"
)

// SIR is a discrete-time susceptible-infected-removed process. At each
// step every SI edge transmits with probability PInfect, then every
// infected node is removed with probability PRemove.
type SIR struct {
	PInfect float64
	PRemove float64

	// MaxTime bounds the simulation; zero means run until the epidemic
	// dies out
	MaxTime float64
}

// Events simulates one epidemic over g from the given seed nodes and
// returns the event stream. Seeds appear as infection events at t=0, so
// the stream replays correctly against an all-susceptible network.
// Iteration order is deterministic for a fixed rng.
func (p SIR) Events(g graph.Graph, rng *rand.Rand, seeds ...graph.Node) []signal.Event {
	compartment := make(map[graph.Node]signal.Compartment, g.Order())
	for _, n := range g.Nodes() {
		compartment[n] = signal.Susceptible
	}

	var events []signal.Event
	var infected []graph.Node
	for _, s := range seeds {
		if compartment[s] != signal.Susceptible {
			continue
		}
		compartment[s] = signal.Infected
		infected = append(infected, s)
		events = append(events, signal.Event{Time: 0, Type: signal.EventInfected, Node: s})
	}
	sort.Slice(infected, func(i, j int) bool { return infected[i] < infected[j] })

	for t := 1.0; len(infected) > 0; t++ {
		if p.MaxTime > 0 && t > p.MaxTime {
			break
		}

		// transmissions from the nodes infected before this step
		snapshot := append([]graph.Node(nil), infected...)
		for _, i := range snapshot {
			for _, m := range g.Neighbors(i) {
				if compartment[m] != signal.Susceptible {
					continue
				}
				if rng.Float64() < p.PInfect {
					compartment[m] = signal.Infected
					infected = append(infected, m)
					events = append(events, signal.Event{
						Time: t, Type: signal.EventInfected, Node: m, From: i,
					})
				}
			}
		}

		// removals, over the pre-step infected set only
		remaining := infected[:0]
		removedThisStep := make(map[graph.Node]struct{})
		for _, i := range snapshot {
			if rng.Float64() < p.PRemove {
				compartment[i] = signal.Removed
				removedThisStep[i] = struct{}{}
				events = append(events, signal.Event{
					Time: t, Type: signal.EventRemoved, Node: i,
				})
			}
		}
		for _, i := range infected {
			if _, gone := removedThisStep[i]; !gone {
				remaining = append(remaining, i)
			}
		}
		infected = remaining
	}
	return events
}
