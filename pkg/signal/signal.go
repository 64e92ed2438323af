// Package signal encodes time-varying node signals over a network and
// the generator framework that produces them from epidemic event
// streams.
//
// A signal associates a mapping from nodes to values with every point
// in time, backed by a timed map so that the mapping can be queried at
// arbitrary times, forward or backward, long after generation finished.
package signal

import (
	"golang.org/x/exp/constraints"

	"github.com/dd0wney/episignal/pkg/graph"
	"github.com/dd0wney/episignal/pkg/timedmap"
)

// Signal is a time-varying mapping from the nodes of a network to
// values. It is mutated only through its point-in-time views during
// generation and is read-only afterwards.
type Signal[V constraints.Ordered] struct {
	g    graph.Graph
	name string
	tm   *timedmap.TimedMap[graph.Node, V]
}

// New creates an empty signal over the given network
func New[V constraints.Ordered](g graph.Graph, name string) *Signal[V] {
	return &Signal[V]{
		g:    g,
		name: name,
		tm:   timedmap.New[graph.Node, V](),
	}
}

// Network returns the network the signal is defined over
func (s *Signal[V]) Network() graph.Graph {
	return s.g
}

// Name returns the signal's name
func (s *Signal[V]) Name() string {
	return s.name
}

// At returns the node/value view of the signal as of time t
func (s *Signal[V]) At(t float64) *timedmap.View[graph.Node, V] {
	return s.tm.At(t)
}

// Transitions returns the times at which the signal changed, in
// ascending order
func (s *Signal[V]) Transitions() []float64 {
	return s.tm.Updates()
}

// Len returns the number of transition times
func (s *Signal[V]) Len() int {
	return s.tm.Len()
}

// ValueBounds returns the minimum and maximum values the signal takes
// at any time. It fails on a signal with no values.
func (s *Signal[V]) ValueBounds() (min V, max V, err error) {
	vs := s.tm.Values()
	if len(vs) == 0 {
		return min, max, ErrEmptySignal
	}
	min, max = vs[0], vs[0]
	for _, v := range vs[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max, nil
}

// Reset discards all recorded history
func (s *Signal[V]) Reset() {
	s.tm.Reset()
}
