package signal

import (
	"sort"

	"golang.org/x/exp/constraints"

	"github.com/dd0wney/episignal/pkg/graph"
	"github.com/dd0wney/episignal/pkg/timedmap"
)

// UpdateTriples flattens the signal into three parallel slices of
// (time, node, value), one element per actual change, ordered by time
// then node. The triples are a compact persistence form: feeding them
// back through FromUpdateTriples reproduces the signal's query results
// at every transition time.
func (s *Signal[V]) UpdateTriples() ([]float64, []graph.Node, []V) {
	type triple struct {
		t float64
		n graph.Node
		v V
	}
	var all []triple
	for _, n := range s.tm.Keys() {
		for _, u := range s.tm.History(n) {
			if u.Set {
				all = append(all, triple{t: u.Time, n: n, v: u.Value})
			}
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].t != all[j].t {
			return all[i].t < all[j].t
		}
		return all[i].n < all[j].n
	})

	ts := make([]float64, len(all))
	ns := make([]graph.Node, len(all))
	vs := make([]V, len(all))
	for i, tr := range all {
		ts[i], ns[i], vs[i] = tr.t, tr.n, tr.v
	}
	return ts, ns, vs
}

// FromUpdateTriples reconstructs a signal from parallel update-triple
// slices as produced by UpdateTriples.
func FromUpdateTriples[V constraints.Ordered](g graph.Graph, name string, ts []float64, ns []graph.Node, vs []V) (*Signal[V], error) {
	if len(ts) != len(ns) || len(ts) != len(vs) {
		return nil, ErrTripleLengths
	}
	s := New[V](g, name)
	if len(ts) == 0 {
		return s, nil
	}

	// amortise projection by reusing the view while time is unchanged
	view := s.At(ts[0])
	for i := range ts {
		if ts[i] != view.Time() {
			view = s.At(ts[i])
		}
		view.Set(ns[i], vs[i])
	}
	return s, nil
}

// TimeSeries samples the signal at every transition time. It returns
// the transition times and, for each node that is present at all of
// them, the node's value sequence in time order. Nodes absent at any
// transition are omitted so the series stay parallel to the times.
func (s *Signal[V]) TimeSeries() ([]float64, map[graph.Node][]V) {
	ts := s.Transitions()
	views := make([]*timedmap.View[graph.Node, V], len(ts))
	for i, t := range ts {
		views[i] = s.At(t)
	}

	series := make(map[graph.Node][]V)
	for _, n := range s.tm.Keys() {
		vs := make([]V, 0, len(ts))
		complete := true
		for _, view := range views {
			v, ok := view.Get(n)
			if !ok {
				complete = false
				break
			}
			vs = append(vs, v)
		}
		if complete {
			series[n] = vs
		}
	}
	return ts, series
}
