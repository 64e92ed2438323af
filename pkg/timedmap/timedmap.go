// Package timedmap implements an associative store whose contents can be
// queried at any point in time. Every write is stamped with a time, and a
// key's history is kept as a sorted diff list, so projecting the map at a
// time costs one binary search per key rather than a dense snapshot per
// change.
package timedmap

import (
	"fmt"
	"sort"
)

// update is one element of a key's diff list: at time the key either
// took value (set) or was removed (!set).
type update[V any] struct {
	time  float64
	set   bool
	value V
}

// Update is one exported element of a key's history, as returned by
// History.
type Update[V any] struct {
	Time  float64
	Set   bool
	Value V
}

// TimedMap is a key/value store with point-in-time query semantics. All
// access to values goes through a View obtained from At. A TimedMap is
// owned by a single goroutine; it performs no locking.
type TimedMap[K comparable, V comparable] struct {
	diffs map[K][]update[V]
}

// New creates an empty timed map
func New[K comparable, V comparable]() *TimedMap[K, V] {
	return &TimedMap[K, V]{diffs: make(map[K][]update[V])}
}

// At returns a view of the map projected at time t. The view reflects
// every change made up to and including t, and accepts writes stamped
// with t. A view is invalidated by writes made through any other view.
func (m *TimedMap[K, V]) At(t float64) *View[K, V] {
	v := &View[K, V]{m: m, time: t, now: make(map[K]int)}
	v.project()
	return v
}

// Updates returns the distinct times at which any key changed, in
// ascending order. The map can be queried at any time, not just these,
// but it is guaranteed to have changed between adjacent update times.
func (m *TimedMap[K, V]) Updates() []float64 {
	seen := make(map[float64]struct{})
	for _, us := range m.diffs {
		for _, u := range us {
			seen[u.time] = struct{}{}
		}
	}
	ts := make([]float64, 0, len(seen))
	for t := range seen {
		ts = append(ts, t)
	}
	sort.Float64s(ts)
	return ts
}

// Len returns the number of distinct update times
func (m *TimedMap[K, V]) Len() int {
	return len(m.Updates())
}

// Keys returns the keys that appear in the map at some time
func (m *TimedMap[K, V]) Keys() []K {
	ks := make([]K, 0, len(m.diffs))
	for k := range m.diffs {
		ks = append(ks, k)
	}
	return ks
}

// Values returns the distinct values retrievable at some time. A value
// overwritten in place within a single instant never became retrievable
// and is excluded.
func (m *TimedMap[K, V]) Values() []V {
	seen := make(map[V]struct{})
	for _, us := range m.diffs {
		for _, u := range us {
			if u.set {
				seen[u.value] = struct{}{}
			}
		}
	}
	vs := make([]V, 0, len(seen))
	for v := range seen {
		vs = append(vs, v)
	}
	return vs
}

// History returns the diff list for k in ascending time order. The
// slice is a copy and safe to retain.
func (m *TimedMap[K, V]) History(k K) []Update[V] {
	us := m.diffs[k]
	out := make([]Update[V], len(us))
	for i, u := range us {
		out[i] = Update[V]{Time: u.time, Set: u.set, Value: u.value}
	}
	return out
}

// Reset discards all history
func (m *TimedMap[K, V]) Reset() {
	m.diffs = make(map[K][]update[V])
}

// updateBefore returns the index of the last update for k at or before
// time t, or -1 if k has no update at or before t. The diff list is
// sorted by construction, so this is a binary search.
func (m *TimedMap[K, V]) updateBefore(k K, t float64) int {
	us, ok := m.diffs[k]
	if !ok {
		return -1
	}
	// first index whose time is strictly after t
	i := sort.Search(len(us), func(i int) bool { return us[i].time > t })
	return i - 1
}

// insert places u at position i in k's diff list, guarding the global
// ordering invariant. An out-of-order insert means the caller's index
// bookkeeping has desynchronised from the diff lists.
func (m *TimedMap[K, V]) insert(k K, i int, u update[V]) {
	us := m.diffs[k]
	if i > 0 && us[i-1].time > u.time {
		panic(fmt.Sprintf("timedmap: corrupted diff list: insert at %v before entry at %v", u.time, us[i-1].time))
	}
	if i < len(us) && us[i].time < u.time {
		panic(fmt.Sprintf("timedmap: corrupted diff list: insert at %v after entry at %v", u.time, us[i].time))
	}
	us = append(us, update[V]{})
	copy(us[i+1:], us[i:])
	us[i] = u
	m.diffs[k] = us
}
