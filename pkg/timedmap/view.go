package timedmap

import "sort"

// View is a timed map projected at a fixed time. It borrows the
// underlying diff lists rather than copying them: construction costs one
// binary search per key, and lookups afterwards are O(1).
type View[K comparable, V comparable] struct {
	m    *TimedMap[K, V]
	time float64
	now  map[K]int // key -> index of its applicable diff entry
}

// project computes, for every key, the index of the latest diff entry
// applicable at the view's time. Keys whose latest applicable entry is a
// deletion, or that have no applicable entry, are absent.
func (w *View[K, V]) project() {
	w.now = make(map[K]int, len(w.m.diffs))
	for k := range w.m.diffs {
		if i := w.m.updateBefore(k, w.time); i >= 0 && w.m.diffs[k][i].set {
			w.now[k] = i
		}
	}
}

// Time returns the projection time of the view
func (w *View[K, V]) Time() float64 {
	return w.time
}

// Get returns the value of k at the view's time. The second return
// distinguishes a missing key from a legitimate zero value.
func (w *View[K, V]) Get(k K) (V, bool) {
	i, ok := w.now[k]
	if !ok {
		var zero V
		return zero, false
	}
	return w.m.diffs[k][i].value, true
}

// GetDefault returns the value of k, or def if k is absent at the
// view's time.
func (w *View[K, V]) GetDefault(k K, def V) V {
	if v, ok := w.Get(k); ok {
		return v
	}
	return def
}

// Contains reports whether k has a value at the view's time
func (w *View[K, V]) Contains(k K) bool {
	_, ok := w.now[k]
	return ok
}

// Len returns the number of keys present at the view's time
func (w *View[K, V]) Len() int {
	return len(w.now)
}

// Keys returns the keys present at the view's time, in unspecified order
func (w *View[K, V]) Keys() []K {
	ks := make([]K, 0, len(w.now))
	for k := range w.now {
		ks = append(ks, k)
	}
	return ks
}

// Values returns the distinct values present at the view's time
func (w *View[K, V]) Values() []V {
	seen := make(map[V]struct{}, len(w.now))
	for k, i := range w.now {
		seen[w.m.diffs[k][i].value] = struct{}{}
	}
	vs := make([]V, 0, len(seen))
	for v := range seen {
		vs = append(vs, v)
	}
	return vs
}

// Snapshot copies the view's contents into a plain map
func (w *View[K, V]) Snapshot() map[K]V {
	d := make(map[K]V, len(w.now))
	for k, i := range w.now {
		d[k] = w.m.diffs[k][i].value
	}
	return d
}

// Set records v as the value of k as of the view's time. Re-setting a
// key to its current value is a no-op, keeping the diff list minimal,
// except that a write at exactly the time of the latest applicable entry
// overwrites that entry in place.
func (w *View[K, V]) Set(k K, v V) {
	if i, ok := w.now[k]; ok {
		e := w.m.diffs[k][i]
		if e.time == w.time {
			// update within the same instant, overwrite in place
			w.m.diffs[k][i].value = v
			return
		}
		if e.value == v {
			// unchanged value, nothing to record
			return
		}
		w.m.insert(k, i+1, update[V]{time: w.time, set: true, value: v})
		w.now[k] = i + 1
		return
	}

	// key absent at this time: either never written, deleted earlier,
	// or only written at later times
	i := w.m.updateBefore(k, w.time)
	w.m.insert(k, i+1, update[V]{time: w.time, set: true, value: v})
	w.now[k] = i + 1
}

// Delete records the absence of k as of the view's time. Earlier and
// later history is unaffected. Deleting a key that is absent at this
// time is a silent no-op.
func (w *View[K, V]) Delete(k K) {
	i, ok := w.now[k]
	if !ok {
		return
	}
	var zero V
	w.m.insert(k, i+1, update[V]{time: w.time, set: false, value: zero})
	delete(w.now, k)
}

// SortedKeys returns the keys present at the view's time sorted by the
// given less function
func (w *View[K, V]) SortedKeys(less func(a, b K) bool) []K {
	ks := w.Keys()
	sort.Slice(ks, func(i, j int) bool { return less(ks[i], ks[j]) })
	return ks
}
