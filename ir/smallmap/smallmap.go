// Package smallmap wraps a Swiss table as the handle-keyed container the IR
// preamble uses. Keys here are always
// dense small integers (entity handles), which
// is exactly what github.com/dolthub/swiss is built for — open addressing
// with no per-entry pointer chasing, unlike a tree map, and no hand-rolled
// probing logic to get subtly wrong.
package smallmap

import "github.com/dolthub/swiss"

// Map is a small, dense, handle-keyed map. The zero value is not usable;
// construct with New.
type Map[K comparable, V any] struct {
	m *swiss.Map[K, V]
}

// New creates a Map pre-sized for the given expected entry count.
func New[K comparable, V any](capacity uint32) *Map[K, V] {
	if capacity == 0 {
		capacity = 8
	}
	return &Map[K, V]{m: swiss.NewMap[K, V](capacity)}
}

// Get returns the value stored for k, if any.
func (m *Map[K, V]) Get(k K) (V, bool) {
	return m.m.Get(k)
}

// Put stores v for k, overwriting any previous value.
func (m *Map[K, V]) Put(k K, v V) {
	m.m.Put(k, v)
}

// Has reports whether k has a stored value.
func (m *Map[K, V]) Has(k K) bool {
	return m.m.Has(k)
}

// Delete removes k, reporting whether it was present.
func (m *Map[K, V]) Delete(k K) bool {
	return m.m.Delete(k)
}

// Len returns the number of stored entries.
func (m *Map[K, V]) Len() int {
	return m.m.Count()
}

// Each calls f for every stored entry, in unspecified order. Iteration stops
// early if f returns false.
func (m *Map[K, V]) Each(f func(k K, v V) bool) {
	m.m.Iter(f)
}
