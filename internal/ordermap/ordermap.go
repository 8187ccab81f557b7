// Package ordermap provides a typed, deterministically-ordered map keyed
// by canonical "scope/name" package identifiers.
//
// It is a generic replacement for the teacher's typed_radix.go, which
// hand-wrote one wrapper struct per value type to avoid leaking
// interface{} type assertions (gps predates Go generics — its own comment
// reads "Oh generics, where art thou..."). With generics available we get
// the same guarantee — no type assertions at call sites, deterministic
// lexicographic Walk order — from a single implementation, and reuse it
// for the resolver's picked-version map, the registry's metadata cache,
// and the resolution graph.
package ordermap

import "github.com/armon/go-radix"

// Map is an insertion-order-independent, lexicographically-walkable map.
type Map[V any] struct {
	t *radix.Tree
}

// New returns an empty Map.
func New[V any]() *Map[V] {
	return &Map[V]{t: radix.New()}
}

// Get looks up key, returning the value and whether it was present.
func (m *Map[V]) Get(key string) (V, bool) {
	v, ok := m.t.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), true
}

// Insert adds or replaces key, returning the previous value if any.
func (m *Map[V]) Insert(key string, v V) (V, bool) {
	old, had := m.t.Insert(key, v)
	if !had {
		var zero V
		return zero, false
	}
	return old.(V), true
}

// Delete removes key, returning the removed value if any.
func (m *Map[V]) Delete(key string) (V, bool) {
	old, had := m.t.Delete(key)
	if !had {
		var zero V
		return zero, false
	}
	return old.(V), true
}

// Len returns the number of entries.
func (m *Map[V]) Len() int {
	return m.t.Len()
}

// Keys returns all keys in lexicographic order.
func (m *Map[V]) Keys() []string {
	keys := make([]string, 0, m.t.Len())
	m.t.Walk(func(s string, _ interface{}) bool {
		keys = append(keys, s)
		return false
	})
	return keys
}

// Walk visits every entry in lexicographic key order. Returning true from
// fn stops the walk early.
func (m *Map[V]) Walk(fn func(key string, v V) bool) {
	m.t.Walk(func(s string, raw interface{}) bool {
		return fn(s, raw.(V))
	})
}

// ToMap copies the entries into a plain Go map, leaving the tree
// unchanged; mostly useful for tests.
func (m *Map[V]) ToMap() map[string]V {
	out := make(map[string]V, m.t.Len())
	m.Walk(func(k string, v V) bool {
		out[k] = v
		return false
	})
	return out
}
