package ordermap

import (
	"reflect"
	"testing"
)

func TestMapInsertGet(t *testing.T) {
	m := New[int]()
	m.Insert("b/y", 2)
	m.Insert("a/x", 1)

	v, ok := m.Get("a/x")
	if !ok || v != 1 {
		t.Fatalf("Get(a/x) = %v, %v", v, ok)
	}
	if _, ok := m.Get("missing"); ok {
		t.Fatal("expected a miss for an absent key")
	}
}

func TestMapKeysLexicographic(t *testing.T) {
	m := New[int]()
	m.Insert("c/z", 3)
	m.Insert("a/x", 1)
	m.Insert("b/y", 2)

	got := m.Keys()
	want := []string{"a/x", "b/y", "c/z"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
}

func TestMapDelete(t *testing.T) {
	m := New[string]()
	m.Insert("k", "v")
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
	old, had := m.Delete("k")
	if !had || old != "v" {
		t.Errorf("Delete = %q, %v", old, had)
	}
	if m.Len() != 0 {
		t.Errorf("Len() after delete = %d, want 0", m.Len())
	}
}

func TestMapWalkOrderAndEarlyStop(t *testing.T) {
	m := New[int]()
	m.Insert("b", 2)
	m.Insert("a", 1)
	m.Insert("c", 3)

	var visited []string
	m.Walk(func(k string, v int) bool {
		visited = append(visited, k)
		return k == "b"
	})
	if !reflect.DeepEqual(visited, []string{"a", "b"}) {
		t.Errorf("Walk visited %v, want early stop after b", visited)
	}
}

func TestMapToMap(t *testing.T) {
	m := New[int]()
	m.Insert("x", 10)
	m.Insert("y", 20)

	got := m.ToMap()
	want := map[string]int{"x": 10, "y": 20}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToMap() = %v, want %v", got, want)
	}
}
