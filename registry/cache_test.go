package registry

import (
	"testing"

	"github.com/OMouta/Jelly/resolver"
)

func TestMetadataCacheGetSet(t *testing.T) {
	c := newMetadataCache()
	id := resolver.PackageID{Scope: "a", Name: "b"}

	if _, ok := c.get(id); ok {
		t.Fatal("expected a miss on an empty cache")
	}

	md := Metadata{ID: id}
	c.set(md)

	got, ok := c.get(id)
	if !ok {
		t.Fatal("expected a hit after set")
	}
	if got.ID != id {
		t.Errorf("got.ID = %+v, want %+v", got.ID, id)
	}
}
