package installer

import (
	"path/filepath"
	"testing"

	"github.com/OMouta/Jelly/resolver"
)

func TestWriteAndReadMarker(t *testing.T) {
	dir := t.TempDir()
	id := resolver.PackageID{Scope: "roblox", Name: "roact"}
	v, _ := resolver.NewVersion("1.4.0")

	if err := writeMarker(dir, id, v); err != nil {
		t.Fatalf("writeMarker: %v", err)
	}

	gotID, gotV, ok := readMarker(dir)
	if !ok {
		t.Fatal("expected readMarker to succeed")
	}
	if gotID != id {
		t.Errorf("id = %+v, want %+v", gotID, id)
	}
	if !gotV.Equal(v) {
		t.Errorf("version = %q, want %q", gotV.String(), v.String())
	}
}

func TestReadMarkerLegacyFallback(t *testing.T) {
	dir := t.TempDir()
	legacyDir := filepath.Join(dir, "roblox_roact")
	id, _, ok := readMarker(legacyDir)
	if !ok {
		t.Fatal("expected a best-effort split on the last underscore")
	}
	if id.Scope != "roblox" || id.Name != "roact" {
		t.Errorf("legacy split = %+v", id)
	}
}

func TestReadMarkerNoUnderscoreFails(t *testing.T) {
	dir := t.TempDir()
	legacyDir := filepath.Join(dir, "noseparator")
	if _, _, ok := readMarker(legacyDir); ok {
		t.Error("expected readMarker to fail without a marker file or an underscore")
	}
}
