package diskcache

import (
	"path/filepath"
	"testing"
)

func TestCacheOpenPutGet(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	if _, ok := c.Get("roblox/roact@1.4.0"); ok {
		t.Fatal("expected a miss on an empty cache")
	}

	if err := c.Put("roblox/roact@1.4.0", []byte("archive-bytes")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := c.Get("roblox/roact@1.4.0")
	if !ok {
		t.Fatal("expected a hit after Put")
	}
	if string(got) != "archive-bytes" {
		t.Errorf("Get = %q", got)
	}
}

func TestCacheWipeRemovesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	c.Put("key", []byte("value"))
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := Wipe(dir); err != nil {
		t.Fatalf("Wipe: %v", err)
	}

	if _, err := Open(dir); err != nil {
		t.Fatalf("expected Open to recreate the wiped directory cleanly: %v", err)
	}
}

func TestNilCacheIsSafe(t *testing.T) {
	var c *Cache
	if _, ok := c.Get("k"); ok {
		t.Error("expected a nil cache to always miss")
	}
	if err := c.Close(); err != nil {
		t.Errorf("expected Close on a nil cache to be a no-op, got %v", err)
	}
}
