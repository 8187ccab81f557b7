package installer

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating archive: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("adding %q: %v", name, err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("writing %q: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing archive: %v", err)
	}
}

func TestExtractZip(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "archive.zip")
	writeZip(t, archive, map[string]string{
		"init.lua":       "return {}",
		"sub/module.lua": "return true",
	})

	dest := filepath.Join(dir, "out")
	if err := extractZip(archive, dest); err != nil {
		t.Fatalf("extractZip: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dest, "init.lua"))
	if err != nil {
		t.Fatalf("reading extracted init.lua: %v", err)
	}
	if string(got) != "return {}" {
		t.Errorf("init.lua content = %q", got)
	}

	if _, err := os.Stat(filepath.Join(dest, "sub", "module.lua")); err != nil {
		t.Errorf("expected sub/module.lua to exist: %v", err)
	}
}

// TestExtractZipRejectsTraversal is the "no traversal" testable property
// from spec.md §8: an adversarial archive entry with a ../ prefix must
// write no file outside the destination directory.
func TestExtractZipRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "evil.zip")
	writeZip(t, archive, map[string]string{
		"../../escaped.lua": "malicious",
	})

	dest := filepath.Join(dir, "out")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	if err := extractZip(archive, dest); err == nil {
		t.Fatal("expected extractZip to reject a traversal entry")
	}

	if _, err := os.Stat(filepath.Join(dir, "escaped.lua")); !os.IsNotExist(err) {
		t.Errorf("traversal entry escaped the destination: err=%v", err)
	}
}

func TestSafeJoinRejectsParentEscape(t *testing.T) {
	if _, err := safeJoin("/tmp/dest", "../outside"); err == nil {
		t.Error("expected safeJoin to reject a path escaping dest")
	}
	if _, err := safeJoin("/tmp/dest", "inside/file.lua"); err != nil {
		t.Errorf("safeJoin rejected a legitimate path: %v", err)
	}
}
