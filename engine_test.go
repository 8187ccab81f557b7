package jelly

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OMouta/Jelly/registry"
	"github.com/OMouta/Jelly/resolver"
)

func zipArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("zip.Create(%q): %v", name, err)
		}
		fw.Write([]byte(content))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zip.Close: %v", err)
	}
	return buf.Bytes()
}

// fakeRoactRegistry serves one package, roblox/roact, at a single version,
// whose archive normalizes to a sole root .lua file.
func fakeRoactRegistry(t *testing.T) *httptest.Server {
	t.Helper()
	archive := zipArchive(t, map[string]string{"Roact.lua": "return {}"})
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "package-metadata") {
			fmt.Fprint(w, `{"versions":[{"package":{"scope":"roblox","name":"roact","version":"1.4.0"}}]}`)
			return
		}
		w.Write(archive)
	}))
}

func newTestEngine(t *testing.T, dir, baseURL string) *Engine {
	t.Helper()
	client := registry.NewClient(baseURL)
	return New(dir, client, nil)
}

// TestEngineInit is spec.md §8 scenario 1.
func TestEngineInit(t *testing.T) {
	dir := t.TempDir()
	e := newTestEngine(t, dir, registry.DefaultBaseURL)

	m, err := e.Init("demo")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if m.Name != "demo" || m.Version != "0.1.0" {
		t.Errorf("unexpected manifest: %+v", m)
	}
	if len(m.Dependencies) != 0 || len(m.DevDependencies) != 0 {
		t.Errorf("expected empty dependency maps, got %+v / %+v", m.Dependencies, m.DevDependencies)
	}

	if _, err := e.Init("demo-again"); err == nil {
		t.Error("expected a second Init on an initialized project to fail")
	}
}

// TestEngineAddExact is spec.md §8 scenario 2.
func TestEngineAddExact(t *testing.T) {
	srv := fakeRoactRegistry(t)
	defer srv.Close()

	dir := t.TempDir()
	e := newTestEngine(t, dir, srv.URL)
	if _, err := e.Init("demo"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	report, err := e.Add(context.Background(), []string{"roblox/roact@1.4.0"}, false)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(report.Installed) != 1 {
		t.Fatalf("expected 1 installed package, got %+v", report.Installed)
	}

	m, err := ReadManifest(e.manifestPath())
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	rng, ok := m.Dependencies[resolver.MustParsePackageID("roblox/roact")]
	if !ok || rng.String() != "1.4.0" {
		t.Errorf("manifest dependency = %v, ok=%v", rng, ok)
	}

	lf, ok, err := ReadLockfile(e.lockfilePath())
	if err != nil || !ok {
		t.Fatalf("ReadLockfile: ok=%v err=%v", ok, err)
	}
	entry, found := lf.Packages.Get("roblox/roact")
	if !found || entry.Version.String() != "1.4.0" {
		t.Errorf("lockfile entry = %+v, found=%v", entry, found)
	}

	indexDir := filepath.Join(dir, "Packages", "_Index", "roblox_roact")
	if _, err := os.Stat(filepath.Join(indexDir, "init.lua")); err != nil {
		t.Errorf("expected a normalized init.lua: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "Packages", "roact.lua")); err != nil {
		t.Errorf("expected a root shim: %v", err)
	}
}

// TestEngineClean is spec.md §8 scenario 5.
func TestEngineClean(t *testing.T) {
	srv := fakeRoactRegistry(t)
	defer srv.Close()

	dir := t.TempDir()
	e := newTestEngine(t, dir, srv.URL)
	if _, err := e.Init("demo"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := e.Add(context.Background(), []string{"roblox/roact@1.4.0"}, false); err != nil {
		t.Fatalf("Add: %v", err)
	}

	m, err := ReadManifest(e.manifestPath())
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	delete(m.Dependencies, resolver.MustParsePackageID("roblox/roact"))
	if err := m.Write(e.manifestPath()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if _, err := e.Clean(); err != nil {
		t.Fatalf("Clean: %v", err)
	}

	indexDir := filepath.Join(dir, "Packages", "_Index", "roblox_roact")
	if _, err := os.Stat(indexDir); !os.IsNotExist(err) {
		t.Errorf("expected the orphan _Index entry to be gone: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "Packages", "roact.lua")); !os.IsNotExist(err) {
		t.Error("expected the orphan shim to be gone")
	}
}

// TestEngineRegenerateLock is spec.md §8 scenario 6.
func TestEngineRegenerateLock(t *testing.T) {
	srv := fakeRoactRegistry(t)
	defer srv.Close()

	dir := t.TempDir()
	e := newTestEngine(t, dir, srv.URL)
	if _, err := e.Init("demo"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	m, err := ReadManifest(e.manifestPath())
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	m.Dependencies[resolver.MustParsePackageID("roblox/roact")] = mustRange(t, "^1.4.0")
	if err := m.Write(e.manifestPath()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if err := os.WriteFile(e.lockfilePath(), []byte(""), 0o644); err != nil {
		t.Fatalf("writing corrupt lockfile: %v", err)
	}

	lf, _, err := e.RegenerateLock(context.Background())
	if err != nil {
		t.Fatalf("RegenerateLock: %v", err)
	}
	if !lf.Validate(m) {
		t.Error("expected the regenerated lockfile to cover the manifest")
	}
}

// TestEngineVerifyLock exercises verify_lock over a covering and a
// non-covering lockfile.
func TestEngineVerifyLock(t *testing.T) {
	srv := fakeRoactRegistry(t)
	defer srv.Close()

	dir := t.TempDir()
	e := newTestEngine(t, dir, srv.URL)
	if _, err := e.Init("demo"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := e.Add(context.Background(), []string{"roblox/roact@1.4.0"}, false); err != nil {
		t.Fatalf("Add: %v", err)
	}

	ok, err := e.VerifyLock()
	if err != nil {
		t.Fatalf("VerifyLock: %v", err)
	}
	if !ok {
		t.Error("expected the lockfile to validate right after install")
	}

	m, err := ReadManifest(e.manifestPath())
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	m.Dependencies[resolver.MustParsePackageID("roblox/llama")] = mustRange(t, "*")
	if err := m.Write(e.manifestPath()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	ok, err = e.VerifyLock()
	if err != nil {
		t.Fatalf("VerifyLock: %v", err)
	}
	if ok {
		t.Error("expected VerifyLock to fail once an uncovered dependency is added")
	}
}

// TestEngineRemove deletes a dependency and confirms the on-disk layout
// and lockfile both shrink to match.
func TestEngineRemove(t *testing.T) {
	srv := fakeRoactRegistry(t)
	defer srv.Close()

	dir := t.TempDir()
	e := newTestEngine(t, dir, srv.URL)
	if _, err := e.Init("demo"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := e.Add(context.Background(), []string{"roblox/roact@1.4.0"}, false); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := e.Remove(context.Background(), []resolver.PackageID{resolver.MustParsePackageID("roblox/roact")}); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	m, err := ReadManifest(e.manifestPath())
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if _, ok := m.Dependencies[resolver.MustParsePackageID("roblox/roact")]; ok {
		t.Error("expected roblox/roact to be removed from the manifest")
	}

	indexDir := filepath.Join(dir, "Packages", "_Index", "roblox_roact")
	if _, err := os.Stat(indexDir); !os.IsNotExist(err) {
		t.Error("expected the removed package's _Index entry to be pruned")
	}
}
