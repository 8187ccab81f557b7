package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/OMouta/Jelly/internal/jerrors"
	"github.com/OMouta/Jelly/resolver"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c := NewClient(baseURL)
	h := retryablehttp.NewClient()
	h.HTTPClient = http.DefaultClient
	h.RetryMax = 0
	h.Logger = nil
	WithHTTPClient(h)(c)
	return c
}

func TestClientMetadataHeaders(t *testing.T) {
	var gotUA, gotWally, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotWally = r.Header.Get("Wally-Version")
		gotAccept = r.Header.Get("Accept")
		fmt.Fprint(w, `{"versions":[{"package":{"scope":"roblox","name":"roact","version":"1.4.0"},"dependencies":{}}]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	md, err := c.Metadata(context.Background(), resolver.PackageID{Scope: "roblox", Name: "roact"})
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if len(md.Versions) != 1 || md.Versions[0].Version.String() != "1.4.0" {
		t.Fatalf("unexpected metadata: %+v", md)
	}
	if gotUA != "jelly-cli/"+ClientVersion {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if gotWally != WallyVersion {
		t.Errorf("Wally-Version = %q", gotWally)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q", gotAccept)
	}
}

func TestClientMetadataCached(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, `{"versions":[{"package":{"scope":"a","name":"b","version":"1.0.0"}}]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	id := resolver.PackageID{Scope: "a", Name: "b"}
	if _, err := c.Metadata(context.Background(), id); err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if _, err := c.Metadata(context.Background(), id); err != nil {
		t.Fatalf("Metadata (cached): %v", err)
	}
	if hits != 1 {
		t.Errorf("expected 1 HTTP hit due to caching, got %d", hits)
	}
}

func TestClientMetadataNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Metadata(context.Background(), resolver.PackageID{Scope: "a", Name: "missing"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !jerrors.Is(err, jerrors.KindPackageNotFound) {
		t.Errorf("expected KindPackageNotFound, got %v", err)
	}
}

func TestClientDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/zip" {
			t.Errorf("Accept = %q, want application/zip", r.Header.Get("Accept"))
		}
		w.Write([]byte("zip-bytes"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	v, _ := resolver.NewVersion("1.0.0")
	data, digest, err := c.Download(context.Background(), resolver.PackageID{Scope: "a", Name: "b"}, v)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(data) != "zip-bytes" {
		t.Errorf("data = %q", data)
	}
	if digest == "" {
		t.Error("expected a non-empty digest")
	}
}

func TestClientLatestVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"versions":[
			{"package":{"scope":"a","name":"b","version":"1.5.0"}},
			{"package":{"scope":"a","name":"b","version":"1.4.0"}}
		]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	v, err := c.LatestVersion(context.Background(), resolver.PackageID{Scope: "a", Name: "b"})
	if err != nil {
		t.Fatalf("LatestVersion: %v", err)
	}
	if v.String() != "1.5.0" {
		t.Errorf("LatestVersion = %q, want 1.5.0 (first entry wins)", v.String())
	}
}

func TestClientContentsURL(t *testing.T) {
	c := NewClient(DefaultBaseURL)
	v, _ := resolver.NewVersion("1.4.0")
	id := resolver.PackageID{Scope: "roblox", Name: "roact"}
	want := "https://api.wally.run/v1/package-contents/roblox/roact/1.4.0"
	if got := c.ContentsURL(id, v); got != want {
		t.Errorf("ContentsURL = %q, want %q", got, want)
	}
}

func TestClientVersionsImplementsProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"versions":[{"package":{"scope":"a","name":"b","version":"1.0.0"},"dependencies":{"c/d":"^1.0.0"}}]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	vs, err := c.Versions(context.Background(), resolver.PackageID{Scope: "a", Name: "b"})
	if err != nil {
		t.Fatalf("Versions: %v", err)
	}
	if len(vs) != 1 {
		t.Fatalf("expected 1 version, got %d", len(vs))
	}
	depID := resolver.PackageID{Scope: "c", Name: "d"}
	if _, ok := vs[0].Deps[depID]; !ok {
		t.Errorf("expected dependency c/d in %+v", vs[0].Deps)
	}
}
