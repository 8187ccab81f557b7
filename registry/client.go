package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"

	"github.com/OMouta/Jelly/internal/diskcache"
	"github.com/OMouta/Jelly/internal/jerrors"
	"github.com/OMouta/Jelly/resolver"
)

// DefaultBaseURL is the Wally registry the core talks to unless the
// manifest points at an alternate one.
const DefaultBaseURL = "https://api.wally.run"

// WallyVersion is sent as the Wally-Version header on every request, the
// protocol revision this client speaks.
const WallyVersion = "0.3.2"

// ClientVersion is reported in the User-Agent header.
const ClientVersion = "0.1.0"

// Client is a typed, read-only handle onto a Wally-compatible registry.
// It owns its own in-memory metadata cache and, optionally, a best-effort
// on-disk artifact cache — no process-wide singletons, per the teacher's
// "explicit value, dependency-injected" design note.
type Client struct {
	baseURL string
	http    *retryablehttp.Client
	cache   *metadataCache
	disk    *diskcache.Cache
}

// Option configures a Client.
type Option func(*Client)

// WithDiskCache attaches a best-effort on-disk cache of downloaded
// archives. A nil cache (e.g. because diskcache.Open failed) is a no-op —
// the core must never depend on this cache's contents.
func WithDiskCache(c *diskcache.Cache) Option {
	return func(cl *Client) { cl.disk = c }
}

// WithHTTPClient overrides the underlying retryablehttp.Client, primarily
// for tests that point it at an httptest.Server.
func WithHTTPClient(h *retryablehttp.Client) Option {
	return func(cl *Client) { cl.http = h }
}

// NewClient returns a Client talking to baseURL (e.g. DefaultBaseURL).
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		cache:   newMetadataCache(),
		http: &retryablehttp.Client{
			HTTPClient:   &http.Client{Timeout: 30 * time.Second},
			RetryWaitMin: 200 * time.Millisecond,
			RetryWaitMax: 2 * time.Second,
			RetryMax:     3,
			Backoff:      retryablehttp.DefaultBackoff,
			CheckRetry:   retryablehttp.DefaultRetryPolicy,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewDefaultClient returns a Client pointed at baseURL with a best-effort
// on-disk cache opened at diskcache.DefaultDir. A failure to open that
// cache degrades to no disk cache at all — callers never depend on its
// presence, per spec.md §5.
func NewDefaultClient(baseURL string) *Client {
	c := NewClient(baseURL)
	dir, err := diskcache.DefaultDir()
	if err != nil {
		return c
	}
	cache, err := diskcache.Open(dir)
	if err != nil {
		return c
	}
	WithDiskCache(cache)(c)
	return c
}

func (c *Client) newRequest(ctx context.Context, method, rawURL, accept string) (*retryablehttp.Request, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "jelly-cli/"+ClientVersion)
	req.Header.Set("Accept", accept)
	req.Header.Set("Wally-Version", WallyVersion)
	return req, nil
}

func (c *Client) do(req *retryablehttp.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, jerrors.New(jerrors.KindRegistryError, req.URL.String(), "", err)
	}
	return resp, nil
}

// Search queries the registry for packages matching query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	u := fmt.Sprintf("%s/v1/package-search?query=%s", c.baseURL, url.QueryEscape(query))
	req, err := c.newRequest(ctx, http.MethodGet, u, "application/json")
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "", ""); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, jerrors.New(jerrors.KindRegistryError, "reading search response", "", err)
	}
	results, err := decodeSearchResults(body)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Metadata returns the registry metadata for id, consulting the in-memory
// cache first. Cache entries never expire or get invalidated per-version
// within a process's lifetime.
func (c *Client) Metadata(ctx context.Context, id resolver.PackageID) (Metadata, error) {
	if md, ok := c.cache.get(id); ok {
		return md, nil
	}

	u := fmt.Sprintf("%s/v1/package-metadata/%s/%s", c.baseURL, id.Scope, id.Name)
	req, err := c.newRequest(ctx, http.MethodGet, u, "application/json")
	if err != nil {
		return Metadata{}, err
	}
	resp, err := c.do(req)
	if err != nil {
		return Metadata{}, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, jerrors.KindPackageNotFound.String(), id.String()); err != nil {
		return Metadata{}, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Metadata{}, jerrors.New(jerrors.KindRegistryError, "reading metadata response", id.String(), err)
	}

	md, err := decodeMetadata(id, body)
	if err != nil {
		return Metadata{}, err
	}
	c.cache.set(md)
	return md, nil
}

// LatestVersion returns the first (highest) entry of Metadata(id) — the
// registry guarantees descending order.
func (c *Client) LatestVersion(ctx context.Context, id resolver.PackageID) (resolver.Version, error) {
	md, err := c.Metadata(ctx, id)
	if err != nil {
		return resolver.Version{}, err
	}
	if len(md.Versions) == 0 {
		return resolver.Version{}, jerrors.New(jerrors.KindVersionNotFound, "latest version", id.String(), nil)
	}
	return md.Versions[0].Version, nil
}

// ContentsURL returns the canonical archive URL for one resolved version,
// used both by download and by the Lockfile Store when writing the
// `resolved` field.
func (c *Client) ContentsURL(id resolver.PackageID, v resolver.Version) string {
	return fmt.Sprintf("%s/v1/package-contents/%s/%s/%s", c.baseURL, id.Scope, id.Name, v.String())
}

// CachedDigest returns the sha256 digest of (id, version)'s archive iff
// it is already sitting in the disk cache from an earlier Download —
// it never triggers a network fetch. Used to populate lockfile integrity
// opportunistically, without forcing a download that wouldn't otherwise
// happen.
func (c *Client) CachedDigest(id resolver.PackageID, v resolver.Version) (sha256Hex string, ok bool) {
	if c.disk == nil {
		return "", false
	}
	cached, ok := c.disk.Get(id.String() + "@" + v.String())
	if !ok {
		return "", false
	}
	return digestHex(cached), true
}

// Download fetches the archive bytes for (id, version), consulting the
// best-effort disk cache first. It also returns a sha256 digest of the
// bytes so callers can populate the lockfile's optional integrity field.
func (c *Client) Download(ctx context.Context, id resolver.PackageID, v resolver.Version) (data []byte, sha256Hex string, err error) {
	cacheKey := id.String() + "@" + v.String()
	if c.disk != nil {
		if cached, ok := c.disk.Get(cacheKey); ok {
			return cached, digestHex(cached), nil
		}
	}

	u := c.ContentsURL(id, v)
	req, err := c.newRequest(ctx, http.MethodGet, u, "application/zip")
	if err != nil {
		return nil, "", err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, jerrors.KindPackageNotFound.String(), id.String()); err != nil {
		return nil, "", err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", jerrors.New(jerrors.KindRegistryError, "reading archive", id.String(), err)
	}

	if c.disk != nil {
		_ = c.disk.Put(cacheKey, body) // best-effort; cache writes never fail the download
	}

	return body, digestHex(body), nil
}

func digestHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func checkStatus(resp *http.Response, notFoundKind, notFoundID string) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	if resp.StatusCode == http.StatusNotFound {
		return jerrors.New(jerrors.KindPackageNotFound, "", notFoundID, errors.Errorf("%s not found", notFoundID))
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return jerrors.New(jerrors.KindRegistryError, fmt.Sprintf("status %d", resp.StatusCode), "", errors.New(string(body)))
}

// Versions implements resolver.MetadataProvider.
func (c *Client) Versions(ctx context.Context, id resolver.PackageID) ([]resolver.VersionInfo, error) {
	md, err := c.Metadata(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]resolver.VersionInfo, 0, len(md.Versions))
	for _, ve := range md.Versions {
		deps := make(map[resolver.PackageID]resolver.Range, len(ve.Dependencies)+len(ve.ServerDependencies))
		for id, rng := range ve.Dependencies {
			deps[id] = rng
		}
		for id, rng := range ve.ServerDependencies {
			deps[id] = rng
		}
		out = append(out, resolver.VersionInfo{
			Version: ve.Version,
			URL:     c.ContentsURL(id, ve.Version),
			Deps:    deps,
		})
	}
	return out, nil
}

var _ resolver.MetadataProvider = (*Client)(nil)
