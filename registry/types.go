// Package registry implements typed, read-only access to the remote Wally
// registry: search, metadata, and tarball download. It is the only
// component in the core that makes network calls.
package registry

import "github.com/OMouta/Jelly/resolver"

// SearchResult is one hit from the package-search endpoint.
type SearchResult struct {
	ID          resolver.PackageID `json:"-"`
	Versions    []string           `json:"versions"`
	Description string             `json:"description,omitempty"`
	Keywords    []string           `json:"keywords,omitempty"`
	Repository  string             `json:"repository,omitempty"`
	License     string             `json:"license,omitempty"`
}

// VersionEntry is one version's metadata, as returned in descending
// precedence order by the registry.
type VersionEntry struct {
	Version            resolver.Version
	Realm              string
	Description        string
	License            string
	Authors            []string
	Repository         string
	Homepage           string
	Dependencies       map[resolver.PackageID]resolver.Range
	ServerDependencies map[resolver.PackageID]resolver.Range
	DevDependencies    map[resolver.PackageID]resolver.Range
}

// Metadata is the ordered sequence of VersionEntry for one package. The
// Registry Client never mutates a Metadata value once returned from its
// cache — callers get their own slice header, but entries are treated as
// immutable by convention.
type Metadata struct {
	ID       resolver.PackageID
	Versions []VersionEntry // descending by Version
}
