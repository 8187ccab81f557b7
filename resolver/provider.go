package resolver

import "context"

// VersionInfo is the minimum a MetadataProvider must expose about one
// version of a package for resolution purposes: its concrete version, the
// URL the installer should fetch it from, and the production+server
// dependencies declared by that version (dev dependencies of transitive
// packages are never consulted here — spec.md is explicit that only the
// root's dev dependencies are followed).
type VersionInfo struct {
	Version Version
	URL     string
	Deps    map[PackageID]Range
}

// MetadataProvider is the Resolver's sole dependency on the outside world.
// The registry package implements it; tests can supply a fake. Keeping the
// interface here (rather than importing the registry package) avoids the
// resolver depending on HTTP/cache machinery it has no business knowing
// about — the teacher's own "explicit value, dependency-injected" design
// note (spec.md §9) generalized to Go interfaces instead of global state.
type MetadataProvider interface {
	// Versions returns every known version of id, descending by SemVer
	// precedence (the registry guarantees this order; the resolver does
	// not re-sort).
	Versions(ctx context.Context, id PackageID) ([]VersionInfo, error)
}
