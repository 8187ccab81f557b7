package jelly

import (
	"context"

	"github.com/OMouta/Jelly/internal/ordermap"
	"github.com/OMouta/Jelly/registry"
	"github.com/OMouta/Jelly/resolver"
)

// LockfileStore ties the Version Resolver and Registry Client together to
// produce and refresh Lockfiles, per spec.md §4.3.
type LockfileStore struct {
	client   *registry.Client
	resolver *resolver.Resolver
}

// NewLockfileStore returns a Store backed by client for resolution and
// for constructing `resolved` archive URLs.
func NewLockfileStore(client *registry.Client) *LockfileStore {
	return &LockfileStore{client: client, resolver: resolver.New(client)}
}

// direct returns the root-level requirement map the resolver walks from:
// dependencies, devDependencies, and serverDependencies of the manifest
// are all direct roots (devDependencies of the root ARE followed,
// transitively only production+server deps of what they pull in are —
// see resolver.ResolveTree).
func direct(m *Manifest) map[resolver.PackageID]resolver.Range {
	out := make(map[resolver.PackageID]resolver.Range, len(m.Dependencies)+len(m.DevDependencies)+len(m.ServerDependencies))
	for id, r := range m.Dependencies {
		out[id] = r
	}
	for id, r := range m.DevDependencies {
		out[id] = r
	}
	for id, r := range m.ServerDependencies {
		out[id] = r
	}
	return out
}

// Generate runs resolve_tree across the manifest's direct + dev deps and
// builds a fresh Lockfile, per spec.md §4.3.
func (s *LockfileStore) Generate(ctx context.Context, m *Manifest) (*Lockfile, []resolver.Conflict, error) {
	graph, conflicts, err := s.resolver.ResolveTree(ctx, direct(m))
	if err != nil {
		return nil, nil, err
	}

	packages := ordermap.New[LockEntry]()
	for _, id := range graph.IDs() {
		node, _ := graph.Get(id)
		entry := LockEntry{
			Version:      node.Version,
			Resolved:     s.client.ContentsURL(id, node.Version),
			Dependencies: DepMap(node.Deps),
		}
		if sha256Hex, ok := s.tryIntegrity(id, node.Version); ok {
			entry.Integrity = "sha256-" + sha256Hex
		}
		packages.Insert(id.String(), entry)
	}

	lf := &Lockfile{
		Name:               m.Name,
		Version:            m.Version,
		Packages:           packages,
		Dependencies:       m.Dependencies,
		DevDependencies:    m.DevDependencies,
		ServerDependencies: m.ServerDependencies,
	}
	return lf, conflicts, nil
}

// tryIntegrity populates the lockfile's optional integrity digest only
// when the archive is already sitting in the disk cache from a prior
// download — per spec.md §4.3 integrity is opportunistic, not a reason
// to fetch an archive generate wouldn't otherwise need.
func (s *LockfileStore) tryIntegrity(id resolver.PackageID, v resolver.Version) (sha256Hex string, ok bool) {
	return s.client.CachedDigest(id, v)
}

// Update regenerates the lockfile iff the manifest's dependency view has
// changed relative to the current lockfile's top-level view; otherwise
// the existing lockfile is reused unchanged.
func (s *LockfileStore) Update(ctx context.Context, m *Manifest, current *Lockfile) (*Lockfile, []resolver.Conflict, error) {
	if current != nil && sameDepView(m, current) {
		return current, nil, nil
	}
	return s.Generate(ctx, m)
}

func sameDepView(m *Manifest, lf *Lockfile) bool {
	if len(m.Dependencies) != len(lf.Dependencies) ||
		len(m.DevDependencies) != len(lf.DevDependencies) ||
		len(m.ServerDependencies) != len(lf.ServerDependencies) {
		return false
	}
	for id, r := range m.Dependencies {
		if other, ok := lf.Dependencies[id]; !ok || other.String() != r.String() {
			return false
		}
	}
	for id, r := range m.DevDependencies {
		if other, ok := lf.DevDependencies[id]; !ok || other.String() != r.String() {
			return false
		}
	}
	for id, r := range m.ServerDependencies {
		if other, ok := lf.ServerDependencies[id]; !ok || other.String() != r.String() {
			return false
		}
	}
	return true
}
