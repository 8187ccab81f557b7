package registry

import (
	"sync"

	"github.com/OMouta/Jelly/internal/ordermap"
	"github.com/OMouta/Jelly/resolver"
)

// metadataCache is the process-lifetime, single-writer in-memory cache
// keyed by PackageID only (no per-version invalidation), exactly as
// spec.md §4.1 specifies. It reuses the same radix-backed ordermap the
// resolver uses for its picked-version map — the teacher's own
// typed_radix.go is shared across several unrelated caches in gps, and
// this is the same kind of reuse.
type metadataCache struct {
	mu sync.Mutex
	m  *ordermap.Map[Metadata]
}

func newMetadataCache() *metadataCache {
	return &metadataCache{m: ordermap.New[Metadata]()}
}

func (c *metadataCache) get(id resolver.PackageID) (Metadata, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m.Get(id.String())
}

func (c *metadataCache) set(md Metadata) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m.Insert(md.ID.String(), md)
}
