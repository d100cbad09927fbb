package reader

import (
	"sync"

	"github.com/hlop3z/schemasync/internal/schema"
)

// Cache holds the last schema a Live reader produced, tagged with the
// database schema version it was read at. A Cache belongs to one reader and
// one connection; it is never shared process-wide.
type Cache struct {
	mu       sync.Mutex
	version  int64
	snapshot *schema.Schema
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{}
}

// Get returns the cached snapshot when it was read at version.
func (c *Cache) Get(version int64) (*schema.Schema, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snapshot == nil || c.version != version {
		return nil, false
	}
	return c.snapshot, true
}

// Put stores s as read at version.
func (c *Cache) Put(version int64, s *schema.Schema) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.version = version
	c.snapshot = s
}

// Invalidate drops the cached snapshot. The migrator calls it after every
// committed batch.
func (c *Cache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snapshot = nil
}
