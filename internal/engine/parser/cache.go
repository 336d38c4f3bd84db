package parser

import (
	"sync"

	"importgraph/internal/core/errors"
	"importgraph/internal/shared/observability"
)

type cacheSlot struct {
	once sync.Once
	file *SourceFile
	err  error
}

// SourceCache holds at most one parse result per absolute path for the
// lifetime of a run. Concurrent requests for the same path share a single
// parse; failures are cached as well so a broken file is read only once.
type SourceCache struct {
	mu     sync.Mutex
	slots  map[string]*cacheSlot
	closed bool
}

func NewSourceCache() *SourceCache {
	return &SourceCache{slots: make(map[string]*cacheSlot)}
}

// Get returns the cached result for path, calling load exactly once per path.
func (c *SourceCache) Get(path string, load func() (*SourceFile, error)) (*SourceFile, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, errors.AddContext(errors.New(errors.CodeInternal, "source cache closed"), errors.CtxPath, path)
	}
	slot, ok := c.slots[path]
	if !ok {
		slot = &cacheSlot{}
		c.slots[path] = slot
		observability.SourceCacheEntries.Inc()
	}
	c.mu.Unlock()

	slot.once.Do(func() {
		slot.file, slot.err = load()
	})
	return slot.file, slot.err
}

// Close releases every cached tree. Files obtained from the cache must not be
// walked afterwards.
func (c *SourceCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for _, slot := range c.slots {
		// Waits for an in-flight load.
		slot.once.Do(func() {})
		slot.file.close()
	}
	observability.SourceCacheEntries.Sub(float64(len(c.slots)))
	c.slots = nil
}
