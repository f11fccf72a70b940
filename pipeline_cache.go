package prim

import (
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/gogpu/wgpu/hal"
)

// PipelineCache shares compiled pipelines between primitives that use the
// same shader program.
//
// Pipelines are keyed by a hash of the WGSL source and built on first use.
// Primitives created with WithPipelineCache borrow the cached pipeline and
// never destroy it; the cache releases every pipeline in Destroy, which must
// run after those primitives have been destroyed.
//
// PipelineCache is safe for concurrent use. It uses RWMutex with
// double-check locking for reads and writes.
type PipelineCache struct {
	device hal.Device

	mu        sync.RWMutex
	pipelines map[uint64]*Pipeline

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewPipelineCache creates an empty cache for device.
func NewPipelineCache(device hal.Device) *PipelineCache {
	return &PipelineCache{
		device:    device,
		pipelines: make(map[uint64]*Pipeline),
	}
}

// Get returns the pipeline for source, building it if it is not cached yet.
// Build failures are not cached.
func (c *PipelineCache) Get(source string) (*Pipeline, error) {
	if c.device == nil {
		return nil, ErrNilDevice
	}
	key := hashSource(source)

	// Fast path: read lock
	c.mu.RLock()
	if p, ok := c.pipelines[key]; ok {
		c.mu.RUnlock()
		c.hits.Add(1)
		return p, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.pipelines[key]; ok {
		c.hits.Add(1)
		return p, nil
	}

	p, err := NewPipeline(c.device, fmt.Sprintf("prim_%016x", key), source)
	if err != nil {
		return nil, err
	}
	c.pipelines[key] = p
	c.misses.Add(1)

	Logger().Debug("prim: pipeline cached", "key", fmt.Sprintf("%016x", key), "entries", len(c.pipelines))
	return p, nil
}

// Stats returns the number of cache hits and misses.
func (c *PipelineCache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of cached pipelines.
func (c *PipelineCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pipelines)
}

// Destroy releases all cached pipelines and empties the cache.
func (c *PipelineCache) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, p := range c.pipelines {
		p.Destroy()
		delete(c.pipelines, key)
	}
}

// hashSource returns the FNV-1a hash of a shader program.
func hashSource(source string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(source))
	return h.Sum64()
}
