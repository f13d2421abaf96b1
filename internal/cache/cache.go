package cache

import (
	"sort"
	"sync"

	"github.com/slefx/plumectl/internal/part"
)

// PartCache holds the attached parts so a tick never waits on anything but the
// part's own lock. Latency in these calls is critical: the host blocks on every tick.
type PartCache struct {
	m     sync.Mutex
	parts map[string]*part.Part
}

func NewPartCache() *PartCache {
	return &PartCache{
		parts: make(map[string]*part.Part),
	}
}

// Reset drops every part.
func (c *PartCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.parts = make(map[string]*part.Part)
}

// Add stores p under its ID, replacing any part attached with the same ID.
// It reports whether a part was replaced.
func (c *PartCache) Add(p *part.Part) bool {
	c.m.Lock()
	defer c.m.Unlock()
	_, replaced := c.parts[p.ID()]
	c.parts[p.ID()] = p
	return replaced
}

func (c *PartCache) Get(id string) (*part.Part, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	p, ok := c.parts[id]
	return p, ok
}

// Delete removes a part and reports whether it was attached.
func (c *PartCache) Delete(id string) bool {
	c.m.Lock()
	defer c.m.Unlock()
	_, ok := c.parts[id]
	delete(c.parts, id)
	return ok
}

func (c *PartCache) Len() int {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.parts)
}

// IDs returns the attached part IDs, sorted.
func (c *PartCache) IDs() []string {
	c.m.Lock()
	defer c.m.Unlock()
	ids := make([]string, 0, len(c.parts))
	for id := range c.parts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
