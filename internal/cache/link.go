package cache

import (
	"sync"

	"github.com/slefx/plumectl/internal/liftoff"
)

// LinkCache maps vessel names to the liftoff link shared by their parts
type LinkCache struct {
	mu    sync.Mutex
	links map[string]*liftoff.Link
}

// NewLinkCache creates a new LinkCache
func NewLinkCache() *LinkCache {
	return &LinkCache{
		links: make(map[string]*liftoff.Link),
	}
}

// Get returns the link of a vessel, creating it on first use
func (c *LinkCache) Get(vessel string) *liftoff.Link {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.links[vessel]
	if !ok {
		l = liftoff.NewLink()
		c.links[vessel] = l
	}
	return l
}

// Len returns the number of vessels with a link
func (c *LinkCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.links)
}

// Reset closes and forgets every link
func (c *LinkCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, l := range c.links {
		l.Close()
	}
	c.links = make(map[string]*liftoff.Link)
}
