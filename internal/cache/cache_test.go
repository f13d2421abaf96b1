package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slefx/plumectl/internal/liftoff"
	"github.com/slefx/plumectl/internal/part"
	"github.com/slefx/plumectl/pkg/core"
)

func newPart(t *testing.T, id string) *part.Part {
	t.Helper()
	p, err := part.New(id, core.KindStartup, []string{"engineStartup"}, part.Options{})
	require.NoError(t, err)
	return p
}

func TestPartCache_AddAndGet(t *testing.T) {
	c := NewPartCache()

	assert.False(t, c.Add(newPart(t, "engine-1")))

	got, ok := c.Get("engine-1")
	require.True(t, ok)
	assert.Equal(t, "engine-1", got.ID())
	assert.Equal(t, core.KindStartup, got.Kind())

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestPartCache_AddReplaces(t *testing.T) {
	c := NewPartCache()
	first := newPart(t, "p")
	second := newPart(t, "p")

	c.Add(first)
	assert.True(t, c.Add(second))

	got, _ := c.Get("p")
	assert.Same(t, second, got)
	assert.Equal(t, 1, c.Len())
}

func TestPartCache_Delete(t *testing.T) {
	c := NewPartCache()
	c.Add(newPart(t, "p"))

	assert.True(t, c.Delete("p"))
	assert.False(t, c.Delete("p"))
	assert.Equal(t, 0, c.Len())
}

func TestPartCache_ResetAndIDs(t *testing.T) {
	c := NewPartCache()
	for _, id := range []string{"c", "a", "b"} {
		c.Add(newPart(t, id))
	}
	assert.Equal(t, []string{"a", "b", "c"}, c.IDs())

	c.Reset()
	assert.Empty(t, c.IDs())
}

func TestPartCache_ConcurrentAccess(t *testing.T) {
	c := NewPartCache()
	parts := make([]*part.Part, 50)
	for i := range parts {
		parts[i] = newPart(t, string(rune('A'+i)))
	}

	var wg sync.WaitGroup
	for _, p := range parts {
		wg.Add(1)
		go func(p *part.Part) {
			defer wg.Done()
			c.Add(p)
			c.Get(p.ID())
		}(p)
	}
	wg.Wait()

	assert.Equal(t, 50, c.Len())
}

func TestLinkCache_SharedPerVessel(t *testing.T) {
	c := NewLinkCache()

	a := c.Get("Falcon")
	assert.Same(t, a, c.Get("Falcon"))
	assert.NotSame(t, a, c.Get("Starship"))
	assert.Equal(t, 2, c.Len())

	a.Publish(liftoff.Snapshot{Up: 3})
	s, ok := c.Get("Falcon").Latest()
	require.True(t, ok)
	assert.Equal(t, float32(3), s.Up)
}

func TestLinkCache_Reset(t *testing.T) {
	c := NewLinkCache()
	old := c.Get("Falcon")
	old.Publish(liftoff.Snapshot{Up: 1})

	c.Reset()
	assert.Equal(t, 0, c.Len())
	assert.NotSame(t, old, c.Get("Falcon"))

	_, ok := c.Get("Falcon").Latest()
	assert.False(t, ok)
}
