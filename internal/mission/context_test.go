package mission

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/slefx/plumectl/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestContext_Default(t *testing.T) {
	ctx := NewContext()

	assert.Nil(t, ctx.GetFlight())
	assert.False(t, ctx.Active())
	assert.Equal(t, NoFlight, ctx.Name())
	assert.Empty(t, ctx.LogAttrs())
}

func TestContext_SetFlight(t *testing.T) {
	ctx := NewContext()
	ctx.SetFlight(&core.Flight{Name: "CRS-30", Vessel: "Falcon 9"})

	assert.True(t, ctx.Active())
	assert.Equal(t, "CRS-30", ctx.Name())
	assert.Equal(t, []slog.Attr{
		slog.String("flight", "CRS-30"),
		slog.String("vessel", "Falcon 9"),
	}, ctx.LogAttrs())

	ctx.SetFlight(nil)
	assert.Equal(t, NoFlight, ctx.Name())
}

func TestContext_ThreadSafe(t *testing.T) {
	ctx := NewContext()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			ctx.SetFlight(&core.Flight{Name: "f"})
		}()
		go func() {
			defer wg.Done()
			_ = ctx.Name()
		}()
	}
	wg.Wait()
	assert.Equal(t, "f", ctx.Name())
}
