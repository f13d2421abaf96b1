package mission

import (
	"log/slog"
	"sync"

	"github.com/slefx/plumectl/pkg/core"
)

// NoFlight is the name reported while no flight is open.
const NoFlight = "No flight"

// Context holds the current flight
type Context struct {
	mu     sync.RWMutex
	flight *core.Flight
}

// NewContext creates a new Context with no flight open
func NewContext() *Context {
	return &Context{}
}

// GetFlight returns the current flight, nil when none is open
func (mc *Context) GetFlight() *core.Flight {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.flight
}

// SetFlight sets the current flight; nil closes it
func (mc *Context) SetFlight(flight *core.Flight) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.flight = flight
}

// Active reports whether a flight is open
func (mc *Context) Active() bool {
	return mc.GetFlight() != nil
}

// Name returns the current flight name or NoFlight
func (mc *Context) Name() string {
	if f := mc.GetFlight(); f != nil {
		return f.Name
	}
	return NoFlight
}

// LogAttrs is a logging.ContextProvider adding the flight and vessel to every record
func (mc *Context) LogAttrs() []slog.Attr {
	f := mc.GetFlight()
	if f == nil {
		return nil
	}
	return []slog.Attr{slog.String("flight", f.Name), slog.String("vessel", f.Vessel)}
}
