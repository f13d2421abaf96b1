// Package startup drives the engineStartup controller: a one-shot 0..10 timer
// that begins on the first tick any engine of the part is ignited.
package startup

import (
	"fmt"

	"github.com/slefx/plumectl/internal/ignition"
	"github.com/slefx/plumectl/pkg/core"
)

const (
	// Full is the value the timer saturates at.
	Full float32 = 10
	// DefaultDuration is the time in seconds to reach Full.
	DefaultDuration float32 = 5
)

// Timer is owned by one part.
type Timer struct {
	duration float32
	started  bool
	elapsed  float32
	value    float32
}

// Option configures a Timer.
type Option func(*Timer)

// WithDuration overrides DefaultDuration.
func WithDuration(seconds float32) Option {
	return func(t *Timer) {
		t.duration = seconds
	}
}

// New returns a timer that has not started.
func New(opts ...Option) (*Timer, error) {
	t := &Timer{duration: DefaultDuration}
	for _, opt := range opts {
		opt(t)
	}
	if !(t.duration > 0) {
		return nil, fmt.Errorf("startup duration must be positive, got %v", t.duration)
	}
	return t, nil
}

// Step advances the timer. It reports true on the tick the timer starts.
// The timer never resets once started.
func (t *Timer) Step(dt float32, engines []ignition.Engine) bool {
	justStarted := false
	if !t.started && anyIgnited(engines) {
		t.started = true
		t.elapsed = 0
		justStarted = true
	}
	if t.started && t.value < Full {
		t.elapsed += dt
		t.value = clamp(t.elapsed / t.duration * Full)
	}
	return justStarted
}

func anyIgnited(engines []ignition.Engine) bool {
	for _, e := range engines {
		if e != nil && e.Engine().Ignited {
			return true
		}
	}
	return false
}

func clamp(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > Full:
		return Full
	default:
		return v
	}
}

// Value returns the current engineStartup value.
func (t *Timer) Value() float32 { return t.value }

// Started reports whether an ignition has been seen.
func (t *Timer) Started() bool { return t.started }

// Apply writes engineStartup to f.
func (t *Timer) Apply(f *core.Frame) {
	f.Set(core.SignalEngineStartup, t.value)
}
