// Package deluge drives the water deluge controller: a linear ramp up while the
// engine produces thrust and a three-stage fade after it stops.
package deluge

import (
	"fmt"

	"github.com/slefx/plumectl/internal/ignition"
	"github.com/slefx/plumectl/internal/util"
	"github.com/slefx/plumectl/pkg/core"
)

const (
	// ActiveThrust is the thrust above which the deluge runs.
	ActiveThrust float32 = 0.01
	// DefaultRampUp is the time in seconds to go from 0 to full flow.
	DefaultRampUp float32 = 1
	// DefaultController is the controller name the value is pushed under.
	DefaultController = "deluge"

	stopPoint     float32 = 0.75
	slowSection   float32 = 2
	pauseSection  float32 = 2
	finalDropTime float32 = 3
)

// Controller is owned by one part.
type Controller struct {
	rampUp float32
	name   string

	everActive   bool
	shuttingDown bool
	shutdown     float32
	value        float32
}

// Option configures a Controller.
type Option func(*Controller)

// WithRampUp overrides DefaultRampUp.
func WithRampUp(seconds float32) Option {
	return func(c *Controller) { c.rampUp = seconds }
}

// WithControllerName overrides DefaultController.
func WithControllerName(name string) Option {
	return func(c *Controller) { c.name = name }
}

// New returns a controller at zero flow.
func New(opts ...Option) (*Controller, error) {
	c := &Controller{rampUp: DefaultRampUp, name: DefaultController}
	for _, opt := range opts {
		opt(c)
	}
	if !(c.rampUp > 0) {
		return nil, fmt.Errorf("deluge ramp-up time must be positive, got %v", c.rampUp)
	}
	if c.name == "" {
		return nil, fmt.Errorf("deluge controller name is empty")
	}
	return c, nil
}

// Step advances the flow value from the engine's current thrust. A nil engine
// counts as inactive. It reports true on the tick a shutdown fade begins.
func (c *Controller) Step(dt float32, engine ignition.Engine) bool {
	active := engine != nil && engine.Engine().FinalThrust > ActiveThrust

	if active {
		c.everActive = true
		c.shuttingDown = false
		c.shutdown = 0
		if c.value < 1 {
			c.value += dt / c.rampUp
			if c.value > 1 {
				c.value = 1
			}
		}
		return false
	}

	if !c.everActive {
		c.value = 0
		return false
	}

	started := false
	if !c.shuttingDown {
		c.shuttingDown = true
		c.shutdown = 0
		started = true
	}
	c.shutdown += dt
	c.value = fade(c.shutdown)
	return started
}

// fade is the three-stage shutdown curve at t seconds after the engine stopped.
func fade(t float32) float32 {
	switch {
	case t <= slowSection:
		return util.Lerp(1, stopPoint, t/slowSection)
	case t <= slowSection+pauseSection:
		return stopPoint
	default:
		v := util.Lerp(stopPoint, 0, (t-slowSection-pauseSection)/finalDropTime)
		if v < 0 {
			v = 0
		}
		return v
	}
}

// Value returns the current flow value.
func (c *Controller) Value() float32 { return c.value }

// Name returns the controller name the value is pushed under.
func (c *Controller) Name() string { return c.name }

// Apply writes the flow value to f.
func (c *Controller) Apply(f *core.Frame) {
	f.Set(core.SignalDeluge, c.value)
}
