// Package ignition tracks landing-burn ignitions of the Inner and Core engines and
// advances their one-shot visual ramps, staggering the Inner ramp when both
// engines light within the synchronization window.
package ignition

import (
	"github.com/slefx/plumectl/internal/util"
	"github.com/slefx/plumectl/pkg/core"
)

const (
	// RampTime is the span of one landing-burn ramp in seconds.
	RampTime float32 = 2
	// RampPeak is the value the ramp interpolates towards.
	RampPeak float32 = 2
	// SyncWindow is the largest ignition gap still treated as simultaneous.
	SyncWindow float32 = 0.5
	// InnerDelay holds a simultaneous Inner ramp after Core ignition.
	InnerDelay float32 = 0.5
)

// Stamp is an optional mission time.
type Stamp struct {
	At  float32
	Set bool
}

// Track is the ramp state of one engine.
type Track struct {
	IgniteTime Stamp
	Triggered  bool
	RampTimer  float32
	RampValue  float32
}

// Reset clears the track back to its pre-ignition state.
func (t *Track) Reset() {
	*t = Track{}
}

// latch records now as ignition time unless one is already recorded.
// It reports whether a new ignition was recorded.
func (t *Track) latch(now float32) bool {
	if t.IgniteTime.Set {
		return false
	}
	t.IgniteTime = Stamp{At: now, Set: true}
	return true
}

// advance moves the ramp forward by dt. It reports whether the ramp completed on this call.
func (t *Track) advance(dt float32) bool {
	if t.Triggered {
		return false
	}
	t.RampTimer += dt
	f := t.RampTimer / RampTime
	t.RampValue = util.Lerp(0, RampPeak, f)
	if f >= 1 {
		t.RampValue = 0
		t.Triggered = true
		return true
	}
	return false
}

// Engine supplies the live status of one engine.
type Engine interface {
	Engine() core.EngineStatus
}
