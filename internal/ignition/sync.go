package ignition

import (
	"github.com/chewxy/math32"
	"github.com/slefx/plumectl/pkg/core"
)

// Arm is the shared descent arm flag the synchronizer reads and clears.
type Arm interface {
	Armed() bool
	Disarm()
}

// Synchronizer owns the Inner and Core tracks of one part.
// Either engine may be nil when the part does not carry it.
type Synchronizer struct {
	inner Engine
	core  Engine

	Inner Track
	Core  Track

	events []core.Event
}

// NewSynchronizer wires the two engines.
func NewSynchronizer(inner, coreEngine Engine) *Synchronizer {
	return &Synchronizer{inner: inner, core: coreEngine}
}

// Reset clears both tracks.
func (s *Synchronizer) Reset() {
	s.Inner.Reset()
	s.Core.Reset()
}

// Simultaneous reports whether both ignitions are recorded within SyncWindow.
func (s *Synchronizer) Simultaneous() bool {
	c, i := s.Core.IgniteTime, s.Inner.IgniteTime
	return c.Set && i.Set && math32.Abs(c.At-i.At) <= SyncWindow
}

// AllowInner reports whether the Inner ramp may progress at now.
func (s *Synchronizer) AllowInner(now float32) bool {
	if !s.Simultaneous() {
		return true
	}
	c := s.Core.IgniteTime
	return c.Set && now-c.At >= InnerDelay
}

// Step runs one tick: latch ignitions, advance the permitted ramps, then reset
// the track of any engine observed shut down. The returned events are valid
// until the next Step.
func (s *Synchronizer) Step(now, dt float32, arm Arm) []core.Event {
	s.events = s.events[:0]

	var coreStatus, innerStatus core.EngineStatus
	if s.core != nil {
		coreStatus = s.core.Engine()
		if coreStatus.Ignited && s.Core.latch(now) {
			s.emit(core.EventIgnition, core.EngineCore, now)
		}
	}
	if s.inner != nil {
		innerStatus = s.inner.Engine()
		if innerStatus.Ignited && s.Inner.latch(now) {
			s.emit(core.EventIgnition, core.EngineInner, now)
		}
	}

	if s.core != nil && ramping(coreStatus, &s.Core, arm) {
		if s.Core.advance(dt) {
			s.emit(core.EventRampTriggered, core.EngineCore, now)
		}
	}

	if s.inner != nil && s.AllowInner(now) && ramping(innerStatus, &s.Inner, arm) {
		if s.Inner.advance(dt) {
			s.emit(core.EventRampTriggered, core.EngineInner, now)
		}
	}

	if s.core != nil && !coreStatus.Ignited {
		s.shutdown(&s.Core, core.EngineCore, now, arm)
	}
	if s.inner != nil && !innerStatus.Ignited {
		s.shutdown(&s.Inner, core.EngineInner, now, arm)
	}

	return s.events
}

func ramping(st core.EngineStatus, t *Track, arm Arm) bool {
	return !t.Triggered && st.Ignited && st.Throttle > 0 && arm.Armed()
}

func (s *Synchronizer) shutdown(t *Track, id core.EngineID, now float32, arm Arm) {
	if t.IgniteTime.Set {
		s.emit(core.EventShutdown, id, now)
	}
	t.Reset()
	arm.Disarm()
}

func (s *Synchronizer) emit(typ core.EventType, id core.EngineID, v float32) {
	s.events = append(s.events, core.Event{Type: typ, Engine: id, Value: v})
}

// Apply writes both ramp values to f.
func (s *Synchronizer) Apply(f *core.Frame) {
	f.Set(core.SignalLandingBurnCore, s.Core.RampValue)
	f.Set(core.SignalLandingBurnInner, s.Inner.RampValue)
}
