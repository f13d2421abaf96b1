// Package descent implements the Idle/Decelerating machine that produces the
// normalized down-velocity signal and the shared arm flag for landing burns.
package descent

import (
	"github.com/slefx/plumectl/internal/telemetry"
	"github.com/slefx/plumectl/internal/util"
)

const (
	// AscendResetHeight is the climb after which a descent episode is abandoned.
	AscendResetHeight float32 = 70
	// FloorSpeed and FullScaleSpeed bound the down-velocity ramp.
	FloorSpeed     float32 = 5
	FullScaleSpeed float32 = 50

	MaxDownVelocity float32 = 1
	MinDownVelocity float32 = 0.1
)

// State is the machine state.
type State uint8

const (
	Idle State = iota
	Decelerating
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Decelerating:
		return "decelerating"
	default:
		return "unknown"
	}
}

// Outcome reports what a Step did.
type Outcome uint8

const (
	// Continue means the tick's remaining state logic should run.
	Continue Outcome = iota
	// Reset means a global reset happened and dependent tracks must be cleared.
	Reset
)

// Machine is owned by exactly one controller instance.
type Machine struct {
	state           State
	decelStartSpeed float32
	downVelocity    float32
	armed           bool

	entered  bool
	armedNow bool
}

// New returns a machine in Idle.
func New() *Machine {
	return &Machine{}
}

// Step advances the machine with this tick's sample and surface speed.
func (m *Machine) Step(s telemetry.Sample, surfaceSpeed float32) Outcome {
	m.entered, m.armedNow = false, false

	if !s.Descending() || s.AscendHeightAccum > AscendResetHeight {
		m.reset()
		return Reset
	}

	if m.state == Idle && s.VerticalAccel > 0 {
		m.state = Decelerating
		m.decelStartSpeed = surfaceSpeed
		m.entered = true
	}

	if m.state == Decelerating {
		m.downVelocity = DownVelocityFor(m.decelStartSpeed, surfaceSpeed)
	}

	if !m.armed && m.downVelocity >= MinDownVelocity && m.downVelocity <= MaxDownVelocity {
		m.armed = true
		m.armedNow = true
	}
	return Continue
}

// DownVelocityFor maps surface speed to the down-velocity signal for a deceleration
// that started at startSpeed.
func DownVelocityFor(startSpeed, speed float32) float32 {
	switch {
	case speed <= FloorSpeed:
		return 0
	case speed <= FullScaleSpeed:
		return MinDownVelocity
	default:
		t := util.InverseLerp(startSpeed, FullScaleSpeed, speed)
		return util.Lerp(MaxDownVelocity, MinDownVelocity, t)
	}
}

func (m *Machine) reset() {
	m.state = Idle
	m.downVelocity = 0
	m.armed = false
}

// Disarm clears the arm flag; an engine shutdown always requires re-arming.
func (m *Machine) Disarm() {
	m.armed = false
}

func (m *Machine) State() State             { return m.state }
func (m *Machine) DecelStartSpeed() float32 { return m.decelStartSpeed }
func (m *Machine) DownVelocity() float32    { return m.downVelocity }
func (m *Machine) Armed() bool              { return m.armed }

// Entered reports whether the last Step moved Idle -> Decelerating.
func (m *Machine) Entered() bool { return m.entered }

// JustArmed reports whether the last Step set the arm flag.
func (m *Machine) JustArmed() bool { return m.armedNow }

// DownDown is 1 while decelerating, else 0.
func (m *Machine) DownDown() float32 {
	if m.state == Decelerating {
		return 1
	}
	return 0
}
