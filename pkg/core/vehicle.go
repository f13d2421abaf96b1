// pkg/core/vehicle.go
package core

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Telemetry is the vessel state sampled by the host once per fixed tick.
// Positions are world-space and kept in float64 the way the host stores them;
// everything derived from them is float32.
type Telemetry struct {
	Position     mgl64.Vec3
	Velocity     mgl32.Vec3
	BodyCenter   mgl64.Vec3
	Altitude     float32
	SurfaceSpeed float32
	MissionTime  float32
	DeltaTime    float32
}

// Up returns the normalized direction from the body center to p, narrowed to float32.
// The zero vector is returned when p sits on the body center.
func Up(p, bodyCenter mgl64.Vec3) mgl32.Vec3 {
	d := p.Sub(bodyCenter)
	l := d.Len()
	if l == 0 {
		return mgl32.Vec3{}
	}
	d = d.Mul(1 / l)
	return mgl32.Vec3{float32(d[0]), float32(d[1]), float32(d[2])}
}

// Pose is the world transform of the part hosting an effect module.
type Pose struct {
	Position mgl64.Vec3
	Rotation mgl32.Quat
}

// EngineID names a propulsion unit on a part.
type EngineID string

const (
	EngineInner EngineID = "Inner"
	EngineCore  EngineID = "Core"
)

// EngineStatus is what the host reports for one engine each tick.
type EngineStatus struct {
	ID          EngineID
	Ignited     bool
	Throttle    float32
	FinalThrust float32
}

// Reference identifies one of the thrust-direction transforms of a part.
type Reference uint8

const (
	ReferenceTT10 Reference = iota
	ReferenceTT11
	ReferenceTT12
	ReferenceTT13

	ReferenceCount = 4
)

// Signal returns the controller signal the reference's angle is published on.
func (r Reference) Signal() Signal {
	return SignalTT10 + Signal(r)
}
