package telemetry

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/slefx/plumectl/pkg/core"
	"github.com/stretchr/testify/assert"
)

func frame(vs, alt float32) core.Telemetry {
	return core.Telemetry{
		Position:   mgl64.Vec3{0, 600000 + float64(alt), 0},
		Velocity:   mgl32.Vec3{3, vs, -2},
		BodyCenter: mgl64.Vec3{},
		Altitude:   alt,
		DeltaTime:  0.02,
	}
}

func TestStep_VerticalSpeedIsProjectionOnUp(t *testing.T) {
	s := NewSampler()
	got := s.Step(frame(-12.5, 100))
	assert.InDelta(t, -12.5, got.VerticalSpeed, 1e-5)
	assert.Equal(t, Descending, got.Direction)
}

func TestStep_Acceleration(t *testing.T) {
	s := NewSampler()
	s.Step(frame(-20, 100))
	got := s.Step(frame(-18, 99))
	assert.InDelta(t, 100, got.VerticalAccel, 1e-3)
}

func TestStep_ZeroDeltaTimeGivesNoAcceleration(t *testing.T) {
	s := NewSampler()
	f := frame(-5, 10)
	f.DeltaTime = 0
	got := s.Step(f)
	assert.Equal(t, float32(0), got.VerticalAccel)
}

func TestStep_DeadBand(t *testing.T) {
	tests := []struct {
		name string
		vs   float32
		want Direction
	}{
		{"exactly positive edge", 0.1, Level},
		{"exactly negative edge", -0.1, Level},
		{"zero", 0, Level},
		{"ascending", 0.11, Ascending},
		{"descending", -0.11, Descending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.vs))
		})
	}
}

func TestStep_AscendHeightAccumulatesAndResets(t *testing.T) {
	s := NewSampler()
	s.Step(frame(-1, 100)) // primes last altitude

	got := s.Step(frame(5, 110))
	assert.InDelta(t, 10, got.AscendHeightAccum, 1e-4)
	got = s.Step(frame(5, 130))
	assert.InDelta(t, 30, got.AscendHeightAccum, 1e-4)

	// altitude loss while still ascending never subtracts
	got = s.Step(frame(5, 125))
	assert.InDelta(t, 30, got.AscendHeightAccum, 1e-4)

	got = s.Step(frame(0, 125))
	assert.Equal(t, float32(0), got.AscendHeightAccum)
}
