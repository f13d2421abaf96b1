// Package telemetry derives vertical motion from the raw vessel state each tick.
package telemetry

import (
	"github.com/chewxy/math32"
	"github.com/slefx/plumectl/pkg/core"
)

// DeadBand is the vertical speed below which the vessel is neither ascending nor descending.
const DeadBand float32 = 0.1

// Direction is the ascend/descend classification of a sample.
type Direction int8

const (
	Descending Direction = -1
	Level      Direction = 0
	Ascending  Direction = 1
)

// Sample is the result of one sampler step.
type Sample struct {
	VerticalSpeed     float32
	VerticalAccel     float32
	Altitude          float32
	AscendHeightAccum float32
	Direction         Direction
}

func (s Sample) Ascending() bool  { return s.Direction == Ascending }
func (s Sample) Descending() bool { return s.Direction == Descending }

// Sampler carries the previous tick's vertical speed and altitude.
type Sampler struct {
	lastVerticalSpeed float32
	lastAltitude      float32
	ascendHeightAccum float32
}

// NewSampler returns a sampler whose previous values are zero.
func NewSampler() *Sampler {
	return &Sampler{}
}

// Step consumes one telemetry frame.
func (s *Sampler) Step(t core.Telemetry) Sample {
	up := core.Up(t.Position, t.BodyCenter)
	vs := t.Velocity.Dot(up)

	var accel float32
	if t.DeltaTime > 0 {
		accel = (vs - s.lastVerticalSpeed) / t.DeltaTime
	}
	s.lastVerticalSpeed = vs

	dir := classify(vs)
	if dir == Ascending {
		s.ascendHeightAccum += math32.Max(0, t.Altitude-s.lastAltitude)
	} else {
		s.ascendHeightAccum = 0
	}
	s.lastAltitude = t.Altitude

	return Sample{
		VerticalSpeed:     vs,
		VerticalAccel:     accel,
		Altitude:          t.Altitude,
		AscendHeightAccum: s.ascendHeightAccum,
		Direction:         dir,
	}
}

func classify(vs float32) Direction {
	switch {
	case vs > DeadBand:
		return Ascending
	case vs < -DeadBand:
		return Descending
	default:
		return Level
	}
}
