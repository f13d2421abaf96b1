// Package liftoff drives the liftoff plume controllers: a producer on the launch
// clamp side accumulates engine-on time and runs the post-liftoff fade, and
// consumers on other parts mirror its values plus their distance to it.
package liftoff

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/slefx/plumectl/internal/ignition"
	"github.com/slefx/plumectl/internal/util"
	"github.com/slefx/plumectl/pkg/core"
)

const (
	// ThrustThreshold is the summed thrust above which the cluster counts as firing.
	ThrustThreshold float32 = 0.5
	// MaxUp caps the accumulated firing time.
	MaxUp float32 = 150
	// DownDuration is the length of the fade after thrust is lost.
	DownDuration float32 = 30
	downFrom     float32 = 1
	downTo       float32 = 30
)

// Phase is the producer state.
type Phase uint8

const (
	Idle Phase = iota
	Up
	Down
	Done
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "IDLE"
	case Up:
		return "UP"
	case Down:
		return "DOWN"
	case Done:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Producer is owned by one part and publishes to one Link.
type Producer struct {
	link *Link

	phase     Phase
	up        float32
	down      float32
	downTimer float32
	thrust    float32
}

// NewProducer returns an idle producer publishing to link. link may be nil.
func NewProducer(link *Link) *Producer {
	return &Producer{link: link}
}

// Step advances the producer and publishes the resulting snapshot.
func (p *Producer) Step(dt float32, engines []ignition.Engine, position mgl64.Vec3) []core.Event {
	var events []core.Event

	p.thrust = 0
	for _, e := range engines {
		if e != nil {
			p.thrust += e.Engine().FinalThrust
		}
	}
	firing := p.thrust > ThrustThreshold

	if p.phase < Down && firing {
		p.up += dt
		if p.up > MaxUp {
			p.up = MaxUp
		}
		p.phase = Up
	}

	if p.phase < Down && p.up > 0 && !firing {
		p.phase = Down
		p.downTimer = 0
		events = append(events, core.Event{Type: core.EventLiftoffDown, Value: p.up})
	}

	if p.phase == Down {
		p.downTimer += dt
		p.down = util.Lerp(downFrom, downTo, p.downTimer/DownDuration)
		if p.downTimer >= DownDuration {
			p.down = 0
			p.up = 0
			p.phase = Done
			events = append(events, core.Event{Type: core.EventLiftoffDone})
		}
	}

	if p.link != nil {
		p.link.Publish(p.Snapshot(position))
	}
	return events
}

// Snapshot returns the shareable state at position.
func (p *Producer) Snapshot(position mgl64.Vec3) Snapshot {
	return Snapshot{Up: p.up, Down: p.down, Thrust: p.thrust, Position: position}
}

func (p *Producer) Phase() Phase { return p.phase }

// Apply writes liftoff time, liftoff down and ClusterPower to f.
func (p *Producer) Apply(f *core.Frame) {
	f.Set(core.SignalLiftoffTime, p.up)
	f.Set(core.SignalLiftoffDown, p.down)
	f.Set(core.SignalClusterPower, p.thrust)
}
