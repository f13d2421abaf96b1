package liftoff

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/slefx/plumectl/pkg/core"
)

// Consumer mirrors the values of the producer on its link.
type Consumer struct {
	link     *Link
	snapshot Snapshot
	distance float32
}

// NewConsumer returns a consumer reading link. link may be nil, in which case
// the consumer mirrors a zero snapshot.
func NewConsumer(link *Link) *Consumer {
	return &Consumer{link: link}
}

// Step picks up the newest snapshot and measures the distance from position to
// the producer.
func (c *Consumer) Step(position mgl64.Vec3) {
	if c.link != nil {
		c.snapshot, _ = c.link.Latest()
	}
	c.distance = float32(position.Sub(c.snapshot.Position).Len())
}

func (c *Consumer) Snapshot() Snapshot { return c.snapshot }
func (c *Consumer) Distance() float32  { return c.distance }

// Apply writes liftoff time, liftoff down, ClusterPower and distance to f.
func (c *Consumer) Apply(f *core.Frame) {
	f.Set(core.SignalLiftoffTime, c.snapshot.Up)
	f.Set(core.SignalLiftoffDown, c.snapshot.Down)
	f.Set(core.SignalClusterPower, c.snapshot.Thrust)
	f.Set(core.SignalDistance, c.distance)
}
