// Package landing composes the descent and landing-burn synchronization state
// machine of one part: telemetry sampling, orientation angles, the descent
// machine, ignition synchronization and the effect push, run once per tick.
package landing

import (
	"log/slog"

	"github.com/slefx/plumectl/internal/descent"
	"github.com/slefx/plumectl/internal/effects"
	"github.com/slefx/plumectl/internal/ignition"
	"github.com/slefx/plumectl/internal/orientation"
	"github.com/slefx/plumectl/internal/telemetry"
	"github.com/slefx/plumectl/pkg/core"
)

// VesselProvider supplies the vessel telemetry of the current tick.
// ok is false when there is no active vessel.
type VesselProvider interface {
	Telemetry() (t core.Telemetry, ok bool)
}

// Dependencies holds everything a Controller reads or writes.
// Part, Inner and Core may be nil when the part lacks them.
type Dependencies struct {
	Vessel  VesselProvider
	Part    orientation.Source
	Inner   ignition.Engine
	Core    ignition.Engine
	Effects []effects.Instance
	Logger  *slog.Logger
}

// Result is the outcome of one tick.
type Result struct {
	Frame  core.Frame
	Events []core.Event
	Sample telemetry.Sample
}

// Controller is owned by one part and driven by the host's fixed-step callback.
type Controller struct {
	deps    Dependencies
	log     *slog.Logger
	sampler *telemetry.Sampler
	descent *descent.Machine
	sync    *ignition.Synchronizer
	binding *effects.Binding
}

// New builds a controller and resolves its effect bindings.
func New(deps Dependencies) *Controller {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		deps:    deps,
		log:     log,
		sampler: telemetry.NewSampler(),
		descent: descent.New(),
		sync:    ignition.NewSynchronizer(deps.Inner, deps.Core),
		binding: effects.Bind(deps.Effects, core.LandingSignals...),
	}
}

// Tick runs one fixed step. It returns false, without touching any state or
// pushing anything, when no telemetry is available.
func (c *Controller) Tick() (Result, bool) {
	if c.deps.Vessel == nil {
		return Result{}, false
	}
	tel, ok := c.deps.Vessel.Telemetry()
	if !ok {
		return Result{}, false
	}

	var res Result
	res.Sample = c.sampler.Step(tel)
	res.Frame.Set(core.SignalUpDown, float32(res.Sample.Direction))

	angles := orientation.Calculate(c.deps.Part, tel.BodyCenter)
	angles.Apply(&res.Frame)

	wasActive := c.descent.State() == descent.Decelerating || c.descent.Armed()
	if c.descent.Step(res.Sample, tel.SurfaceSpeed) == descent.Reset {
		c.sync.Reset()
		if wasActive {
			res.Events = append(res.Events, core.Event{Type: core.EventDescentReset, Value: res.Sample.AscendHeightAccum})
			c.log.Debug("descent reset",
				"verticalSpeed", res.Sample.VerticalSpeed,
				"ascendHeight", res.Sample.AscendHeightAccum)
		}
		c.finish(&res)
		return res, true
	}

	if c.descent.Entered() {
		res.Events = append(res.Events, core.Event{Type: core.EventDecelerating, Value: c.descent.DecelStartSpeed()})
		c.log.Debug("decelerating", "startSpeed", c.descent.DecelStartSpeed(), "missionTime", tel.MissionTime)
	}
	if c.descent.JustArmed() {
		res.Events = append(res.Events, core.Event{Type: core.EventArmed, Value: c.descent.DownVelocity()})
	}

	for _, e := range c.sync.Step(tel.MissionTime, tel.DeltaTime, c.descent) {
		res.Events = append(res.Events, e)
		c.log.Debug("engine event", "type", e.Type, "engine", e.Engine, "missionTime", tel.MissionTime)
	}

	c.finish(&res)
	return res, true
}

func (c *Controller) finish(res *Result) {
	res.Frame.Set(core.SignalDownDown, c.descent.DownDown())
	res.Frame.Set(core.SignalDownVelocity, c.descent.DownVelocity())
	c.sync.Apply(&res.Frame)
	c.binding.Push(&res.Frame)
}

// Binding returns the resolved effect binding.
func (c *Controller) Binding() *effects.Binding { return c.binding }

// Snapshot is a read-only view of the controller state.
type Snapshot struct {
	State           descent.State
	DecelStartSpeed float32
	DownVelocity    float32
	Armed           bool
	Inner           ignition.Track
	Core            ignition.Track
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		State:           c.descent.State(),
		DecelStartSpeed: c.descent.DecelStartSpeed(),
		DownVelocity:    c.descent.DownVelocity(),
		Armed:           c.descent.Armed(),
		Inner:           c.sync.Inner,
		Core:            c.sync.Core,
	}
}
