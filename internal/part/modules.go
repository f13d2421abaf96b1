package part

import (
	"github.com/slefx/plumectl/internal/deluge"
	"github.com/slefx/plumectl/internal/effects"
	"github.com/slefx/plumectl/internal/ignition"
	"github.com/slefx/plumectl/internal/landing"
	"github.com/slefx/plumectl/internal/liftoff"
	"github.com/slefx/plumectl/internal/startup"
	"github.com/slefx/plumectl/pkg/core"
)

// landingModule builds its controller on the first tick, binding only the
// engines that tick reports.
type landingModule struct {
	ctl *landing.Controller
}

func (m *landingModule) step(p *Part) Output {
	if m.ctl == nil {
		deps := landing.Dependencies{
			Vessel:  p,
			Part:    p,
			Effects: p.instances(),
			Logger:  p.log,
		}
		if _, ok := p.tick.Engine(core.EngineInner); ok {
			deps.Inner = engineRef{p: p, id: core.EngineInner}
		}
		if _, ok := p.tick.Engine(core.EngineCore); ok {
			deps.Core = engineRef{p: p, id: core.EngineCore}
		}
		m.ctl = landing.New(deps)
		p.log.Debug("landing controller bound",
			"inner", deps.Inner != nil,
			"core", deps.Core != nil)
	}

	res, ok := m.ctl.Tick()
	if !ok {
		return Output{}
	}
	return Output{
		Updated: true,
		Frame:   res.Frame,
		Events:  res.Events,
		Pushed:  m.ctl.Binding().Values(&res.Frame),
	}
}

type startupModule struct {
	timer   *startup.Timer
	binding *effects.Binding
}

func newStartupModule(p *Part, opts Options) (*startupModule, error) {
	var timerOpts []startup.Option
	if opts.StartupDuration != 0 {
		timerOpts = append(timerOpts, startup.WithDuration(opts.StartupDuration))
	}
	t, err := startup.New(timerOpts...)
	if err != nil {
		return nil, err
	}
	return &startupModule{
		timer:   t,
		binding: effects.Bind(p.instances(), core.SignalEngineStartup),
	}, nil
}

func (m *startupModule) step(p *Part) Output {
	out := Output{Updated: true}
	if m.timer.Step(p.tick.Telemetry.DeltaTime, p.engines()) {
		out.Events = append(out.Events, core.Event{Type: core.EventStartup, Value: p.tick.Telemetry.MissionTime})
		p.log.Debug("engine startup", "missionTime", p.tick.Telemetry.MissionTime)
	}
	m.timer.Apply(&out.Frame)
	m.binding.Push(&out.Frame)
	out.Pushed = m.binding.Values(&out.Frame)
	return out
}

var liftoffSignals = []core.Signal{core.SignalLiftoffTime, core.SignalLiftoffDown, core.SignalClusterPower}

type producerModule struct {
	producer *liftoff.Producer
	binding  *effects.Binding
}

func newProducerModule(p *Part, opts Options) *producerModule {
	return &producerModule{
		producer: liftoff.NewProducer(opts.Link),
		binding:  effects.Bind(p.instances(), liftoffSignals...),
	}
}

func (m *producerModule) step(p *Part) Output {
	out := Output{Updated: true}
	out.Events = m.producer.Step(p.tick.Telemetry.DeltaTime, p.engines(), p.tick.Pose.Position)
	for _, e := range out.Events {
		p.log.Debug("liftoff transition", "type", e.Type, "phase", m.producer.Phase().String())
	}
	m.producer.Apply(&out.Frame)
	m.binding.Push(&out.Frame)
	out.Pushed = m.binding.Values(&out.Frame)
	return out
}

type consumerModule struct {
	consumer *liftoff.Consumer
	binding  *effects.Binding
}

func newConsumerModule(p *Part, opts Options) *consumerModule {
	return &consumerModule{
		consumer: liftoff.NewConsumer(opts.Link),
		binding:  effects.Bind(p.instances(), append(liftoffSignals, core.SignalDistance)...),
	}
}

func (m *consumerModule) step(p *Part) Output {
	out := Output{Updated: true}
	m.consumer.Step(p.tick.Pose.Position)
	m.consumer.Apply(&out.Frame)
	m.binding.Push(&out.Frame)
	out.Pushed = m.binding.Values(&out.Frame)
	return out
}

type delugeModule struct {
	ctl     *deluge.Controller
	engine  core.EngineID
	binding *effects.Binding
}

func newDelugeModule(p *Part, opts Options) (*delugeModule, error) {
	var delugeOpts []deluge.Option
	if opts.DelugeRampUp != 0 {
		delugeOpts = append(delugeOpts, deluge.WithRampUp(opts.DelugeRampUp))
	}
	if opts.DelugeController != "" {
		delugeOpts = append(delugeOpts, deluge.WithControllerName(opts.DelugeController))
	}
	c, err := deluge.New(delugeOpts...)
	if err != nil {
		return nil, err
	}
	names := map[core.Signal]string{core.SignalDeluge: c.Name()}
	return &delugeModule{
		ctl:     c,
		engine:  opts.DelugeEngine,
		binding: effects.BindNamed(p.instances(), names, core.SignalDeluge),
	}, nil
}

func (m *delugeModule) source(p *Part) ignition.Engine {
	if m.engine != "" {
		if s, ok := p.tick.Engine(m.engine); ok {
			return status(s)
		}
		return nil
	}
	if len(p.tick.Engines) == 0 {
		return nil
	}
	return status(p.tick.Engines[0])
}

func (m *delugeModule) step(p *Part) Output {
	out := Output{Updated: true}
	if m.ctl.Step(p.tick.Telemetry.DeltaTime, m.source(p)) {
		out.Events = append(out.Events, core.Event{Type: core.EventDelugeStop, Value: p.tick.Telemetry.MissionTime})
	}
	m.ctl.Apply(&out.Frame)
	m.binding.Push(&out.Frame)
	out.Pushed = m.binding.Values(&out.Frame)
	return out
}
