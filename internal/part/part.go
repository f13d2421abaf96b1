// Package part hosts one effect module instance per attached vehicle part and
// adapts parsed host ticks to the module's providers.
package part

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/slefx/plumectl/internal/effects"
	"github.com/slefx/plumectl/internal/ignition"
	"github.com/slefx/plumectl/internal/liftoff"
	"github.com/slefx/plumectl/internal/parser"
	"github.com/slefx/plumectl/pkg/core"
)

// Options configures the module built for a part.
// Link connects liftoff producers and consumers of the same vessel.
// DelugeEngine selects the engine feeding the deluge; the first reported engine when empty.
type Options struct {
	Logger           *slog.Logger
	Link             *liftoff.Link
	StartupDuration  float32
	DelugeRampUp     float32
	DelugeController string
	DelugeEngine     core.EngineID
}

// Output is the result of one tick. Updated is false when the host had no
// vessel and nothing was pushed. Pushed holds the controller values written to
// the effect instance, in push order.
type Output struct {
	Updated bool
	Frame   core.Frame
	Events  []core.Event
	Pushed  []core.NamedValue
}

type module interface {
	step(p *Part) Output
}

// Part is one attached effect module. Tick calls are serialized by its mutex.
type Part struct {
	mu sync.Mutex

	id    string
	kind  core.Kind
	table *effects.Table
	log   *slog.Logger

	tick    parser.Tick
	hasTick bool
	ticks   uint64

	module module
}

// New builds the module for kind, exposing controllers as its effect instance.
func New(id string, kind core.Kind, controllers []string, opts Options) (*Part, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	p := &Part{
		id:    id,
		kind:  kind,
		table: effects.NewTable(controllers...),
		log:   log.With("part", id, "kind", string(kind)),
	}

	var err error
	switch kind {
	case core.KindLanding:
		p.module = &landingModule{}
	case core.KindStartup:
		p.module, err = newStartupModule(p, opts)
	case core.KindLiftoffProducer:
		p.module = newProducerModule(p, opts)
	case core.KindLiftoffConsumer:
		p.module = newConsumerModule(p, opts)
	case core.KindDeluge:
		p.module, err = newDelugeModule(p, opts)
	default:
		return nil, fmt.Errorf("unsupported module kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("building %s module for part %s: %w", kind, id, err)
	}
	return p, nil
}

func (p *Part) ID() string            { return p.id }
func (p *Part) Kind() core.Kind       { return p.kind }
func (p *Part) Table() *effects.Table { return p.table }

// Ticks returns how many ticks the part has processed.
func (p *Part) Ticks() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ticks
}

// Tick feeds t to the module.
func (p *Part) Tick(t parser.Tick) Output {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tick = t
	p.hasTick = t.Active
	p.ticks++
	if !t.Active {
		return Output{}
	}
	return p.module.step(p)
}

// Telemetry implements landing.VesselProvider.
func (p *Part) Telemetry() (core.Telemetry, bool) {
	return p.tick.Telemetry, p.hasTick
}

// Pose implements orientation.Source.
func (p *Part) Pose() core.Pose {
	return p.tick.Pose
}

// Reference implements orientation.Source.
func (p *Part) Reference(ref core.Reference) (mgl32.Vec3, bool) {
	if int(ref) >= core.ReferenceCount {
		return mgl32.Vec3{}, false
	}
	r := p.tick.References[ref]
	return r.Forward, r.Present
}

// engineRef reads one named engine from the part's latest tick. An engine
// missing from the tick reads as shut down.
type engineRef struct {
	p  *Part
	id core.EngineID
}

func (e engineRef) Engine() core.EngineStatus {
	s, _ := e.p.tick.Engine(e.id)
	return s
}

// status is a fixed engine reading.
type status core.EngineStatus

func (s status) Engine() core.EngineStatus { return core.EngineStatus(s) }

// engines returns every engine of the latest tick.
func (p *Part) engines() []ignition.Engine {
	out := make([]ignition.Engine, len(p.tick.Engines))
	for i, e := range p.tick.Engines {
		out[i] = status(e)
	}
	return out
}

func (p *Part) instances() []effects.Instance {
	return []effects.Instance{p.table}
}
