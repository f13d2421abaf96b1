package part

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/slefx/plumectl/internal/liftoff"
	"github.com/slefx/plumectl/internal/parser"
	"github.com/slefx/plumectl/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dt float32 = 0.02

func tick(now, vs, speed float32, engines ...core.EngineStatus) parser.Tick {
	t := parser.Tick{
		PartID: "p1",
		Active: true,
		Telemetry: core.Telemetry{
			Position:     mgl64.Vec3{0, 600000, 0},
			Velocity:     mgl32.Vec3{0, vs, 0},
			Altitude:     1000,
			SurfaceSpeed: speed,
			MissionTime:  now,
			DeltaTime:    dt,
		},
		Pose: core.Pose{
			Position: mgl64.Vec3{0, 600000, 0},
			Rotation: mgl32.QuatIdent(),
		},
		Engines: engines,
	}
	t.References[core.ReferenceTT10] = parser.Reference{Forward: mgl32.Vec3{0, 1, 0}, Present: true}
	return t
}

func names(values []core.NamedValue) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.Name
	}
	return out
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := New("p1", core.Kind("rover"), nil, Options{})
	assert.Error(t, err)
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := New("p1", core.KindStartup, nil, Options{StartupDuration: -1})
	assert.Error(t, err)
	_, err = New("p1", core.KindDeluge, nil, Options{DelugeRampUp: -1})
	assert.Error(t, err)
}

func TestLanding_PushesExposedControllersOnly(t *testing.T) {
	p, err := New("p1", core.KindLanding, []string{"TT10", "TT11", "downdown", "LandingBurnCore"}, Options{})
	require.NoError(t, err)

	core1 := core.EngineStatus{ID: core.EngineCore}
	out := p.Tick(tick(0, -20, 72, core1))
	require.True(t, out.Updated)
	assert.Equal(t, []string{"TT10", "downdown", "LandingBurnCore"}, names(out.Pushed))
	assert.True(t, out.Frame.Has(core.SignalUpDown), "frame carries every signal")

	out = p.Tick(tick(dt, -18, 72, core1))
	assert.Equal(t, float32(1), out.Frame.Value(core.SignalDownDown))

	core1.Ignited, core1.Throttle = true, 1
	out = p.Tick(tick(2*dt, -17, 72, core1))
	var ignition bool
	for _, e := range out.Events {
		ignition = ignition || (e.Type == core.EventIgnition && e.Engine == core.EngineCore)
	}
	assert.True(t, ignition)
	assert.Greater(t, out.Frame.Value(core.SignalLandingBurnCore), float32(0))
	// Inner was never reported, so it has no track
	assert.Zero(t, out.Frame.Value(core.SignalLandingBurnInner))

	v, ok := p.Table().Get("LandingBurnCore")
	require.True(t, ok)
	assert.Equal(t, out.Frame.Value(core.SignalLandingBurnCore), v)
	assert.Equal(t, uint64(3), p.Ticks())
}

func TestTick_InactiveDoesNothing(t *testing.T) {
	p, err := New("p1", core.KindLanding, []string{"upndown"}, Options{})
	require.NoError(t, err)

	out := p.Tick(parser.Tick{PartID: "p1"})
	assert.False(t, out.Updated)
	assert.Empty(t, p.Table().Snapshot())

	_, ok := p.Telemetry()
	assert.False(t, ok)
}

func TestStartup(t *testing.T) {
	p, err := New("p1", core.KindStartup, []string{"engineStartup"}, Options{StartupDuration: 1})
	require.NoError(t, err)

	out := p.Tick(tick(0, 0, 0, core.EngineStatus{ID: "main"}))
	assert.Empty(t, out.Events)
	assert.Equal(t, []core.NamedValue{{Name: "engineStartup", Value: 0}}, out.Pushed)

	out = p.Tick(tick(dt, 0, 0, core.EngineStatus{ID: "main", Ignited: true}))
	require.Len(t, out.Events, 1)
	assert.Equal(t, core.EventStartup, out.Events[0].Type)
	assert.InDelta(t, 0.2, out.Frame.Value(core.SignalEngineStartup), 1e-5)
}

func TestDeluge_RenamedControllerAndEngineSelection(t *testing.T) {
	p, err := New("pad", core.KindDeluge, []string{"water"}, Options{
		DelugeController: "water",
		DelugeRampUp:     dt * 2,
		DelugeEngine:     "center",
	})
	require.NoError(t, err)

	side := core.EngineStatus{ID: "side", FinalThrust: 100}
	out := p.Tick(tick(0, 0, 0, side))
	assert.Equal(t, []core.NamedValue{{Name: "water", Value: 0}}, out.Pushed, "only the selected engine counts")

	center := core.EngineStatus{ID: "center", FinalThrust: 100}
	out = p.Tick(tick(dt, 0, 0, side, center))
	assert.InDelta(t, 0.5, out.Frame.Value(core.SignalDeluge), 1e-6)

	center.FinalThrust = 0
	out = p.Tick(tick(2*dt, 0, 0, side, center))
	require.Len(t, out.Events, 1)
	assert.Equal(t, core.EventDelugeStop, out.Events[0].Type)
}

func TestDeluge_DefaultsToFirstEngine(t *testing.T) {
	p, err := New("pad", core.KindDeluge, []string{"deluge"}, Options{})
	require.NoError(t, err)

	out := p.Tick(tick(0, 0, 0, core.EngineStatus{ID: "a", FinalThrust: 5}, core.EngineStatus{ID: "b"}))
	assert.InDelta(t, dt, out.Frame.Value(core.SignalDeluge), 1e-6)

	out = p.Tick(tick(dt, 0, 0))
	assert.Len(t, out.Events, 1, "no engines reads as shutdown")
}

func TestLiftoff_ProducerFeedsConsumer(t *testing.T) {
	link := liftoff.NewLink()
	prod, err := New("clamp", core.KindLiftoffProducer, []string{"liftoff time", "ClusterPower"}, Options{Link: link})
	require.NoError(t, err)
	cons, err := New("tower", core.KindLiftoffConsumer, []string{"liftoff time", "distance"}, Options{Link: link})
	require.NoError(t, err)

	pt := tick(0, 0, 0, core.EngineStatus{ID: "e1", FinalThrust: 1}, core.EngineStatus{ID: "e2", FinalThrust: 2})
	out := prod.Tick(pt)
	assert.Equal(t, []string{"liftoff time", "ClusterPower"}, names(out.Pushed))
	assert.Equal(t, float32(3), out.Frame.Value(core.SignalClusterPower))

	ct := tick(0, 0, 0)
	ct.Pose.Position = mgl64.Vec3{0, 600000, 40}
	out = cons.Tick(ct)
	assert.Equal(t, []string{"liftoff time", "distance"}, names(out.Pushed))
	assert.Equal(t, dt, out.Frame.Value(core.SignalLiftoffTime))
	assert.InDelta(t, 40, out.Frame.Value(core.SignalDistance), 1e-6)
}

func TestPart_OrientationSource(t *testing.T) {
	p, err := New("p1", core.KindLanding, nil, Options{})
	require.NoError(t, err)
	p.Tick(tick(0, 0, 0))

	fwd, ok := p.Reference(core.ReferenceTT10)
	assert.True(t, ok)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, fwd)

	_, ok = p.Reference(core.ReferenceTT12)
	assert.False(t, ok)
	_, ok = p.Reference(core.Reference(9))
	assert.False(t, ok)
}
