package startup

import (
	"testing"

	"github.com/slefx/plumectl/internal/ignition"
	"github.com/slefx/plumectl/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engine struct{ on bool }

func (e *engine) Engine() core.EngineStatus { return core.EngineStatus{Ignited: e.on} }

func TestNew_RejectsNonPositiveDuration(t *testing.T) {
	for _, d := range []float32{0, -1} {
		_, err := New(WithDuration(d))
		assert.Error(t, err)
	}
}

func TestTimer(t *testing.T) {
	e := &engine{}
	engines := []ignition.Engine{nil, e}
	tm, err := New(WithDuration(1))
	require.NoError(t, err)

	assert.False(t, tm.Step(0.1, engines))
	assert.Zero(t, tm.Value())
	assert.False(t, tm.Started())

	e.on = true
	assert.True(t, tm.Step(0.1, engines))
	assert.InDelta(t, 1, tm.Value(), 1e-5)

	for i := 0; i < 20; i++ {
		assert.False(t, tm.Step(0.1, engines))
	}
	assert.Equal(t, Full, tm.Value())

	e.on = false
	tm.Step(0.1, engines)
	assert.Equal(t, Full, tm.Value(), "never resets")

	var f core.Frame
	tm.Apply(&f)
	assert.Equal(t, Full, f.Value(core.SignalEngineStartup))
}

func TestTimer_DefaultDuration(t *testing.T) {
	tm, err := New()
	require.NoError(t, err)
	e := &engine{on: true}
	for i := 0; i < 125; i++ {
		tm.Step(0.02, []ignition.Engine{e})
	}
	assert.InDelta(t, 5, tm.Value(), 1e-3)
}
