package effects

import (
	"testing"

	"github.com/slefx/plumectl/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface checks
var (
	_ Instance = (*Table)(nil)
	_ Handle   = (*Value)(nil)
)

type countingInstance struct {
	lookups int
	table   *Table
}

func (c *countingInstance) Controller(name string) (Handle, bool) {
	c.lookups++
	return c.table.Controller(name)
}

func TestBind_ResolvesOnce(t *testing.T) {
	inst := &countingInstance{table: NewTable("downVelocity", "TT10")}
	b := Bind([]Instance{inst}, core.LandingSignals...)
	resolved := inst.lookups

	var f core.Frame
	f.Set(core.SignalDownVelocity, 0.4)
	for i := 0; i < 10; i++ {
		b.Push(&f)
	}

	assert.Equal(t, resolved, inst.lookups)
	assert.Equal(t, len(core.LandingSignals), resolved)
}

func TestPush_FansOutToAllInstances(t *testing.T) {
	a := NewTable("upndown", "downdown", "LandingBurnCore")
	b := NewTable("LandingBurnCore", "unrelated")
	bind := Bind([]Instance{a, nil, b}, core.LandingSignals...)

	var f core.Frame
	f.Set(core.SignalUpDown, -1)
	f.Set(core.SignalDownDown, 1)
	f.Set(core.SignalLandingBurnCore, 1.25)
	f.Set(core.SignalLandingBurnInner, 0.5)
	bind.Push(&f)

	v, ok := a.Get("upndown")
	require.True(t, ok)
	assert.Equal(t, float32(-1), v)
	v, _ = a.Get("LandingBurnCore")
	assert.Equal(t, float32(1.25), v)
	v, _ = b.Get("LandingBurnCore")
	assert.Equal(t, float32(1.25), v)

	_, ok = b.Get("unrelated")
	assert.False(t, ok, "unknown controllers are never written")
	assert.False(t, bind.Bound(core.SignalLandingBurnInner))
	assert.True(t, bind.Bound(core.SignalDownDown))
}

func TestPush_SkipsAbsentSignals(t *testing.T) {
	tbl := NewTable("TT10", "TT11")
	bind := Bind([]Instance{tbl}, core.LandingSignals...)

	var f core.Frame
	f.Set(core.SignalTT10, 12)
	bind.Push(&f)

	_, ok := tbl.Get("TT11")
	assert.False(t, ok)
	assert.Equal(t, []core.NamedValue{{Name: "TT10", Value: 12}}, tbl.Snapshot())
}

func TestNilBinding(t *testing.T) {
	var b *Binding
	var f core.Frame
	b.Push(&f)
	assert.False(t, b.Bound(core.SignalTT10))
}

func TestTable_NamesKeepOrderAndDropDuplicates(t *testing.T) {
	tbl := NewTable("b", "a", "b", "c")
	assert.Equal(t, []string{"b", "a", "c"}, tbl.Names())
}

func TestBindNamed_Override(t *testing.T) {
	tbl := NewTable("water", "deluge")
	b := BindNamed([]Instance{tbl}, map[core.Signal]string{core.SignalDeluge: "water"}, core.SignalDeluge)

	var f core.Frame
	f.Set(core.SignalDeluge, 0.5)
	b.Push(&f)

	v, ok := tbl.Get("water")
	assert.True(t, ok)
	assert.Equal(t, float32(0.5), v)
	_, ok = tbl.Get("deluge")
	assert.False(t, ok)
}

func TestBinding_Values(t *testing.T) {
	tbl := NewTable("downdown", "water")
	b := BindNamed([]Instance{tbl}, map[core.Signal]string{core.SignalDeluge: "water"},
		core.SignalDownDown, core.SignalDeluge, core.SignalUpDown)

	var f core.Frame
	f.Set(core.SignalDeluge, 0.25)
	f.Set(core.SignalUpDown, -1)

	assert.Equal(t, []core.NamedValue{{Name: "water", Value: 0.25}}, b.Values(&f))

	var nilBinding *Binding
	assert.Nil(t, nilBinding.Values(&f))
}
