package effects

import (
	"github.com/elliotchance/orderedmap/v2"
	"github.com/slefx/plumectl/pkg/core"
)

// Value is a controller slot in a Table.
type Value struct {
	v   float32
	set bool
}

// Set stores v.
func (c *Value) Set(v float32) {
	c.v = v
	c.set = true
}

// Get returns the last value and whether it was ever set.
func (c *Value) Get() (float32, bool) {
	return c.v, c.set
}

// Table is an in-process effect instance exposing a fixed controller vocabulary.
// The host bridge creates one per attached part and reads it back after each tick.
type Table struct {
	controllers *orderedmap.OrderedMap[string, *Value]
}

// NewTable creates a table exposing names, in the given order. Duplicates are ignored.
func NewTable(names ...string) *Table {
	t := &Table{controllers: orderedmap.NewOrderedMap[string, *Value]()}
	for _, n := range names {
		if _, ok := t.controllers.Get(n); ok {
			continue
		}
		t.controllers.Set(n, &Value{})
	}
	return t
}

// Controller implements Instance.
func (t *Table) Controller(name string) (Handle, bool) {
	v, ok := t.controllers.Get(name)
	if !ok {
		return nil, false
	}
	return v, true
}

// Get returns the value of a controller.
func (t *Table) Get(name string) (float32, bool) {
	v, ok := t.controllers.Get(name)
	if !ok {
		return 0, false
	}
	return v.Get()
}

// Snapshot returns every controller that has been set, in declaration order.
func (t *Table) Snapshot() []core.NamedValue {
	out := make([]core.NamedValue, 0, t.controllers.Len())
	for el := t.controllers.Front(); el != nil; el = el.Next() {
		if v, ok := el.Value.Get(); ok {
			out = append(out, core.NamedValue{Name: el.Key, Value: v})
		}
	}
	return out
}

// Names returns the exposed controller names in declaration order.
func (t *Table) Names() []string {
	out := make([]string, 0, t.controllers.Len())
	for el := t.controllers.Front(); el != nil; el = el.Next() {
		out = append(out, el.Key)
	}
	return out
}
