// Package effects binds semantic signals to the named controllers of external
// effect instances and fans out each tick's values to them.
package effects

import (
	"github.com/slefx/plumectl/pkg/core"
)

// Handle is one resolved controller of an effect instance.
type Handle interface {
	Set(value float32)
}

// Instance is an effect instance attached to a part. Controller returns false
// for names the instance does not recognize.
type Instance interface {
	Controller(name string) (Handle, bool)
}

type binding struct {
	signal  core.Signal
	name    string
	handles []Handle
}

// Binding is the signal to handle mapping resolved once at construction.
type Binding struct {
	bindings []binding
}

// Bind resolves every signal against every instance. Names an instance does not
// expose are dropped here, so Push never searches by name.
func Bind(instances []Instance, signals ...core.Signal) *Binding {
	return BindNamed(instances, nil, signals...)
}

// BindNamed is Bind with per-signal controller names overriding Signal.Name.
func BindNamed(instances []Instance, names map[core.Signal]string, signals ...core.Signal) *Binding {
	b := &Binding{}
	for _, sig := range signals {
		name, ok := names[sig]
		if !ok {
			name = sig.Name()
		}
		var handles []Handle
		for _, inst := range instances {
			if inst == nil {
				continue
			}
			if h, ok := inst.Controller(name); ok && h != nil {
				handles = append(handles, h)
			}
		}
		if len(handles) > 0 {
			b.bindings = append(b.bindings, binding{signal: sig, name: name, handles: handles})
		}
	}
	return b
}

// Push writes every present signal of f to its handles, in bind order.
func (b *Binding) Push(f *core.Frame) {
	if b == nil {
		return
	}
	for _, bd := range b.bindings {
		v, ok := f.Get(bd.signal)
		if !ok {
			continue
		}
		for _, h := range bd.handles {
			h.Set(v)
		}
	}
}

// Bound reports whether any instance exposes s.
func (b *Binding) Bound(s core.Signal) bool {
	if b == nil {
		return false
	}
	for _, bd := range b.bindings {
		if bd.signal == s {
			return true
		}
	}
	return false
}

// Values returns what Push writes for f, as controller name and value pairs.
func (b *Binding) Values(f *core.Frame) []core.NamedValue {
	if b == nil {
		return nil
	}
	out := make([]core.NamedValue, 0, len(b.bindings))
	for _, bd := range b.bindings {
		if v, ok := f.Get(bd.signal); ok {
			out = append(out, core.NamedValue{Name: bd.name, Value: v})
		}
	}
	return out
}
