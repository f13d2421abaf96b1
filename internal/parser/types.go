package parser

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/slefx/plumectl/pkg/core"
)

// Attach is a parsed :ATTACH: command.
type Attach struct {
	PartID      string
	Kind        core.Kind
	Controllers []string
}

// Reference is one optional thrust-direction transform of a part.
type Reference struct {
	Forward mgl32.Vec3
	Present bool
}

// Tick is a parsed :TICK: command. Active is false when the host has no
// vessel; nothing but PartID is set then.
type Tick struct {
	PartID     string
	Active     bool
	Telemetry  core.Telemetry
	Pose       core.Pose
	References [core.ReferenceCount]Reference
	Engines    []core.EngineStatus
}

// Engine returns the status of the engine with id.
func (t *Tick) Engine(id core.EngineID) (core.EngineStatus, bool) {
	for _, e := range t.Engines {
		if e.ID == id {
			return e, true
		}
	}
	return core.EngineStatus{}, false
}
