// pkg/core/flight.go
package core

import "time"

// Kind names an effect module type a part can host.
type Kind string

const (
	KindLanding         Kind = "landing"
	KindStartup         Kind = "startup"
	KindLiftoffProducer Kind = "liftoff-producer"
	KindLiftoffConsumer Kind = "liftoff-consumer"
	KindDeluge          Kind = "deluge"
)

// Kinds lists every module kind.
var Kinds = []Kind{KindLanding, KindStartup, KindLiftoffProducer, KindLiftoffConsumer, KindDeluge}

// ParseKind returns the Kind named s.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Flight is a recording session. EndTime and Track are filled in when it ends;
// Track is the vessel ground track as an EPSG:3857 WKT line string.
type Flight struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Vessel    string    `json:"vessel"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Version   string    `json:"version"`
	Track     string    `json:"track,omitempty"`
}

// EventType classifies state machine transitions worth recording.
type EventType string

const (
	EventDecelerating  EventType = "decelerating"
	EventDescentReset  EventType = "descent_reset"
	EventArmed         EventType = "armed"
	EventIgnition      EventType = "ignition"
	EventShutdown      EventType = "shutdown"
	EventRampTriggered EventType = "ramp_triggered"
	EventStartup       EventType = "startup"
	EventLiftoffDown   EventType = "liftoff_down"
	EventLiftoffDone   EventType = "liftoff_done"
	EventDelugeStop    EventType = "deluge_stop"
)

// Event is a state machine transition observed during a tick.
type Event struct {
	Type   EventType `json:"type"`
	Engine EngineID  `json:"engine,omitempty"`
	Value  float32   `json:"value"`
}

// NamedValue is one controller value in push order.
type NamedValue struct {
	Name  string  `json:"name"`
	Value float32 `json:"value"`
}

// Sample is one tick of one part, as recorded.
type Sample struct {
	PartID      string       `json:"partId"`
	Kind        Kind         `json:"kind"`
	MissionTime float32      `json:"missionTime"`
	Time        time.Time    `json:"time"`
	Values      []NamedValue `json:"values"`
	Events      []Event      `json:"events,omitempty"`
	Track       string       `json:"track,omitempty"` // WKT ground track point, empty when unknown
}

// NamedValues flattens a frame into push order.
func NamedValues(f *Frame) []NamedValue {
	out := make([]NamedValue, 0, f.Len())
	f.Each(func(s Signal, v float32) {
		out = append(out, NamedValue{Name: s.Name(), Value: v})
	})
	return out
}
