// Package v1 contains the v1 export format for recorded flights.
package v1

// FormatVersion is written to every export.
const FormatVersion = 1

// Export is the root JSON structure for v1 format
type Export struct {
	FormatVersion int     `json:"formatVersion"`
	Flight        Flight  `json:"flight"`
	Parts         []Part  `json:"parts"`
	Events        [][]any `json:"events"` // [missionTime, partId, type, engine, value]
}

// Flight describes the recording session
type Flight struct {
	Name      string  `json:"name"`
	Vessel    string  `json:"vessel"`
	Version   string  `json:"version"`
	StartTime string  `json:"startTime"`
	EndTime   string  `json:"endTime,omitempty"`
	Duration  float32 `json:"duration"` // mission seconds between the first and last sample
	Track     string  `json:"track,omitempty"`
}

// Part holds the controller values of one part, one row per tick
type Part struct {
	ID          string   `json:"id"`
	Kind        string   `json:"kind"`
	Controllers []string `json:"controllers"`
	// Frames rows are [missionTime, value per controller]; a controller not
	// pushed on that tick is null
	Frames [][]any  `json:"frames"`
	Track  []string `json:"track,omitempty"`
}
