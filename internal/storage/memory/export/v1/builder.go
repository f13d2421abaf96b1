package v1

import (
	"sort"
	"time"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/slefx/plumectl/pkg/core"
)

// FlightData contains all the data needed to build an export
type FlightData struct {
	Flight *core.Flight
	Parts  *orderedmap.OrderedMap[string, *PartRecord]
}

// PartRecord groups the samples of one part in arrival order
type PartRecord struct {
	ID      string
	Kind    core.Kind
	Samples []core.Sample
}

// Build creates an Export from the flight data
func Build(data *FlightData) Export {
	export := Export{
		FormatVersion: FormatVersion,
		Flight: Flight{
			Name:      data.Flight.Name,
			Vessel:    data.Flight.Vessel,
			Version:   data.Flight.Version,
			StartTime: formatTime(data.Flight.StartTime),
			EndTime:   formatTime(data.Flight.EndTime),
			Track:     data.Flight.Track,
		},
		Parts:  make([]Part, 0),
		Events: make([][]any, 0),
	}

	var first, last float32
	seen := false

	for el := data.Parts.Front(); el != nil; el = el.Next() {
		record := el.Value
		part := Part{
			ID:          record.ID,
			Kind:        string(record.Kind),
			Controllers: controllerNames(record.Samples),
			Frames:      make([][]any, 0, len(record.Samples)),
		}

		column := make(map[string]int, len(part.Controllers))
		for i, name := range part.Controllers {
			column[name] = i + 1
		}

		for _, s := range record.Samples {
			row := make([]any, len(part.Controllers)+1)
			row[0] = s.MissionTime
			for _, v := range s.Values {
				row[column[v.Name]] = v.Value
			}
			part.Frames = append(part.Frames, row)

			if s.Track != "" {
				part.Track = append(part.Track, s.Track)
			}
			for _, e := range s.Events {
				export.Events = append(export.Events, []any{s.MissionTime, record.ID, string(e.Type), string(e.Engine), e.Value})
			}

			if !seen || s.MissionTime < first {
				first = s.MissionTime
			}
			if !seen || s.MissionTime > last {
				last = s.MissionTime
			}
			seen = true
		}

		export.Parts = append(export.Parts, part)
	}

	sort.SliceStable(export.Events, func(i, j int) bool {
		return export.Events[i][0].(float32) < export.Events[j][0].(float32)
	})
	export.Flight.Duration = last - first

	return export
}

// controllerNames returns every controller pushed in samples, in first-seen order
func controllerNames(samples []core.Sample) []string {
	names := make([]string, 0)
	seen := make(map[string]bool)
	for _, s := range samples {
		for _, v := range s.Values {
			if !seen[v.Name] {
				seen[v.Name] = true
				names = append(names, v.Name)
			}
		}
	}
	return names
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
