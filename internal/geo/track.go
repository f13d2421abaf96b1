package geo

import (
	"fmt"
	"sync"

	geom "github.com/peterstace/simplefeatures/geom"
)

// Track accumulates the ground track of one part during a flight.
type Track struct {
	mu     sync.Mutex
	coords []float64
}

// NewTrack returns an empty track.
func NewTrack() *Track {
	return &Track{}
}

// Add appends p unless it repeats the previous point. Empty points are ignored.
func (t *Track) Add(p geom.Point) {
	c, ok := p.Coordinates()
	if !ok {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if n := len(t.coords); n >= 2 && t.coords[n-2] == c.X && t.coords[n-1] == c.Y {
		return
	}
	t.coords = append(t.coords, c.X, c.Y)
}

// Len returns the number of points.
func (t *Track) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.coords) / 2
}

// LineString builds the track geometry. At least two points are required.
func (t *Track) LineString() (geom.LineString, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.coords) < 4 {
		return geom.LineString{}, fmt.Errorf("track must have at least 2 points, got %d", len(t.coords)/2)
	}
	flat := make([]float64, len(t.coords))
	copy(flat, t.coords)
	return geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
}

// WKT renders the track, or returns an empty string when it is too short.
func (t *Track) WKT() string {
	ls, err := t.LineString()
	if err != nil {
		return ""
	}
	return ls.AsText()
}
