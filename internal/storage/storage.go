// internal/storage/storage.go
package storage

import (
	"errors"

	"github.com/slefx/plumectl/pkg/core"
)

// ErrNoFlight is returned when a sample arrives while no flight is open.
var ErrNoFlight = errors.New("no flight in progress")

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Flight management. StartFlight may assign f.ID; the backend keeps f and
	// reads its EndTime and Track in EndFlight.
	StartFlight(f *core.Flight) error
	EndFlight() error

	// Sample recording
	RecordSample(s *core.Sample) error
}

// Exportable is an optional interface for storage backends that write a file
// per flight.
type Exportable interface {
	ExportedFilePath() string
}
