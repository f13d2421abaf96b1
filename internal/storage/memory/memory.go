// Package memory keeps a flight in memory and exports it to JSON when it ends.
package memory

import (
	"sync"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/slefx/plumectl/internal/config"
	"github.com/slefx/plumectl/internal/storage"
	v1 "github.com/slefx/plumectl/internal/storage/memory/export/v1"
	"github.com/slefx/plumectl/pkg/core"
)

var (
	_ storage.Backend    = (*Backend)(nil)
	_ storage.Exportable = (*Backend)(nil)
)

// Backend stores flight samples in memory and exports to JSON
type Backend struct {
	cfg    config.MemoryConfig
	flight *core.Flight
	parts  *orderedmap.OrderedMap[string, *v1.PartRecord] // keyed by part ID

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:   cfg,
		parts: orderedmap.NewOrderedMap[string, *v1.PartRecord](),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartFlight begins recording a new flight, discarding anything unexported
func (b *Backend) StartFlight(f *core.Flight) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.flight = f
	b.parts = orderedmap.NewOrderedMap[string, *v1.PartRecord]()
	b.lastExportPath = ""
	return nil
}

// EndFlight exports the flight and forgets it
func (b *Backend) EndFlight() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.flight == nil {
		return nil
	}
	if err := b.exportJSON(); err != nil {
		return err
	}
	b.flight = nil
	b.parts = orderedmap.NewOrderedMap[string, *v1.PartRecord]()
	return nil
}

// RecordSample appends a sample to its part's record
func (b *Backend) RecordSample(s *core.Sample) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.flight == nil {
		return storage.ErrNoFlight
	}

	record, ok := b.parts.Get(s.PartID)
	if !ok {
		record = &v1.PartRecord{ID: s.PartID, Kind: s.Kind}
		b.parts.Set(s.PartID, record)
	}
	record.Samples = append(record.Samples, *s)
	return nil
}

// SampleCount returns the number of samples held for the current flight.
func (b *Backend) SampleCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for el := b.parts.Front(); el != nil; el = el.Next() {
		n += len(el.Value.Samples)
	}
	return n
}

// ExportedFilePath returns the export of the last ended flight, empty while a
// flight is open or when its export failed
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
