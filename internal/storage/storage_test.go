// internal/storage/storage_test.go
package storage_test

import (
	"fmt"
	"testing"

	"github.com/slefx/plumectl/internal/storage"
	"github.com/slefx/plumectl/pkg/core"
	"github.com/stretchr/testify/assert"
)

type recorder struct {
	flight  *core.Flight
	samples []core.Sample
}

func (r *recorder) Init() error              { return nil }
func (r *recorder) Close() error             { return nil }
func (r *recorder) EndFlight() error         { return nil }
func (r *recorder) ExportedFilePath() string { return "out.json" }

func (r *recorder) StartFlight(f *core.Flight) error {
	r.flight = f
	return nil
}

func (r *recorder) RecordSample(s *core.Sample) error {
	if r.flight == nil {
		return fmt.Errorf("recording %s: %w", s.PartID, storage.ErrNoFlight)
	}
	r.samples = append(r.samples, *s)
	return nil
}

var (
	_ storage.Backend    = (*recorder)(nil)
	_ storage.Exportable = (*recorder)(nil)
)

func TestErrNoFlightWraps(t *testing.T) {
	var b storage.Backend = &recorder{}
	err := b.RecordSample(&core.Sample{PartID: "p1"})
	assert.ErrorIs(t, err, storage.ErrNoFlight)

	assert.NoError(t, b.StartFlight(&core.Flight{Name: "f"}))
	assert.NoError(t, b.RecordSample(&core.Sample{PartID: "p1"}))
	assert.Len(t, b.(*recorder).samples, 1)
}
