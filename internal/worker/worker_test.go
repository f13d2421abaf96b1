package worker

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/slefx/plumectl/internal/mission"
	"github.com/slefx/plumectl/internal/storage"
	"github.com/slefx/plumectl/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu      sync.Mutex
	samples []string
	failOn  string
	err     error
}

func (b *fakeBackend) Init() error                      { return nil }
func (b *fakeBackend) Close() error                     { return nil }
func (b *fakeBackend) StartFlight(f *core.Flight) error { return nil }
func (b *fakeBackend) EndFlight() error                 { return nil }

func (b *fakeBackend) RecordSample(s *core.Sample) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s.PartID == b.failOn {
		return b.err
	}
	b.samples = append(b.samples, s.PartID)
	return nil
}

func (b *fakeBackend) recorded() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.samples...)
}

var _ storage.Backend = (*fakeBackend)(nil)

type fakeInflux struct {
	mu      sync.Mutex
	flights []string
	stats   int
	took    time.Duration
}

func (f *fakeInflux) WriteSample(flight string, s *core.Sample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flights = append(f.flights, flight)
	return nil
}

func (f *fakeInflux) WriteRecorderStats(queueLen, written int, took time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats++
	f.took = took
	return nil
}

func TestFlush_WritesBackendAndInflux(t *testing.T) {
	backend := &fakeBackend{}
	influx := &fakeInflux{}
	ctx := mission.NewContext()
	ctx.SetFlight(&core.Flight{Name: "CRS-30"})

	m := NewManager(Dependencies{Backend: backend, Influx: influx, Context: ctx})
	m.Enqueue(core.Sample{PartID: "a"})
	m.Enqueue(core.Sample{PartID: "b"})

	require.NoError(t, m.Flush())

	assert.Equal(t, []string{"a", "b"}, backend.recorded())
	assert.Equal(t, []string{"CRS-30", "CRS-30"}, influx.flights)
	assert.Equal(t, 1, influx.stats)
	assert.Equal(t, influx.took, m.LastFlushDuration())
	assert.Equal(t, 2, m.Written())
	assert.Equal(t, 0, m.QueueLen())
}

func TestFlush_EmptyQueueIsNoop(t *testing.T) {
	influx := &fakeInflux{}
	m := NewManager(Dependencies{Backend: &fakeBackend{}, Influx: influx})
	require.NoError(t, m.Flush())
	assert.Equal(t, 0, influx.stats)
}

func TestFlush_RequeuesOnBackendError(t *testing.T) {
	backend := &fakeBackend{failOn: "b", err: errors.New("disk full")}
	m := NewManager(Dependencies{Backend: backend})
	m.Enqueue(core.Sample{PartID: "a"})
	m.Enqueue(core.Sample{PartID: "b"})
	m.Enqueue(core.Sample{PartID: "c"})

	err := m.Flush()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "part b")
	assert.Equal(t, 2, m.QueueLen())
	assert.Equal(t, 1, m.Written())

	backend.mu.Lock()
	backend.failOn = ""
	backend.mu.Unlock()

	require.NoError(t, m.Flush())
	assert.Equal(t, []string{"a", "b", "c"}, backend.recorded())
	assert.Equal(t, 3, m.Written())
}

func TestFlush_DropsSamplesOutsideFlight(t *testing.T) {
	backend := &fakeBackend{failOn: "late", err: storage.ErrNoFlight}
	m := NewManager(Dependencies{Backend: backend})
	m.Enqueue(core.Sample{PartID: "late"})
	m.Enqueue(core.Sample{PartID: "a"})

	require.NoError(t, m.Flush())
	assert.Equal(t, []string{"a"}, backend.recorded())
	assert.Equal(t, 0, m.QueueLen())
}

func TestStartStop(t *testing.T) {
	backend := &fakeBackend{}
	m := NewManager(Dependencies{Backend: backend, FlushInterval: 10 * time.Millisecond})
	m.Start()
	m.Start()

	m.Enqueue(core.Sample{PartID: "a"})
	assert.Eventually(t, func() bool {
		return len(backend.recorded()) == 1
	}, time.Second, 5*time.Millisecond)

	m.Enqueue(core.Sample{PartID: "b"})
	require.NoError(t, m.Stop())
	require.NoError(t, m.Stop())
	assert.Equal(t, []string{"a", "b"}, backend.recorded())
}

func TestStop_WithoutStartFlushes(t *testing.T) {
	backend := &fakeBackend{}
	m := NewManager(Dependencies{Backend: backend})
	m.Enqueue(core.Sample{PartID: "a"})

	require.NoError(t, m.Stop())
	assert.Equal(t, []string{"a"}, backend.recorded())
}

func TestNewManager_Defaults(t *testing.T) {
	m := NewManager(Dependencies{Backend: &fakeBackend{}})
	assert.Equal(t, DefaultFlushInterval, m.deps.FlushInterval)
	assert.NotNil(t, m.deps.Logger)
	assert.Equal(t, mission.NoFlight, m.deps.Context.Name())
}
