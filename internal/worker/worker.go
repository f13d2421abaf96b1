// Package worker flushes recorded samples to the storage backend and influx.
package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/slefx/plumectl/internal/mission"
	"github.com/slefx/plumectl/internal/queue"
	"github.com/slefx/plumectl/internal/storage"
	"github.com/slefx/plumectl/pkg/core"
)

// DefaultFlushInterval is used when Dependencies.FlushInterval is not positive.
const DefaultFlushInterval = time.Second

// PointWriter receives every flushed sample as a time series point.
type PointWriter interface {
	WriteSample(flight string, s *core.Sample) error
	WriteRecorderStats(queueLen, written int, took time.Duration) error
}

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Backend       storage.Backend
	Influx        PointWriter // optional
	Context       *mission.Context
	Logger        *slog.Logger
	FlushInterval time.Duration
}

// Manager owns the sample queue and the goroutine draining it
type Manager struct {
	deps  Dependencies
	queue *queue.Queue[core.Sample]

	flushMu   sync.Mutex
	written   int
	lastFlush time.Duration

	started  atomic.Bool
	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies) *Manager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Context == nil {
		deps.Context = mission.NewContext()
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	return &Manager{
		deps:     deps,
		queue:    queue.New[core.Sample](),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Enqueue adds a sample to the queue. It never blocks on storage.
func (m *Manager) Enqueue(s core.Sample) {
	m.queue.Push(s)
}

// QueueLen returns the number of samples waiting for a flush.
func (m *Manager) QueueLen() int {
	return m.queue.Len()
}

// Written returns the number of samples the backend accepted so far.
func (m *Manager) Written() int {
	m.flushMu.Lock()
	defer m.flushMu.Unlock()
	return m.written
}

// LastFlushDuration returns how long the last non-empty flush took.
func (m *Manager) LastFlushDuration() time.Duration {
	m.flushMu.Lock()
	defer m.flushMu.Unlock()
	return m.lastFlush
}

// Start runs the flush loop until Stop.
func (m *Manager) Start() {
	if m.started.CompareAndSwap(false, true) {
		go m.loop()
	}
}

func (m *Manager) loop() {
	defer close(m.done)
	ticker := time.NewTicker(m.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			if err := m.Flush(); err != nil {
				m.deps.Logger.Warn("Sample flush failed, will retry", "error", err, "queued", m.queue.Len())
			}
		}
	}
}

// Stop ends the flush loop and flushes what is left. Safe to call more than once.
func (m *Manager) Stop() error {
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})
	if m.started.Load() {
		<-m.done
	}
	return m.Flush()
}

// Flush writes every queued sample to the backend, then to influx.
// Samples recorded after their flight ended are dropped. On any other backend
// error the unwritten samples go back to the front of the queue.
func (m *Manager) Flush() error {
	m.flushMu.Lock()
	defer m.flushMu.Unlock()

	items := m.queue.GetAndEmpty()
	if len(items) == 0 {
		return nil
	}

	start := time.Now()
	flight := m.deps.Context.Name()
	written := 0
	dropped := 0

	for i := range items {
		s := &items[i]
		if err := m.deps.Backend.RecordSample(s); err != nil {
			if errors.Is(err, storage.ErrNoFlight) {
				dropped++
				continue
			}
			m.queue.Requeue(items[i:]...)
			m.written += written
			return fmt.Errorf("failed to record sample for part %s: %w", s.PartID, err)
		}
		written++

		if m.deps.Influx != nil {
			if err := m.deps.Influx.WriteSample(flight, s); err != nil {
				m.deps.Logger.Debug("Influx write failed", "part", s.PartID, "error", err)
			}
		}
	}

	m.written += written
	m.lastFlush = time.Since(start)

	if dropped > 0 {
		m.deps.Logger.Warn("Dropped samples recorded outside a flight", "count", dropped)
	}
	if m.deps.Influx != nil {
		if err := m.deps.Influx.WriteRecorderStats(m.queue.Len(), m.written, m.lastFlush); err != nil {
			m.deps.Logger.Debug("Influx stats write failed", "error", err)
		}
	}
	m.deps.Logger.Debug("Flushed samples", "written", written, "took", m.lastFlush)
	return nil
}
