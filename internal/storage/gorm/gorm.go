// Package gormstorage implements the storage.Backend interface on GORM with an
// internal queue and a background DB writer goroutine. The sqlite and postgres
// backends wrap it.
package gormstorage

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/slefx/plumectl/internal/database"
	"github.com/slefx/plumectl/internal/model"
	"github.com/slefx/plumectl/internal/queue"
	"github.com/slefx/plumectl/internal/storage"
	"github.com/slefx/plumectl/pkg/core"
	"gorm.io/gorm"
)

// DefaultWriteInterval is how often queued samples are written.
const DefaultWriteInterval = 2 * time.Second

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	Logger        zerolog.Logger
	Version       string
	WriteInterval time.Duration
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps    Dependencies
	samples *queue.Queue[model.Sample]

	mu       sync.Mutex
	flight   *core.Flight
	flightID atomic.Uint64

	writeMu  sync.Mutex
	written  atomic.Int64
	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

var _ storage.Backend = (*Backend)(nil)

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.WriteInterval <= 0 {
		deps.WriteInterval = DefaultWriteInterval
	}
	return &Backend{
		deps:    deps,
		samples: queue.New[model.Sample](),
	}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init runs schema migration and starts the DB writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return errors.New("gorm backend has no database")
	}
	if err := database.Setup(b.deps.DB, b.deps.Logger, b.deps.Version); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	go b.writeLoop()
	return nil
}

// Close stops the DB writer goroutine and writes whatever is still queued.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	b.stopOnce.Do(func() {
		close(b.stopChan)
		<-b.done
	})
	return b.Flush()
}

// StartFlight inserts the flight row and assigns its ID back to f.
func (b *Backend) StartFlight(f *core.Flight) error {
	row := model.FlightFromCore(*f)
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert new flight: %w", err)
	}
	f.ID = row.ID

	b.mu.Lock()
	b.flight = f
	b.mu.Unlock()
	b.flightID.Store(uint64(row.ID))

	b.deps.Logger.Info().Uint("flightId", row.ID).Str("name", f.Name).Msg("Flight started")
	return nil
}

// EndFlight writes the queued samples and stamps the flight's end time and track.
func (b *Backend) EndFlight() error {
	b.mu.Lock()
	f := b.flight
	b.flight = nil
	b.mu.Unlock()
	if f == nil {
		return nil
	}

	flushErr := b.Flush()
	b.flightID.Store(0)

	end := f.EndTime
	if end.IsZero() {
		end = time.Now()
	}
	err := b.deps.DB.Model(&model.Flight{}).Where("id = ?", f.ID).Updates(map[string]any{
		"end_time": end,
		"track":    f.Track,
	}).Error
	if err != nil {
		return errors.Join(flushErr, fmt.Errorf("failed to close flight %d: %w", f.ID, err))
	}

	b.deps.Logger.Info().Uint("flightId", f.ID).Int64("samples", b.written.Load()).Msg("Flight ended")
	return flushErr
}

// RecordSample converts and queues a sample.
func (b *Backend) RecordSample(s *core.Sample) error {
	id := b.flightID.Load()
	if id == 0 {
		return storage.ErrNoFlight
	}
	row, err := model.SampleFromCore(*s, uint(id))
	if err != nil {
		return fmt.Errorf("failed to convert sample of %s: %w", s.PartID, err)
	}
	b.samples.Push(row)
	return nil
}

// QueueLen returns the number of samples waiting to be written.
func (b *Backend) QueueLen() int {
	return b.samples.Len()
}

// Written returns the number of samples written since the backend was created.
func (b *Backend) Written() int64 {
	return b.written.Load()
}

// Flush writes all queued samples now.
func (b *Backend) Flush() error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	start := time.Now()
	n, err := writeQueue(b.deps.DB, b.samples)
	if err != nil {
		b.deps.Logger.Error().Err(err).Msg("Error writing samples")
		return err
	}
	if n == 0 {
		return nil
	}
	b.written.Add(int64(n))

	if id := b.flightID.Load(); id != 0 {
		perf := model.RecorderPerformance{
			Time:                time.Now(),
			FlightID:            uint(id),
			QueueLength:         b.samples.Len(),
			SamplesWritten:      n,
			LastWriteDurationMs: float32(time.Since(start).Seconds() * 1000),
		}
		if err := b.deps.DB.Create(&perf).Error; err != nil {
			b.deps.Logger.Warn().Err(err).Msg("Error writing recorder performance")
		}
	}
	return nil
}

// writeQueue writes all items from a queue to the database in a transaction.
// On failure the items go back to the front of the queue.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T]) (int, error) {
	if q.Empty() {
		return 0, nil
	}

	items := q.GetAndEmpty()
	tx := db.Begin()
	if err := tx.Create(&items).Error; err != nil {
		tx.Rollback()
		q.Requeue(items...)
		return 0, fmt.Errorf("failed to create %d rows: %w", len(items), err)
	}
	if err := tx.Commit().Error; err != nil {
		q.Requeue(items...)
		return 0, fmt.Errorf("failed to commit %d rows: %w", len(items), err)
	}
	return len(items), nil
}

func (b *Backend) writeLoop() {
	defer close(b.done)
	ticker := time.NewTicker(b.deps.WriteInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			_ = b.Flush()
		}
	}
}
