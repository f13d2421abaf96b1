// Package sqlitestorage implements the storage.Backend interface using an in-memory
// SQLite database with periodic disk dumps via VACUUM INTO.
// It wraps the GORM backend; the only SQLite-specific concerns are creating the
// database and dumping it to one file per flight.
package sqlitestorage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/slefx/plumectl/internal/database"
	gormstorage "github.com/slefx/plumectl/internal/storage/gorm"
	"github.com/slefx/plumectl/pkg/core"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	DumpInterval time.Duration
	OutputDir    string // receives one <flight>_<start>.db per flight
	Path         string // working database; empty for in-memory
	Version      string
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	cfg      Config
	log      zerolog.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	dumpMu   sync.Mutex

	mu       sync.Mutex
	dumpPath string
	lastPath string
}

// New creates a new SQLite storage backend.
func New(cfg Config, log zerolog.Logger) (*Backend, error) {
	db, err := database.GetSqliteDB(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQLite DB: %w", err)
	}

	gormBackend := gormstorage.New(gormstorage.Dependencies{
		DB:      db,
		Logger:  log,
		Version: cfg.Version,
	})

	return &Backend{
		Backend:  gormBackend,
		cfg:      cfg,
		log:      log,
		stopChan: make(chan struct{}),
	}, nil
}

// Init initializes the embedded GORM backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}
	if b.cfg.OutputDir != "" {
		if err := os.MkdirAll(b.cfg.OutputDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if b.cfg.OutputDir != "" && b.cfg.DumpInterval > 0 {
		go b.dumpLoop()
	}

	return nil
}

// Close stops the dump goroutine and closes the embedded GORM backend.
func (b *Backend) Close() error {
	b.stopOnce.Do(func() { close(b.stopChan) })
	return b.Backend.Close()
}

// StartFlight starts the flight and selects its dump file.
func (b *Backend) StartFlight(f *core.Flight) error {
	if err := b.Backend.StartFlight(f); err != nil {
		return err
	}
	if b.cfg.OutputDir != "" {
		b.mu.Lock()
		b.dumpPath = filepath.Join(b.cfg.OutputDir, database.DumpFileName(f.Name, f.StartTime))
		b.mu.Unlock()
	}
	return nil
}

// EndFlight ends the flight and writes its final dump.
func (b *Backend) EndFlight() error {
	endErr := b.Backend.EndFlight()

	b.mu.Lock()
	path := b.dumpPath
	b.dumpPath = ""
	b.lastPath = ""
	b.mu.Unlock()

	if path == "" {
		return endErr
	}
	if err := b.dump(path); err != nil {
		return errors.Join(endErr, err)
	}

	b.mu.Lock()
	b.lastPath = path
	b.mu.Unlock()
	b.log.Info().Str("path", path).Msg("Flight database written")
	return endErr
}

// ExportedFilePath returns the dump file of the current or last flight.
func (b *Backend) ExportedFilePath() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dumpPath != "" {
		return b.dumpPath
	}
	return b.lastPath
}

// dumpLoop periodically dumps the database to the current flight's file via VACUUM INTO.
// VACUUM INTO creates a point-in-time snapshot, so no pause mechanism is needed.
func (b *Backend) dumpLoop() {
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			b.mu.Lock()
			path := b.dumpPath
			b.mu.Unlock()
			if path == "" {
				continue
			}

			start := time.Now()
			if err := b.dump(path); err != nil {
				b.log.Error().Err(err).Msg("Error dumping to disk")
			} else {
				b.log.Debug().Dur("duration", time.Since(start)).Msg("Dumped to disk")
			}
		}
	}
}

func (b *Backend) dump(path string) error {
	b.dumpMu.Lock()
	defer b.dumpMu.Unlock()
	return database.DumpMemoryDBToDisk(b.DB(), path)
}
