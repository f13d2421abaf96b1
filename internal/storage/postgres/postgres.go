// Package postgres implements the storage.Backend interface on PostgreSQL. It
// connects at Init and delegates to the GORM backend.
package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/slefx/plumectl/internal/config"
	"github.com/slefx/plumectl/internal/database"
	gormstorage "github.com/slefx/plumectl/internal/storage/gorm"
	"github.com/slefx/plumectl/pkg/core"
)

// ErrNotInitialized is returned by recording calls made before Init succeeded.
var ErrNotInitialized = errors.New("postgres backend not initialized")

// Dependencies holds all dependencies for the Postgres storage backend.
type Dependencies struct {
	Config        config.DBConfig
	Logger        zerolog.Logger
	Version       string
	WriteInterval time.Duration
}

// Backend implements storage.Backend on a Postgres connection.
type Backend struct {
	deps  Dependencies
	inner *gormstorage.Backend
}

// New creates a backend. No connection is made until Init.
func New(deps Dependencies) *Backend {
	return &Backend{deps: deps}
}

// Init connects, migrates the schema and starts the DB writer goroutine.
func (b *Backend) Init() error {
	b.deps.Logger.Debug().Str("host", b.deps.Config.Host).Str("database", b.deps.Config.Database).Msg("Connecting to Postgres DB")
	db, err := database.GetPostgresDB(b.deps.Config)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}

	inner := gormstorage.New(gormstorage.Dependencies{
		DB:            db,
		Logger:        b.deps.Logger,
		Version:       b.deps.Version,
		WriteInterval: b.deps.WriteInterval,
	})
	if err := inner.Init(); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return err
	}
	b.inner = inner
	b.deps.Logger.Info().Msg("Connected to database")
	return nil
}

// Close stops the writer and closes the connection pool.
func (b *Backend) Close() error {
	if b.inner == nil {
		return nil
	}
	err := b.inner.Close()
	if sqlDB, dbErr := b.inner.DB().DB(); dbErr == nil {
		err = errors.Join(err, sqlDB.Close())
	}
	b.inner = nil
	return err
}

func (b *Backend) StartFlight(f *core.Flight) error {
	if b.inner == nil {
		return ErrNotInitialized
	}
	return b.inner.StartFlight(f)
}

func (b *Backend) EndFlight() error {
	if b.inner == nil {
		return ErrNotInitialized
	}
	return b.inner.EndFlight()
}

func (b *Backend) RecordSample(s *core.Sample) error {
	if b.inner == nil {
		return ErrNotInitialized
	}
	return b.inner.RecordSample(s)
}
