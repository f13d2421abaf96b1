package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/rs/zerolog"
	"github.com/slefx/plumectl/internal/config"
	"github.com/slefx/plumectl/internal/storage"
	"github.com/slefx/plumectl/internal/storage/memory"
	pgstorage "github.com/slefx/plumectl/internal/storage/postgres"
	sqlitestorage "github.com/slefx/plumectl/internal/storage/sqlite"
	wsstorage "github.com/slefx/plumectl/internal/storage/websocket"
)

func createStorageBackend(storageCfg config.StorageConfig, zl zerolog.Logger, logger *slog.Logger) (storage.Backend, error) {
	switch storageCfg.Type {
	case "", "memory":
		logger.Info("Memory storage backend selected", "outputDir", storageCfg.Memory.OutputDir)
		return memory.New(storageCfg.Memory), nil

	case "postgres":
		logger.Info("Postgres storage backend selected", "host", storageCfg.Postgres.Host)
		return pgstorage.New(pgstorage.Dependencies{
			Config:  storageCfg.Postgres,
			Logger:  zl,
			Version: Version,
		}), nil

	case "sqlite":
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: storageCfg.SQLite.DumpInterval,
			OutputDir:    storageCfg.SQLite.OutputDir,
			Version:      Version,
		}, zl)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		logger.Info("SQLite storage backend selected", "outputDir", storageCfg.SQLite.OutputDir)
		return backend, nil

	case "websocket":
		wsCfg := storageCfg.WebSocket
		wsCfg.URL = httpToWS(wsCfg.URL)
		logger.Info("WebSocket storage backend selected", "url", wsCfg.URL)
		return wsstorage.New(wsCfg, logger), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}

// httpToWS converts an HTTP(S) URL to a WebSocket URL.
func httpToWS(httpURL string) string {
	s := strings.TrimRight(httpURL, "/")
	s = strings.Replace(s, "https://", "wss://", 1)
	s = strings.Replace(s, "http://", "ws://", 1)
	return s
}
