package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/slefx/plumectl/internal/api"
	"github.com/slefx/plumectl/internal/config"
	"github.com/slefx/plumectl/internal/dispatcher"
	"github.com/slefx/plumectl/internal/handlers"
	"github.com/slefx/plumectl/internal/influx"
	"github.com/slefx/plumectl/internal/logging"
	"github.com/slefx/plumectl/internal/mission"
	intOtel "github.com/slefx/plumectl/internal/otel"
	"github.com/slefx/plumectl/internal/storage"
	"github.com/slefx/plumectl/internal/worker"
	"github.com/slefx/plumectl/pkg/hostcall"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// app is one running bridge with its logging, recording and telemetry.
type app struct {
	sessionStart time.Time

	logFile *os.File
	graylog io.Closer
	slogMgr *logging.SlogManager
	logger  *slog.Logger
	zl      zerolog.Logger
	otel    *intOtel.Provider

	ctx        *mission.Context
	backend    storage.Backend
	influx     *influx.Manager
	recorder   *worker.Manager
	dispatcher *dispatcher.Dispatcher
	handlers   *handlers.Service
	bridge     *hostcall.Bridge
}

// newApp loads config from configDir and wires every component. A missing
// config file is not an error; defaults are used.
func newApp(configDir string) (*app, error) {
	a := &app{
		sessionStart: time.Now(),
		slogMgr:      logging.NewSlogManager(),
		ctx:          mission.NewContext(),
	}

	cfgErr := config.Load(configDir)

	if err := a.setupLogging(); err != nil {
		_ = a.Close()
		return nil, err
	}
	if cfgErr != nil {
		a.logger.Warn("Failed to load config, using defaults!", "error", cfgErr)
	} else {
		a.logger.Info("Loaded config", "dir", configDir)
	}

	if err := a.setupRecording(); err != nil {
		_ = a.Close()
		return nil, err
	}

	var err error
	a.dispatcher, err = dispatcher.New(a.logger)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}

	deps := handlers.Dependencies{
		Backend: a.backend,
		Logger:  a.logger,
		Version: Version,
	}
	if a.recorder != nil {
		deps.Recorder = a.recorder
	}
	if a.influx != nil {
		deps.Influx = a.influx
	}
	if up := config.GetUploadConfig(); up.Enabled {
		client := api.New(up.ServerURL, up.APIKey)
		if err := client.Healthcheck(); err != nil {
			a.logger.Warn("Upload server not reachable, uploads may fail", "url", up.ServerURL, "error", err)
		}
		deps.Uploader = client
		deps.UploadTag = up.Tag
	}
	a.handlers, err = handlers.NewService(deps, a.ctx)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to create handler service: %w", err)
	}
	a.handlers.RegisterHandlers(a.dispatcher)

	a.bridge = hostcall.New(a.dispatcher, Version)
	a.logger.Info("Bridge ready", "version", Version, "storage", config.GetStorageConfig().Type)
	return a, nil
}

func (a *app) setupLogging() error {
	level := viper.GetString("logLevel")
	logsDir := viper.GetString("logsDir")

	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs dir: %w", err)
	}
	logPath := logging.LogFilePath(logsDir, AppName, a.sessionStart)
	if _, err := os.Stat(logPath); err == nil {
		_ = os.Rename(logPath, logPath+".old")
	}
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to create log file %s: %w", logPath, err)
	}
	a.logFile = f

	otelCfg := config.GetOTelConfig()
	a.otel, err = intOtel.New(intOtel.Config{
		Enabled:        otelCfg.Enabled,
		ServiceName:    otelCfg.ServiceName,
		ServiceVersion: Version,
		BatchTimeout:   otelCfg.BatchTimeout,
		LogWriter:      f,
		Endpoint:       otelCfg.Endpoint,
		Insecure:       otelCfg.Insecure,
		OnError: func(err error) {
			fmt.Fprintln(os.Stderr, "otel:", err)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize OTel provider: %w", err)
	}

	opts := logging.Options{
		File:    f,
		Level:   level,
		Context: a.ctx.LogAttrs,
	}
	var provider *sdklog.LoggerProvider
	if a.otel.Enabled() {
		provider = a.otel.LoggerProvider()
		opts.Provider = provider
	}

	var graylogErr error
	if gl := config.GetGraylogConfig(); gl.Enabled {
		w, err := logging.NewGraylogWriter(gl.Address)
		if err != nil {
			graylogErr = err
		} else {
			a.graylog = w
			opts.Graylog = w
		}
	}

	a.slogMgr.Setup(opts)
	a.logger = a.slogMgr.Logger()
	a.zl = logging.NewZerolog(f, level, false)

	if graylogErr != nil {
		a.logger.Warn("Graylog output disabled", "error", graylogErr)
	}
	a.logger.Info("Logging to file", "path", logPath, "otel", provider != nil)
	return nil
}

func (a *app) setupRecording() error {
	storageCfg := config.GetStorageConfig()
	backend, err := createStorageBackend(storageCfg, a.zl, a.logger)
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("failed to initialize %s storage backend: %w", storageCfg.Type, err)
	}
	a.backend = backend

	influxCfg := config.GetInfluxConfig()
	if influxCfg.Enabled {
		m := influx.NewManager(a.zl, influxCfg)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := m.Connect(ctx)
		cancel()
		if err != nil {
			a.logger.Warn("InfluxDB disabled", "error", err)
		} else {
			a.influx = m
		}
	}

	recCfg := config.GetRecorderConfig()
	if recCfg.Enabled {
		deps := worker.Dependencies{
			Backend:       a.backend,
			Context:       a.ctx,
			Logger:        a.logger,
			FlushInterval: recCfg.FlushInterval,
		}
		if a.influx != nil {
			deps.Influx = a.influx
		}
		a.recorder = worker.NewManager(deps)
		a.recorder.Start()
	}
	return nil
}

// Close ends an open flight, drains every queue and releases all outputs.
func (a *app) Close() error {
	var errs []error

	if a.bridge != nil && a.ctx.Active() {
		a.logger.Info("Ending open flight on shutdown", "flight", a.ctx.Name())
		a.logger.Info(a.bridge.Call(":FLIGHT:END:"))
	}
	if a.dispatcher != nil {
		a.dispatcher.Close()
	}
	if a.recorder != nil {
		errs = append(errs, a.recorder.Stop())
		a.logger.Info("Recorder stopped",
			"written", a.recorder.Written(),
			"lastFlush", a.recorder.LastFlushDuration())
	}
	if a.backend != nil {
		errs = append(errs, a.backend.Close())
	}
	if a.influx != nil {
		errs = append(errs, a.influx.Close())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	errs = append(errs, a.slogMgr.Flush(ctx))
	if a.otel != nil {
		errs = append(errs, a.otel.Shutdown(ctx))
	}
	if a.graylog != nil {
		errs = append(errs, a.graylog.Close())
	}
	if a.logFile != nil {
		errs = append(errs, a.logFile.Close())
	}
	return errors.Join(errs...)
}
