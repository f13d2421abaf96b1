// Package websocket streams flight samples to a live viewer.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/slefx/plumectl/internal/config"
	"github.com/slefx/plumectl/internal/storage"
	"github.com/slefx/plumectl/pkg/core"
	"github.com/slefx/plumectl/pkg/streaming"
)

var _ storage.Backend = (*Backend)(nil)

const (
	defaultAckTimeout  = 10 * time.Second
	defaultDialTimeout = 5 * time.Second
)

// Backend streams flight data over WebSocket. Samples are fire-and-forget,
// flight start and end wait for the server's ack.
// It implements storage.Backend but not storage.Exportable.
type Backend struct {
	conn *connection
	cfg  config.WebSocketConfig

	mu     sync.Mutex
	flight *core.Flight
}

// New creates a new WebSocket storage backend. A nil logger uses slog.Default.
func New(cfg config.WebSocketConfig, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = defaultAckTimeout
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	return &Backend{
		conn: newConnection(logger.With("component", "websocket"), cfg.DialTimeout),
		cfg:  cfg,
	}
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	return b.conn.close()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env := streaming.Envelope{Type: msgType, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// StartFlight sends the flight and waits for server ack.
func (b *Backend) StartFlight(f *core.Flight) error {
	data, err := marshalEnvelope(streaming.TypeStartFlight, streaming.FlightPayload{Flight: f})
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.flight = f
	b.mu.Unlock()

	// Cache for reconnect replay.
	b.conn.setReplay(data)

	return b.conn.sendAndWait(data, streaming.TypeStartFlight, b.cfg.AckTimeout)
}

// EndFlight sends the finished flight and waits for server ack.
func (b *Backend) EndFlight() error {
	b.mu.Lock()
	f := b.flight
	b.flight = nil
	b.mu.Unlock()

	if f == nil {
		return nil
	}

	// Clear cached state regardless of error.
	defer b.conn.setReplay(nil)

	data, err := marshalEnvelope(streaming.TypeEndFlight, streaming.FlightPayload{Flight: f})
	if err != nil {
		return err
	}
	return b.conn.sendAndWait(data, streaming.TypeEndFlight, b.cfg.AckTimeout)
}

// RecordSample pushes one sample to the write loop.
func (b *Backend) RecordSample(s *core.Sample) error {
	b.mu.Lock()
	open := b.flight != nil
	b.mu.Unlock()

	if !open {
		return storage.ErrNoFlight
	}

	data, err := marshalEnvelope(streaming.TypeSample, s)
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}
