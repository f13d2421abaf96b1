package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/slefx/plumectl/pkg/streaming"
)

const (
	outboxSize   = 10_000
	maxReconnect = 10
	minBackoff   = time.Second
	maxBackoff   = 30 * time.Second
	writeWait    = 10 * time.Second
)

// errClosed is returned by sendAndWait once the connection is shut down.
var errClosed = errors.New("connection closed")

// connection owns one WebSocket with a single writer goroutine and a single
// reader goroutine. Both are restarted by reconnect.
type connection struct {
	mu      sync.Mutex
	conn    *ws.Conn
	closed  bool
	replay  []byte // written first on every reconnect
	waiters map[string]chan struct{}

	outbox  chan []byte
	done    chan struct{}
	dropped atomic.Int64

	target string // URL including the secret query param
	dialer *ws.Dialer
	logger *slog.Logger
}

func newConnection(logger *slog.Logger, dialTimeout time.Duration) *connection {
	return &connection{
		waiters: make(map[string]chan struct{}),
		outbox:  make(chan []byte, outboxSize),
		done:    make(chan struct{}),
		dialer:  &ws.Dialer{HandshakeTimeout: dialTimeout},
		logger:  logger,
	}
}

// setReplay sets the message written first after every reconnect. nil clears it.
func (c *connection) setReplay(data []byte) {
	c.mu.Lock()
	c.replay = data
	c.mu.Unlock()
}

// dial connects and starts the read and write loops.
func (c *connection) dial(rawURL, secret string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid websocket URL: %w", err)
	}
	q := u.Query()
	q.Set("secret", secret)
	u.RawQuery = q.Encode()
	c.target = u.String()

	conn, _, err := c.dialer.Dial(c.target, nil)
	if err != nil {
		return fmt.Errorf("websocket dial failed: %w", err)
	}
	c.attach(conn)
	return nil
}

// attach makes conn current and starts its loops.
func (c *connection) attach(conn *ws.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.writeLoop(conn)
	go c.readLoop(conn)
}

func writeFrame(conn *ws.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(ws.TextMessage, data)
}

// writeLoop drains the outbox into conn until a write fails or shutdown.
func (c *connection) writeLoop(conn *ws.Conn) {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.outbox:
			if err := writeFrame(conn, data); err != nil {
				c.logger.Warn("WebSocket write error", "error", err)
				go c.reconnect(conn)
				return
			}
		}
	}
}

// readLoop hands acks from conn to whoever waits for them.
func (c *connection) readLoop(conn *ws.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}
			c.logger.Warn("WebSocket read error", "error", err)
			go c.reconnect(conn)
			return
		}

		var ack streaming.AckMessage
		if err := json.Unmarshal(message, &ack); err != nil || ack.Type != streaming.TypeAck {
			c.logger.Debug("Ignoring non-ack message", "raw", string(message))
			continue
		}
		c.deliver(ack.For)
	}
}

func (c *connection) deliver(ackFor string) {
	c.mu.Lock()
	w, ok := c.waiters[ackFor]
	c.mu.Unlock()

	if !ok {
		c.logger.Debug("Ack nobody waits for", "for", ackFor)
		return
	}
	select {
	case w <- struct{}{}:
	default:
	}
}

// nextBackoff doubles d up to maxBackoff.
func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// reconnect replaces broken with a new connection, retrying with exponential
// backoff. The write and read loops both call it on failure; only the first
// call for a given broken connection does anything.
func (c *connection) reconnect(broken *ws.Conn) {
	c.mu.Lock()
	if c.closed || c.conn != broken {
		c.mu.Unlock()
		return
	}
	_ = broken.Close()
	c.conn = nil
	c.mu.Unlock()

	backoff := minBackoff
	for attempt := 1; attempt <= maxReconnect; attempt++ {
		c.logger.Info("Reconnecting to WebSocket", "attempt", attempt, "backoff", backoff)
		select {
		case <-c.done:
			return
		case <-time.After(backoff):
		}

		conn, _, err := c.dialer.Dial(c.target, nil)
		if err != nil {
			c.logger.Warn("Reconnect dial failed", "attempt", attempt, "error", err)
			backoff = nextBackoff(backoff)
			continue
		}

		c.mu.Lock()
		replay := c.replay
		c.mu.Unlock()

		// the server attaches samples to the flight it last saw started
		if replay != nil {
			if err := writeFrame(conn, replay); err != nil {
				c.logger.Warn("Failed to replay start_flight after reconnect", "error", err)
				_ = conn.Close()
				backoff = nextBackoff(backoff)
				continue
			}
		}

		c.logger.Info("WebSocket reconnected", "attempt", attempt, "dropped", c.dropped.Load())
		c.attach(conn)
		return
	}

	c.logger.Error("WebSocket reconnect failed after max attempts", "maxAttempts", maxReconnect)
}

// send queues data for the write loop. It never blocks; data is dropped when
// the outbox is full.
func (c *connection) send(data []byte) {
	select {
	case c.outbox <- data:
	default:
		if n := c.dropped.Add(1); n == 1 || n%1000 == 0 {
			c.logger.Warn("WebSocket outbox full, dropping messages", "dropped", n)
		}
	}
}

// sendAndWait queues data and blocks until the server acks ackFor or the
// timeout expires.
func (c *connection) sendAndWait(data []byte, ackFor string, timeout time.Duration) error {
	w := make(chan struct{}, 1)
	c.mu.Lock()
	c.waiters[ackFor] = w
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		if c.waiters[ackFor] == w {
			delete(c.waiters, ackFor)
		}
		c.mu.Unlock()
	}()

	c.send(data)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-w:
		return nil
	case <-timer.C:
		return fmt.Errorf("timeout waiting for ack of %q", ackFor)
	case <-c.done:
		return fmt.Errorf("waiting for ack of %q: %w", ackFor, errClosed)
	}
}

// close sends a close frame and stops both loops.
func (c *connection) close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	_ = conn.WriteControl(
		ws.CloseMessage,
		ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return conn.Close()
}
