package liftoff

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/slefx/plumectl/internal/channel"
)

// Snapshot is what a producer shares with the consumers of its vessel each tick.
type Snapshot struct {
	Up       float32
	Down     float32
	Thrust   float32
	Position mgl64.Vec3
}

// Link carries producer snapshots to any number of consumers. Consumers see the
// most recent snapshot published; the zero Snapshot until the first one arrives.
type Link struct {
	ch channel.Channel[Snapshot]

	mu     sync.Mutex
	last   Snapshot
	seen   bool
	closed bool
}

// NewLink returns an empty link.
func NewLink() *Link {
	return &Link{ch: channel.NewLatest[Snapshot]()}
}

// Publish replaces the pending snapshot. It does nothing once the link is closed.
func (l *Link) Publish(s Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.ch.Send(s)
}

// Latest returns the newest snapshot and whether any was ever published.
func (l *Link) Latest() (Snapshot, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return l.last, l.seen
	}
	select {
	case s, ok := <-l.ch.Receive():
		if ok {
			l.last = s
			l.seen = true
		}
	default:
	}
	return l.last, l.seen
}

// Close stops the link. Latest keeps returning the last snapshot.
func (l *Link) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.ch.Close()
}
