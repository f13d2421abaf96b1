// Package streaming defines the messages exchanged with a live flight viewer.
package streaming

import (
	"encoding/json"

	"github.com/slefx/plumectl/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeStartFlight = "start_flight"
	TypeEndFlight   = "end_flight"
	TypeSample      = "sample"
	TypeAck         = "ack"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// FlightPayload carries the flight for start_flight and end_flight.
// On end_flight EndTime and Track are set.
type FlightPayload struct {
	Flight *core.Flight `json:"flight"`
}
