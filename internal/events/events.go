package events

import (
	"encoding/json"
	"time"
)

// Event is one engine notification on the dashboard stream.
type Event struct {
	Type string          `json:"type"`
	At   time.Time       `json:"at"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Event types published by the engine.
const (
	TypePostingCreated = "posting_created"
	TypeRunFinished    = "run_finished"
)

// New stamps an event, serializing data as its payload.
func New(typ string, data any) Event {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	return Event{Type: typ, At: time.Now().UTC(), Data: raw}
}

// Encode renders the JSON for one SSE data line.
func (e Event) Encode() string {
	b, _ := json.Marshal(e)
	return string(b)
}
