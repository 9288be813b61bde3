package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMissingEvent is returned for frames without an event name.
	ErrMissingEvent = errors.New("protocol: missing event name")
	// ErrMissingData is returned when an event that needs a payload has none.
	ErrMissingData = errors.New("protocol: missing event data")
)

// Envelope is a single event on the wire: {"event": "...", "data": {...}}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Decode parses one inbound frame.
func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("protocol: decode envelope: %w", err)
	}
	if env.Event == "" {
		return Envelope{}, ErrMissingEvent
	}
	return env, nil
}

// Bind unmarshals the envelope payload into v.
func (e Envelope) Bind(v any) error {
	data := bytes.TrimSpace(e.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("%s: %w", e.Event, ErrMissingData)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: decode data: %w", e.Event, err)
	}
	return nil
}

// Encode builds an outbound frame. A nil data value produces an envelope
// without a payload.
func Encode(event string, data any) ([]byte, error) {
	env := Envelope{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("protocol: encode %s: %w", event, err)
		}
		env.Data = raw
	}
	return json.Marshal(env)
}
