package domain

import (
	"encoding/json"
	"time"
)

// Event is published to subscribers once a command has completed. Renderers
// re-read the store on receipt; Payload echoes the command input.
type Event struct {
	ID      string       `json:"id"`
	Command string       `json:"command"`
	Entity  EntityType   `json:"entity"`
	IDs     []int64      `json:"ids,omitempty"`
	At      time.Time    `json:"at"`
	Payload EventPayload `json:"payload"`
}

// EventPayload wraps a JSON encoding of a command input. The bytes are cloned
// on the way in and on the way out so subscribers cannot alias each other.
type EventPayload struct {
	defined bool
	raw     json.RawMessage
}

// NewEventPayload builds a payload from raw JSON. A nil slice yields a defined
// but empty payload; use UndefinedEventPayload for "not set".
func NewEventPayload(raw json.RawMessage) EventPayload {
	payload := EventPayload{defined: true}
	if raw != nil {
		payload.raw = cloneRawMessage(raw)
	}
	return payload
}

// NewEventPayloadFromValue marshals a typed value into an EventPayload.
func NewEventPayloadFromValue[T any](value T) (EventPayload, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return EventPayload{}, err
	}
	return NewEventPayload(raw), nil
}

// UndefinedEventPayload returns an uninitialized payload.
func UndefinedEventPayload() EventPayload {
	return EventPayload{}
}

// Defined reports whether the payload has been initialized.
func (p EventPayload) Defined() bool {
	return p.defined
}

// IsEmpty reports whether the payload contains no bytes.
func (p EventPayload) IsEmpty() bool {
	return !p.defined || len(p.raw) == 0
}

// Raw returns a copy of the JSON bytes, nil when undefined or empty.
func (p EventPayload) Raw() json.RawMessage {
	if p.IsEmpty() {
		return nil
	}
	return cloneRawMessage(p.raw)
}

// MarshalJSON emits the wrapped JSON, or null when empty.
func (p EventPayload) MarshalJSON() ([]byte, error) {
	if p.IsEmpty() {
		return []byte("null"), nil
	}
	return cloneRawMessage(p.raw), nil
}

// UnmarshalJSON captures the raw bytes.
func (p *EventPayload) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = NewEventPayload(nil)
		return nil
	}
	*p = NewEventPayload(data)
	return nil
}

func cloneRawMessage(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	cloned := make(json.RawMessage, len(raw))
	copy(cloned, raw)
	return cloned
}
