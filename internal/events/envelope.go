package events

import "encoding/json"

// Envelope is the server-to-client wire shape: every payload the service
// emits is {type, data}.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

func New(eventType string, data any) Envelope {
	return Envelope{Type: eventType, Data: data}
}

func Error(message string) Envelope {
	return Envelope{Type: TypeError, Data: ErrorData{Message: message}}
}

func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// ClientEvent is the client-to-server wire shape. Payload fields may arrive
// wrapped in data or inline at the root of the object; the gateway accepts
// both.
type ClientEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}
