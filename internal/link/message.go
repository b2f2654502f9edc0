package link

import "encoding/json"

// Message types exchanged over the bridge.
const (
	MsgCreate = "create"
	MsgUpdate = "update"
	MsgCall   = "call"
	MsgScript = "script"
	MsgReply  = "reply"
	MsgEvent  = "event"
)

// Envelope is a server-to-client message.
type Envelope struct {
	Type    string         `json:"type"`
	Element string         `json:"element,omitempty"`
	CallID  string         `json:"call_id,omitempty"`
	Method  string         `json:"method,omitempty"`
	Args    []any          `json:"args,omitempty"`
	Code    string         `json:"code,omitempty"`
	Props   map[string]any `json:"props,omitempty"`
	Classes []string       `json:"classes,omitempty"`
}

// Inbound is a client-to-server message: either a correlated reply or a
// widget event.
type Inbound struct {
	Type   string `json:"type"`
	CallID string `json:"call_id,omitempty"`

	// Reply fields.
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
	// Missing is set by the client when the call's target object did not
	// exist (distinct from a method legitimately returning undefined).
	Missing bool `json:"missing,omitempty"`

	// Event fields.
	Element string `json:"element,omitempty"`
	Event   string `json:"event,omitempty"`
	Args    []any  `json:"args,omitempty"`
}
