package events

import (
	"encoding/json"
	"fmt"

	bazaar_errors "chatbazaar/pkg/errors"
)

// Type is the closed set of server-to-client event names. Clients listen on
// these exact strings; adding a variant here is the only way to emit one.
type Type string

const (
	TypeMessageNew      Type = "message:new"
	TypeMessageRead     Type = "message:read"
	TypeConversationNew Type = "conversation:new"
	TypeTypingStart     Type = "typing:start"
	TypeTypingStop      Type = "typing:stop"
	TypeUserOnline      Type = "user:online"
	TypeUserOffline     Type = "user:offline"
	TypeOnlineList      Type = "users:online-list"
)

// Envelope is the wire format for every pushed event.
type Envelope struct {
	Event   Type            `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func New(t Type, payload any) Envelope {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = nil
	}
	return Envelope{Event: t, Payload: raw}
}

func (e Envelope) Marshal() []byte {
	data, err := json.Marshal(e)
	if err != nil {
		return nil
	}
	return data
}

// Emitter is the push side of the room/channel router. Delivery is
// best-effort: emitting to an unknown user, room or connection is a no-op.
type Emitter interface {
	EmitToUser(userID string, env Envelope)
	EmitToRoom(room string, env Envelope)
	// EmitToRoomExcept skips the originating connection; used for typing
	// indicators so the sender never sees its own event.
	EmitToRoomExcept(room, exceptConnID string, env Envelope)
}

// Room naming. Every user is implicitly addressable via its own user room.
func UserRoom(userID string) string {
	return "user:" + userID
}

func ConversationRoom(conversationID string) string {
	return "conversation:" + conversationID
}

// InboundType is the closed set of client-to-server event names.
type InboundType string

const (
	InboundJoin        InboundType = "conversation:join"
	InboundLeave       InboundType = "conversation:leave"
	InboundTypingStart InboundType = "typing:start"
	InboundTypingStop  InboundType = "typing:stop"
)

// Inbound is a parsed client event.
type Inbound struct {
	Event          InboundType `json:"event"`
	ConversationID string      `json:"conversationId"`
}

// ParseInbound decodes and validates a client frame against the closed event
// set. Unknown event names are rejected rather than silently ignored.
func ParseInbound(data []byte) (Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return Inbound{}, fmt.Errorf("%w: malformed event", bazaar_errors.ErrInvalidInput)
	}
	switch in.Event {
	case InboundJoin, InboundLeave, InboundTypingStart, InboundTypingStop:
	default:
		return Inbound{}, fmt.Errorf("%w: unknown event %q", bazaar_errors.ErrInvalidInput, in.Event)
	}
	if in.ConversationID == "" {
		return Inbound{}, fmt.Errorf("%w: conversationId is required", bazaar_errors.ErrInvalidInput)
	}
	return in, nil
}
