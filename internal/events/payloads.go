package events

// Typed payloads for outbound events. Field names match what the web client
// expects.

type MessageNewPayload struct {
	ConversationID string `json:"conversationId"`
	Message        any    `json:"message"`
}

type MessageReadPayload struct {
	MessageID      string `json:"messageId"`
	ConversationID string `json:"conversationId"`
	ReadBy         string `json:"readBy"`
}

type TypingPayload struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
}

type PresencePayload struct {
	UserID string `json:"userId"`
}

type OnlineListPayload struct {
	Users []string `json:"users"`
}
