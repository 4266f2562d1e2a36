package events

import (
	"encoding/json"
	"errors"
	"testing"

	bazaar_errors "chatbazaar/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeMarshal(t *testing.T) {
	env := New(TypeMessageNew, MessageNewPayload{ConversationID: "c1"})
	data := env.Marshal()
	require.NotNil(t, data)

	var decoded struct {
		Event   string          `json:"event"`
		Payload json.RawMessage `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "message:new", decoded.Event)
	assert.Contains(t, string(decoded.Payload), `"conversationId":"c1"`)
}

func TestParseInbound_AcceptsClosedSet(t *testing.T) {
	for _, event := range []string{"conversation:join", "conversation:leave", "typing:start", "typing:stop"} {
		raw := []byte(`{"event":"` + event + `","conversationId":"c1"}`)
		in, err := ParseInbound(raw)
		require.NoError(t, err, event)
		assert.Equal(t, InboundType(event), in.Event)
		assert.Equal(t, "c1", in.ConversationID)
	}
}

func TestParseInbound_RejectsUnknownEvent(t *testing.T) {
	_, err := ParseInbound([]byte(`{"event":"message:new","conversationId":"c1"}`))
	assert.True(t, errors.Is(err, bazaar_errors.ErrInvalidInput))
}

func TestParseInbound_RejectsMalformedJSON(t *testing.T) {
	_, err := ParseInbound([]byte(`{"event":`))
	assert.True(t, errors.Is(err, bazaar_errors.ErrInvalidInput))
}

func TestParseInbound_RequiresConversationID(t *testing.T) {
	_, err := ParseInbound([]byte(`{"event":"conversation:join"}`))
	assert.True(t, errors.Is(err, bazaar_errors.ErrInvalidInput))
}

func TestRoomNames(t *testing.T) {
	assert.Equal(t, "user:u1", UserRoom("u1"))
	assert.Equal(t, "conversation:c1", ConversationRoom("c1"))
}
