package websocket

import (
	"testing"

	"chatbazaar/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient builds a client without a live socket; delivery is observed
// by reading the Send channel directly.
func newTestClient(userID string) *Client {
	return NewClient(nil, userID)
}

func drain(c *Client) [][]byte {
	var out [][]byte
	for {
		select {
		case msg := <-c.Send:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestHub_EmitToUserReachesAllConnections(t *testing.T) {
	h := NewHub()
	tab1 := newTestClient("user-1")
	tab2 := newTestClient("user-1")
	other := newTestClient("user-2")
	h.Register(tab1)
	h.Register(tab2)
	h.Register(other)

	h.EmitToUser("user-1", events.New(events.TypeMessageNew, nil))

	assert.Len(t, drain(tab1), 1)
	assert.Len(t, drain(tab2), 1)
	assert.Empty(t, drain(other))
}

func TestHub_EmitToUnknownUserIsNoop(t *testing.T) {
	h := NewHub()
	h.EmitToUser("ghost", events.New(events.TypeMessageNew, nil))
}

func TestHub_RoomDelivery(t *testing.T) {
	h := NewHub()
	a := newTestClient("user-a")
	b := newTestClient("user-b")
	c := newTestClient("user-c")
	h.Register(a)
	h.Register(b)
	h.Register(c)

	h.Join(a, "conversation:c1")
	h.Join(b, "conversation:c1")

	h.EmitToRoom("conversation:c1", events.New(events.TypeTypingStart, nil))

	assert.Len(t, drain(a), 1)
	assert.Len(t, drain(b), 1)
	assert.Empty(t, drain(c))
}

func TestHub_EmitToRoomExceptSkipsOrigin(t *testing.T) {
	h := NewHub()
	origin := newTestClient("user-a")
	peer := newTestClient("user-b")
	h.Register(origin)
	h.Register(peer)
	h.Join(origin, "conversation:c1")
	h.Join(peer, "conversation:c1")

	h.EmitToRoomExcept("conversation:c1", origin.ID, events.New(events.TypeTypingStart, nil))

	assert.Empty(t, drain(origin))
	assert.Len(t, drain(peer), 1)
}

func TestHub_JoinIsIdempotent(t *testing.T) {
	h := NewHub()
	c := newTestClient("user-a")
	h.Register(c)

	h.Join(c, "conversation:c1")
	h.Join(c, "conversation:c1")

	require.Equal(t, 1, h.RoomMemberCount("conversation:c1"))
	h.EmitToRoom("conversation:c1", events.New(events.TypeTypingStart, nil))
	assert.Len(t, drain(c), 1)
}

func TestHub_JoinBeforeRegisterIsIgnored(t *testing.T) {
	h := NewHub()
	c := newTestClient("user-a")

	h.Join(c, "conversation:c1")
	assert.Equal(t, 0, h.RoomMemberCount("conversation:c1"))
}

func TestHub_UnregisterCleansRooms(t *testing.T) {
	h := NewHub()
	c := newTestClient("user-a")
	h.Register(c)
	h.Join(c, "conversation:c1")

	h.Unregister(c)

	assert.Equal(t, 0, h.ClientCount())
	assert.Equal(t, 0, h.RoomMemberCount("conversation:c1"))
	_, open := <-c.Send
	assert.False(t, open)

	// A second unregister of the same client must not panic or double-close.
	h.Unregister(c)
}

func TestHub_BroadcastAll(t *testing.T) {
	h := NewHub()
	a := newTestClient("user-a")
	b := newTestClient("user-b")
	h.Register(a)
	h.Register(b)

	h.BroadcastAll(events.New(events.TypeUserOnline, events.PresencePayload{UserID: "user-c"}))

	assert.Len(t, drain(a), 1)
	assert.Len(t, drain(b), 1)
}

func TestHub_LeaveRemovesDelivery(t *testing.T) {
	h := NewHub()
	c := newTestClient("user-a")
	h.Register(c)
	h.Join(c, "conversation:c1")
	h.Leave(c, "conversation:c1")

	h.EmitToRoom("conversation:c1", events.New(events.TypeTypingStart, nil))
	assert.Empty(t, drain(c))
	assert.False(t, c.InRoom("conversation:c1"))
}
