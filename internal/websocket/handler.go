package websocket

import (
	"context"
	"net/http"
	"time"

	"chatbazaar/internal/events"
	"chatbazaar/internal/presence"
	"chatbazaar/internal/services"
	"chatbazaar/internal/transport/httpdto"
	"chatbazaar/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const readDeadline = 60 * time.Second

// Broadcaster fans an event out to every connected client. The hub satisfies
// it for single-instance deployments; the Redis emitter satisfies it when
// presence announcements must reach every instance.
type Broadcaster interface {
	BroadcastAll(env events.Envelope)
}

type Handler struct {
	auth          *services.AuthService
	hub           *Hub
	broadcast     Broadcaster
	presence      *presence.Registry
	conversations *services.ConversationService
	messages      *services.MessageService
	log           *logger.Logger
}

func NewHandler(
	auth *services.AuthService,
	hub *Hub,
	broadcast Broadcaster,
	reg *presence.Registry,
	conversations *services.ConversationService,
	messages *services.MessageService,
	log *logger.Logger,
) *Handler {
	return &Handler{
		auth:          auth,
		hub:           hub,
		broadcast:     broadcast,
		presence:      reg,
		conversations: conversations,
		messages:      messages,
		log:           log,
	}
}

// Connect upgrades the request, registers the connection and runs the read
// loop until the socket closes. Presence transitions fire exactly on the
// first connection up and the last connection down, so a second tab never
// re-announces user:online.
func (h *Handler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	claims, err := h.auth.ParseAccessToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(conn, claims.UserID)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.hub.Register(client)
	go client.WriteLoop(ctx)

	online, cameOnline := h.presence.Register(client.UserID, client.ID)
	client.SendEnvelope(events.New(events.TypeOnlineList, events.OnlineListPayload{Users: online}))
	if cameOnline {
		h.broadcast.BroadcastAll(events.New(events.TypeUserOnline, events.PresencePayload{UserID: client.UserID}))
	}
	h.log.Infof("websocket connected user_id=%s conn_id=%s", client.UserID, client.ID)

	h.readLoop(ctx, client)

	h.hub.Unregister(client)
	if h.presence.Unregister(client.UserID, client.ID) {
		h.broadcast.BroadcastAll(events.New(events.TypeUserOffline, events.PresencePayload{UserID: client.UserID}))
	}
	h.log.Infof("websocket disconnected user_id=%s conn_id=%s", client.UserID, client.ID)
}

func (h *Handler) readLoop(ctx context.Context, client *Client) {
	conn := client.Conn
	_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readDeadline))

		in, err := events.ParseInbound(data)
		if err != nil {
			// Bad frames are dropped, not fatal; a buggy client should not
			// lose its connection over one malformed event.
			continue
		}
		h.dispatch(ctx, client, in)
	}
}

func (h *Handler) dispatch(ctx context.Context, client *Client, in events.Inbound) {
	conversationID, err := uuid.Parse(in.ConversationID)
	if err != nil {
		return
	}
	userID, err := uuid.Parse(client.UserID)
	if err != nil {
		return
	}

	switch in.Event {
	case events.InboundJoin:
		ok, err := h.conversations.IsParticipant(ctx, conversationID, userID)
		if err != nil || !ok {
			return
		}
		h.hub.Join(client, events.ConversationRoom(in.ConversationID))
	case events.InboundLeave:
		h.hub.Leave(client, events.ConversationRoom(in.ConversationID))
	case events.InboundTypingStart:
		if client.InRoom(events.ConversationRoom(in.ConversationID)) {
			h.messages.Typing(conversationID, userID, true, client.ID)
		}
	case events.InboundTypingStop:
		if client.InRoom(events.ConversationRoom(in.ConversationID)) {
			h.messages.Typing(conversationID, userID, false, client.ID)
		}
	}
}
