package websocket

import (
	"sync"

	"chatbazaar/internal/events"
)

// Hub manages WebSocket client connections and room membership. It is the
// local half of the room/channel router: services address users and rooms,
// never raw connections. Delivery is best-effort; a dead or unknown target
// is silently skipped.
type Hub struct {
	mu sync.RWMutex

	// clients maps connection ID to client
	clients map[string]*Client

	// users maps user ID to that user's connections; a user with several
	// tabs open has several entries here and all of them receive events
	users map[string]map[*Client]struct{}

	// rooms maps room name to the set of member clients
	rooms map[string]map[*Client]struct{}
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		users:   make(map[string]map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
	}
}

// Register adds a new client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	if _, ok := h.users[client.UserID]; !ok {
		h.users[client.UserID] = make(map[*Client]struct{})
	}
	h.users[client.UserID][client] = struct{}{}
}

// Unregister removes a client and all its room memberships
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	for _, room := range client.Rooms() {
		if members, ok := h.rooms[room]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}

	if conns, ok := h.users[client.UserID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.users, client.UserID)
		}
	}

	delete(h.clients, client.ID)
	close(client.Send)
}

// Join adds a client to a room; joining twice is a no-op
func (h *Hub) Join(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][client] = struct{}{}
	client.joinRoom(room)
}

// Leave removes a client from a room; leaving a room never joined is a no-op
func (h *Hub) Leave(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	client.leaveRoom(room)
}

// EmitToUser delivers an event to every connection registered for the user
func (h *Hub) EmitToUser(userID string, env events.Envelope) {
	payload := env.Marshal()
	h.mu.RLock()
	for client := range h.users[userID] {
		client.SendRaw(payload)
	}
	h.mu.RUnlock()
}

// EmitToRoom delivers an event to every member of the room
func (h *Hub) EmitToRoom(room string, env events.Envelope) {
	h.emitToRoom(room, "", env)
}

// EmitToRoomExcept delivers to every room member except the named connection
func (h *Hub) EmitToRoomExcept(room, exceptConnID string, env events.Envelope) {
	h.emitToRoom(room, exceptConnID, env)
}

func (h *Hub) emitToRoom(room, exceptConnID string, env events.Envelope) {
	payload := env.Marshal()
	h.mu.RLock()
	for client := range h.rooms[room] {
		if exceptConnID != "" && client.ID == exceptConnID {
			continue
		}
		client.SendRaw(payload)
	}
	h.mu.RUnlock()
}

// BroadcastAll delivers an event to every connected client; used for the
// process-wide online/offline announcements
func (h *Hub) BroadcastAll(env events.Envelope) {
	payload := env.Marshal()
	h.mu.RLock()
	for _, client := range h.clients {
		client.SendRaw(payload)
	}
	h.mu.RUnlock()
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomMemberCount returns the number of members in a room
func (h *Hub) RoomMemberCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
