package websocket

import (
	"context"
	"encoding/json"

	"chatbazaar/internal/events"
	appredis "chatbazaar/internal/redis"
	"chatbazaar/pkg/logger"
)

// EventsChannel carries every cross-instance fanout frame.
const EventsChannel = "ws:events"

// frame is the pub/sub wire format: exactly one of Room or User is set, and
// Except carries the originating connection id for room emits that must skip
// their origin. Connection ids are unique across instances, so a foreign
// instance simply finds no match for Except and delivers to everyone.
type frame struct {
	Origin   string          `json:"origin"`
	Room     string          `json:"room,omitempty"`
	User     string          `json:"user,omitempty"`
	All      bool            `json:"all,omitempty"`
	Except   string          `json:"except,omitempty"`
	Envelope events.Envelope `json:"envelope"`
}

// RedisEmitter satisfies events.Emitter by delivering locally and publishing
// the same frame to Redis so every other instance's bridge can deliver it to
// its own clients.
type RedisEmitter struct {
	hub       *Hub
	publisher *appredis.Publisher
	origin    string
	log       *logger.Logger
}

func NewRedisEmitter(hub *Hub, publisher *appredis.Publisher, origin string, log *logger.Logger) *RedisEmitter {
	return &RedisEmitter{hub: hub, publisher: publisher, origin: origin, log: log}
}

func (e *RedisEmitter) EmitToUser(userID string, env events.Envelope) {
	e.hub.EmitToUser(userID, env)
	e.publish(frame{User: userID, Envelope: env})
}

func (e *RedisEmitter) EmitToRoom(room string, env events.Envelope) {
	e.hub.EmitToRoom(room, env)
	e.publish(frame{Room: room, Envelope: env})
}

func (e *RedisEmitter) EmitToRoomExcept(room, exceptConnID string, env events.Envelope) {
	e.hub.EmitToRoomExcept(room, exceptConnID, env)
	e.publish(frame{Room: room, Except: exceptConnID, Envelope: env})
}

func (e *RedisEmitter) BroadcastAll(env events.Envelope) {
	e.hub.BroadcastAll(env)
	e.publish(frame{All: true, Envelope: env})
}

func (e *RedisEmitter) publish(f frame) {
	f.Origin = e.origin
	payload, err := json.Marshal(f)
	if err != nil {
		return
	}
	if err := e.publisher.Publish(context.Background(), EventsChannel, payload); err != nil {
		e.log.Warnf("failed to publish ws frame: %v", err)
	}
}

// Bridge subscribes to the events channel and routes foreign frames into the
// local hub. Frames this instance published come back too and are skipped by
// origin, since the emitter already delivered them locally.
type Bridge struct {
	subscriber *appredis.Subscriber
	hub        *Hub
	log        *logger.Logger
	origin     string
}

func NewBridge(subscriber *appredis.Subscriber, hub *Hub, origin string, log *logger.Logger) *Bridge {
	return &Bridge{subscriber: subscriber, hub: hub, origin: origin, log: log}
}

// Run blocks until ctx is cancelled or the subscription fails.
func (b *Bridge) Run(ctx context.Context) error {
	return b.subscriber.Subscribe(ctx, []string{EventsChannel}, func(channel string, payload []byte) {
		var f frame
		if err := json.Unmarshal(payload, &f); err != nil {
			b.log.Warnf("dropping malformed ws frame: %v", err)
			return
		}
		if f.Origin == b.origin {
			return
		}
		switch {
		case f.All:
			b.hub.BroadcastAll(f.Envelope)
		case f.User != "":
			b.hub.EmitToUser(f.User, f.Envelope)
		case f.Room != "":
			b.hub.EmitToRoomExcept(f.Room, f.Except, f.Envelope)
		}
	})
}
