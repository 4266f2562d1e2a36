package presence

import (
	"hash/fnv"
	"sync"
)

const shardCount = 32

// Registry tracks which users currently have at least one live connection.
// State is purely in-memory: on process restart every user is offline until
// its client reconnects. The map is sharded by user id so that many
// connections registering concurrently do not contend on a single lock.
type Registry struct {
	shards [shardCount]*shard
}

type shard struct {
	mu    sync.Mutex
	conns map[string]map[string]struct{} // userID -> set of connection ids
}

func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i] = &shard{conns: make(map[string]map[string]struct{})}
	}
	return r
}

func (r *Registry) shardFor(userID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return r.shards[h.Sum32()%shardCount]
}

// Register adds a connection for the user. It returns the snapshot of all
// currently-online user ids (for the users:online-list greeting to the new
// connection) and whether the user just transitioned from offline to online.
func (r *Registry) Register(userID, connID string) (online []string, cameOnline bool) {
	s := r.shardFor(userID)
	s.mu.Lock()
	set, ok := s.conns[userID]
	if !ok {
		set = make(map[string]struct{})
		s.conns[userID] = set
		cameOnline = true
	}
	set[connID] = struct{}{}
	s.mu.Unlock()

	return r.OnlineUsers(), cameOnline
}

// Unregister removes a connection for the user and reports whether the user
// transitioned from online to offline (last connection gone).
func (r *Registry) Unregister(userID, connID string) (wentOffline bool) {
	s := r.shardFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.conns[userID]
	if !ok {
		return false
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(s.conns, userID)
		return true
	}
	return false
}

// IsOnline reports whether the user has at least one live connection.
func (r *Registry) IsOnline(userID string) bool {
	s := r.shardFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns[userID]) > 0
}

// ConnectionCount returns the number of live connections for the user.
func (r *Registry) ConnectionCount(userID string) int {
	s := r.shardFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns[userID])
}

// OnlineUsers returns a snapshot of every online user id.
func (r *Registry) OnlineUsers() []string {
	var out []string
	for _, s := range r.shards {
		s.mu.Lock()
		for userID := range s.conns {
			out = append(out, userID)
		}
		s.mu.Unlock()
	}
	return out
}
