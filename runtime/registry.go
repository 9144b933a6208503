// Package runtime wires the live rooms to the outside world: the
// Registry owns the set of rooms, the Engine is the operation surface
// callers go through. It orchestrates without containing domain rules.
package runtime

import (
	"sync"

	"streamchat/domain"
	"streamchat/room"
)

// Registry is the concurrent-safe map of live rooms keyed by room id.
// It has an explicit lifecycle: constructed at process start, drained on
// shutdown; nothing here is a package-level singleton.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room.ChatRoom
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*room.ChatRoom)}
}

// Add registers a freshly created room.
func (r *Registry) Add(cr *room.ChatRoom) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[cr.ID()]; ok {
		return domain.InvalidState("room %s already exists", cr.ID())
	}
	r.rooms[cr.ID()] = cr
	return nil
}

// Get resolves a room id, failing NotFound for unknown or evicted rooms.
func (r *Registry) Get(id string) (*room.ChatRoom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cr, ok := r.rooms[id]
	if !ok {
		return nil, domain.NotFound("room %s not found", id)
	}
	return cr, nil
}

// Remove drops a room from the map. The caller closes the room first so
// in-flight operations finish before the reference disappears.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, id)
}

// Rooms snapshots the current room set for iteration without holding
// the registry lock.
func (r *Registry) Rooms() []*room.ChatRoom {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*room.ChatRoom, 0, len(r.rooms))
	for _, cr := range r.rooms {
		out = append(out, cr)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
