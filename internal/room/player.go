// internal/room/player.go
package room

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Player is one participant's row in a room's registry. The ID is the
// transport-assigned session identifier, reused verbatim across reconnects.
type Player struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`

	IsHost bool `json:"isHost"`
	// IsReady is meaningful in LOBBY; in RESULTS the same flag is the
	// player's rematch vote.
	IsReady     bool `json:"isReady"`
	IsConnected bool `json:"isConnected"`
	IsAlive     bool `json:"isAlive"`

	Score        int       `json:"score"`
	LastActivity time.Time `json:"-"`

	// GameData is owned entirely by the game hooks. The room core only
	// carries it across reconnects and clears it on reset.
	GameData json.RawMessage `json:"-"`
}

// Registry is the in-memory player table for a single room. It is not
// safe for concurrent use on its own; the owning room's lock serializes
// access. Iteration order is join order, which makes host reassignment
// deterministic.
type Registry struct {
	players map[uuid.UUID]*Player
	order   []uuid.UUID
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		players: make(map[uuid.UUID]*Player),
	}
}

// Upsert returns the existing player for id, or creates a new one with the
// given display name. The second return is true if a new row was created.
func (reg *Registry) Upsert(id uuid.UUID, name string) (*Player, bool) {
	if p, ok := reg.players[id]; ok {
		return p, false
	}
	p := &Player{
		ID:           id,
		Name:         name,
		IsConnected:  true,
		LastActivity: time.Now(),
	}
	reg.players[id] = p
	reg.order = append(reg.order, id)
	return p, true
}

// Get returns the player for id, if present.
func (reg *Registry) Get(id uuid.UUID) (*Player, bool) {
	p, ok := reg.players[id]
	return p, ok
}

// Remove deletes the player for id. No side effects beyond the registry;
// the caller handles host reassignment and notifications.
func (reg *Registry) Remove(id uuid.UUID) {
	if _, ok := reg.players[id]; !ok {
		return
	}
	delete(reg.players, id)
	for i, oid := range reg.order {
		if oid == id {
			reg.order = append(reg.order[:i], reg.order[i+1:]...)
			break
		}
	}
}

// Len returns the total number of registered players, connected or not.
func (reg *Registry) Len() int {
	return len(reg.players)
}

// All returns every player in join order.
func (reg *Registry) All() []*Player {
	out := make([]*Player, 0, len(reg.order))
	for _, id := range reg.order {
		out = append(out, reg.players[id])
	}
	return out
}

// ConnectedPlayers returns currently connected players in join order.
func (reg *Registry) ConnectedPlayers() []*Player {
	var out []*Player
	for _, id := range reg.order {
		if p := reg.players[id]; p.IsConnected {
			out = append(out, p)
		}
	}
	return out
}

// ReadyPlayers returns connected players with the ready flag set.
func (reg *Registry) ReadyPlayers() []*Player {
	var out []*Player
	for _, id := range reg.order {
		if p := reg.players[id]; p.IsConnected && p.IsReady {
			out = append(out, p)
		}
	}
	return out
}

// AlivePlayers returns connected players still alive in the current game.
func (reg *Registry) AlivePlayers() []*Player {
	var out []*Player
	for _, id := range reg.order {
		if p := reg.players[id]; p.IsConnected && p.IsAlive {
			out = append(out, p)
		}
	}
	return out
}

// CurrentHost returns the player flagged as host, if any.
func (reg *Registry) CurrentHost() (*Player, bool) {
	for _, id := range reg.order {
		if p := reg.players[id]; p.IsHost {
			return p, true
		}
	}
	return nil, false
}

// ReassignHost clears any stale host flag and promotes the first connected
// player in join order. Returns the new host, or false if nobody is
// connected (the room is then host-less by definition).
func (reg *Registry) ReassignHost() (*Player, bool) {
	for _, id := range reg.order {
		reg.players[id].IsHost = false
	}
	for _, id := range reg.order {
		if p := reg.players[id]; p.IsConnected {
			p.IsHost = true
			return p, true
		}
	}
	return nil, false
}
