// internal/games/registry.go
package games

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/quickparty/quickparty/internal/room"
)

// Factory builds a hooks instance for one room from the room's opaque
// settings blob.
type Factory func(settings json.RawMessage) (room.GameHooks, error)

// Registry maps game types to hook factories. Each room gets its own hooks
// instance so games may keep per-room state.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a game type. Registering an existing type replaces it.
func (reg *Registry) Register(gameType string, f Factory) {
	reg.factories[gameType] = f
}

// New builds hooks for gameType, or errors for unknown types.
func (reg *Registry) New(gameType string, settings json.RawMessage) (room.GameHooks, error) {
	f, ok := reg.factories[gameType]
	if !ok {
		return nil, fmt.Errorf("unknown game type %q", gameType)
	}
	return f(settings)
}

// Types lists registered game types in sorted order, for the catalog.
func (reg *Registry) Types() []string {
	out := make([]string, 0, len(reg.factories))
	for t := range reg.factories {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Default returns a registry with the built-in games. "freeplay" attaches no
// game logic at all; the room runs its lifecycle bare.
func Default() *Registry {
	reg := NewRegistry()
	reg.Register("freeplay", func(json.RawMessage) (room.GameHooks, error) {
		return room.NopHooks{}, nil
	})
	reg.Register("tapgame", NewTapGame)
	return reg
}
