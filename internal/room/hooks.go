// internal/room/hooks.go
package room

// GameHooks is the contract between the room core and game-specific logic.
// A hooks implementation is chosen at room creation time and invoked with
// the room lock held, so implementations may freely mutate player score,
// alive flags and GameData, and may call Room.EndGame to finish the round.
//
// Hook failures never abort the phase transition that triggered them; the
// room recovers, logs and moves on.
type GameHooks interface {
	// OnGameStart runs right after the COUNTDOWN -> PLAYING transition.
	OnGameStart(r *Room)

	// OnGameReset runs during the RESET phase, after the core has cleared
	// scores, results and alive flags.
	OnGameReset(r *Room)

	// OnGameMessage receives every inbound message type the core does not
	// handle itself. Returning an error sends a rejection to the player.
	OnGameMessage(r *Room, p *Player, msgType string, payload map[string]interface{}) error

	// OnPlayerRemoved runs when a player is permanently removed while the
	// room is mid-PLAYING. The core does not know how to end an in-progress
	// game for every game type; implementations decide whether the remaining
	// alive players still make a game.
	OnPlayerRemoved(r *Room, p *Player)
}

// NopHooks is the default hooks implementation. Rooms created without
// game-specific behavior run the full lifecycle with no game attached.
type NopHooks struct{}

func (NopHooks) OnGameStart(*Room) {}
func (NopHooks) OnGameReset(*Room) {}
func (NopHooks) OnGameMessage(*Room, *Player, string, map[string]interface{}) error {
	return nil
}
func (NopHooks) OnPlayerRemoved(*Room, *Player) {}
