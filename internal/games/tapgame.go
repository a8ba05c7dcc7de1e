// internal/games/tapgame.go
package games

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/quickparty/quickparty/internal/room"
)

// TapGameSettings is the per-room settings blob for the tap race.
type TapGameSettings struct {
	TargetTaps int `json:"targetTaps"`
}

// tapData is each player's GameData blob: their tap count and last tap time.
type tapData struct {
	Taps      int   `json:"taps"`
	LastTapAt int64 `json:"lastTapAt"`
}

// TapGame is the simplest complete built-in game: first player to reach the
// target tap count wins the round. It exists to exercise the full hook
// surface (scores, alive flags, GameData, game-driven round end).
type TapGame struct {
	settings TapGameSettings
}

// NewTapGame builds hooks from the opaque settings blob merged at room
// creation.
func NewTapGame(settings json.RawMessage) (room.GameHooks, error) {
	s := TapGameSettings{TargetTaps: 20}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &s); err != nil {
			return nil, fmt.Errorf("invalid tapgame settings: %w", err)
		}
	}
	if s.TargetTaps < 1 {
		return nil, fmt.Errorf("targetTaps must be positive, got %d", s.TargetTaps)
	}
	return &TapGame{settings: s}, nil
}

// OnGameStart announces the target so clients can render progress bars.
func (g *TapGame) OnGameStart(r *room.Room) {
	r.Transport.Broadcast("tap_target", map[string]interface{}{
		"targetTaps": g.settings.TargetTaps,
	})
}

// OnGameReset has nothing to do: the core already cleared scores and
// GameData.
func (g *TapGame) OnGameReset(r *room.Room) {}

// OnGameMessage handles "tap". Anything else is rejected back to the client.
func (g *TapGame) OnGameMessage(r *room.Room, p *room.Player, msgType string, payload map[string]interface{}) error {
	if msgType != "tap" {
		return fmt.Errorf("unknown message type %q", msgType)
	}
	if !p.IsAlive {
		return fmt.Errorf("you are not in the current round")
	}

	var data tapData
	if len(p.GameData) > 0 {
		_ = json.Unmarshal(p.GameData, &data)
	}
	data.Taps++
	data.LastTapAt = time.Now().UnixMilli()
	p.GameData, _ = json.Marshal(data)
	p.Score = data.Taps

	r.Transport.Broadcast("tap_progress", map[string]interface{}{
		"playerId": p.ID.String(),
		"taps":     data.Taps,
		"target":   g.settings.TargetTaps,
	})

	if data.Taps >= g.settings.TargetTaps {
		return r.EndGame(g.standings(r))
	}
	return nil
}

// OnPlayerRemoved ends the round when fewer than two live players remain;
// a tap race with one runner is no race.
func (g *TapGame) OnPlayerRemoved(r *room.Room, p *room.Player) {
	alive := 0
	for _, pl := range r.Players() {
		if pl.IsConnected && pl.IsAlive {
			alive++
		}
	}
	if alive < 2 {
		_ = r.EndGame(g.standings(r))
	}
}

// standings orders every registered player by tap count, descending.
func (g *TapGame) standings(r *room.Room) []room.Result {
	players := r.Players()
	results := make([]room.Result, 0, len(players))
	for _, p := range players {
		results = append(results, room.Result{
			PlayerID: p.ID,
			Name:     p.Name,
			Score:    p.Score,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}
