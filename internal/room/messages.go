// internal/room/messages.go
package room

import "github.com/google/uuid"

// Inbound message types handled by the room itself. Everything else is
// forwarded to the game hooks.
const (
	MsgReady          = "ready"
	MsgStartGame      = "start_game"
	MsgRematch        = "rematch"
	MsgChat           = "chat"
	MsgUpdateSettings = "update_settings"
	MsgKeepalive      = "keepalive"
)

// Outbound notification types.
const (
	NotifyWelcome            = "welcome"
	NotifyError              = "error"
	NotifyPlayerJoined       = "player_joined"
	NotifyPlayerLeft         = "player_left"
	NotifyPlayerDisconnected = "player_disconnected"
	NotifyPlayerReconnected  = "player_reconnected"
	NotifyNewHost            = "new_host"
	NotifyPlayerReady        = "player_ready"
	NotifyCountdownStarted   = "countdown_started"
	NotifyCountdownTick      = "countdown_tick"
	NotifyCountdownCancelled = "countdown_cancelled"
	NotifyGameStarted        = "game_started"
	NotifyGameEnded          = "game_ended"
	NotifyGameReset          = "game_reset"
	NotifyRoomState          = "room_state_updated"
	NotifyChat               = "chat"
	NotifySettingsUpdated    = "settings_updated"
)

// Machine-readable reason codes attached to error notifications.
const (
	ReasonNotHost       = "not_host"
	ReasonBadPhase      = "bad_phase"
	ReasonNotReady      = "not_ready"
	ReasonUnknownPlayer = "unknown_player"
	ReasonRoomFull      = "room_full"
	ReasonBadPayload    = "bad_payload"
	ReasonGameRejected  = "game_rejected"
)

// Transport delivers messages to connected clients. The substrate guarantees
// in-order, at-most-once delivery per connection; the room never blocks on
// delivery. The websocket handler provides the production implementation.
type Transport interface {
	Send(sessionID uuid.UUID, msgType string, data map[string]interface{})
	Broadcast(msgType string, data map[string]interface{})
	BroadcastExcept(sessionID uuid.UUID, msgType string, data map[string]interface{})
}

// NopTransport drops everything. Default until a real transport is attached.
type NopTransport struct{}

func (NopTransport) Send(uuid.UUID, string, map[string]interface{})            {}
func (NopTransport) Broadcast(string, map[string]interface{})                  {}
func (NopTransport) BroadcastExcept(uuid.UUID, string, map[string]interface{}) {}
