// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the room handlers. These give clients
// more specific reasons for closure than the standard codes.
const (
	BadSubprotocolError = 3000 // Client connected with an unsupported subprotocol.
	InvalidSessionError = 3001 // Session token was invalid and could not be replaced.
	InvalidRoomError    = 3002 // Room code in the WS URL does not exist.
	RoomJoinRejected    = 3003 // Room refused the join (full, wrong phase, disposed).
)
