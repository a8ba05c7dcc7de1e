// internal/handlers/rooms.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/quickparty/quickparty/internal/lobbydir"
	"github.com/quickparty/quickparty/internal/room"
)

// createRoomRequest is the POST /rooms body. Settings is the per-room
// override document merged over the configured defaults; its gameSettings
// field is passed through to the game hooks untouched.
type createRoomRequest struct {
	GameType string          `json:"gameType"`
	Settings json.RawMessage `json:"settings,omitempty"`
}

type createRoomResponse struct {
	RoomID   string `json:"roomId"`
	RoomCode string `json:"roomCode"`
	GameType string `json:"gameType"`
}

// CreateRoomHandler instantiates a room with its game hooks and transport
// and starts its lifecycle.
func CreateRoomHandler(srv *RoomServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req createRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.GameType == "" {
			req.GameType = "freeplay"
		}

		cfg, err := srv.Defaults.Merge(req.Settings)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		hooks, err := srv.Games.New(req.GameType, cfg.GameSettings)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		rm := room.New(req.GameType, cfg)
		rm.Transport = NewWSTransport()
		rm.Hooks = hooks
		rm.Publisher = srv.Publisher
		rm.Logger = srv.Logger
		rm.OnDisposed = func(id uuid.UUID) { srv.Store.Delete(id) }
		srv.Store.Add(rm)
		rm.Start()

		srv.Logger.Infof("created room %s (%s)", rm.Code, req.GameType)
		writeJSON(w, http.StatusCreated, createRoomResponse{
			RoomID:   rm.ID.String(),
			RoomCode: rm.Code,
			GameType: rm.GameType,
		})
	}
}

// ListRoomsHandler returns snapshots of every public room on this process.
// The cross-process listing lives in the lobby directory; this endpoint
// exists for debugging and single-process deployments.
func ListRoomsHandler(srv *RoomServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms := srv.Store.List()
		entries := make([]lobbydir.Entry, 0, len(rooms))
		for _, rm := range rooms {
			entry := rm.Snapshot()
			if !entry.Private {
				entries = append(entries, entry)
			}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"rooms": entries})
	}
}

// ListGameTypesHandler returns the catalog of registered game types.
func ListGameTypesHandler(srv *RoomServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"gameTypes": srv.Games.Types()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
