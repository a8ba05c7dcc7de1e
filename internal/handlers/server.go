// internal/handlers/server.go
package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/quickparty/quickparty/internal/config"
	"github.com/quickparty/quickparty/internal/games"
	"github.com/quickparty/quickparty/internal/lobbydir"
	"github.com/quickparty/quickparty/internal/room"
)

// RoomServer bundles everything the HTTP and WebSocket handlers need to
// create and route into rooms.
type RoomServer struct {
	Store     *room.Store
	Games     *games.Registry
	Publisher lobbydir.Publisher
	Defaults  config.RoomConfig
	Logger    *logrus.Logger
}

// NewRoomServer wires a room server with the built-in game registry.
func NewRoomServer(defaults config.RoomConfig, publisher lobbydir.Publisher, logger *logrus.Logger) *RoomServer {
	if publisher == nil {
		publisher = lobbydir.NopPublisher{}
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &RoomServer{
		Store:     room.NewStore(),
		Games:     games.Default(),
		Publisher: publisher,
		Defaults:  defaults,
		Logger:    logger,
	}
}
