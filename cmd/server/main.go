// cmd/server/main.go
package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/quickparty/quickparty/internal/auth"
	"github.com/quickparty/quickparty/internal/config"
	"github.com/quickparty/quickparty/internal/handlers"
	"github.com/quickparty/quickparty/internal/lobbydir"
	"github.com/quickparty/quickparty/internal/middleware"
)

func main() {
	auth.Init()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// The lobby directory is best-effort: without Redis the portal still
	// hosts rooms, they just stay invisible to cross-process matchmaking.
	var publisher lobbydir.Publisher = lobbydir.NopPublisher{}
	if client, err := lobbydir.Connect(cfg.RedisAddr, cfg.RedisDB); err != nil {
		logger.Warnf("lobby directory unavailable, running single-process: %v", err)
	} else {
		publisher = lobbydir.LoggingPublisher{
			Next:   lobbydir.NewRedisPublisher(client, cfg.LobbyChannel),
			Logger: logger,
		}
	}

	srv := handlers.NewRoomServer(cfg.Rooms, publisher, logger)

	r := mux.NewRouter()
	r.Use(middleware.LogMiddleware(logger))
	r.HandleFunc("/rooms", handlers.CreateRoomHandler(srv)).Methods(http.MethodPost)
	r.HandleFunc("/rooms", handlers.ListRoomsHandler(srv)).Methods(http.MethodGet)
	r.HandleFunc("/games", handlers.ListGameTypesHandler(srv)).Methods(http.MethodGet)
	r.HandleFunc("/rooms/ws/{code}", handlers.RoomWSHandler(logger, srv))

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
