// internal/middleware/logging.go

package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// LogMiddleware is an HTTP middleware that logs incoming requests using
// Logrus: method, path, duration and remote address.
func LogMiddleware(logger *logrus.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			path := r.URL.Path
			method := r.Method

			next.ServeHTTP(w, r)

			duration := time.Since(start)
			logger.WithFields(logrus.Fields{
				"method":   method,
				"path":     path,
				"duration": duration,
				"remote":   r.RemoteAddr,
			}).Info("HTTP Request")
		})
	}
}

// LogWebSocketConnect logs a message when a WebSocket client connects to a
// room. Called once the upgrade and join are accepted.
func LogWebSocketConnect(logger *logrus.Logger, remoteAddr, roomCode, sessionID string) {
	logger.WithFields(logrus.Fields{
		"remote":  remoteAddr,
		"room":    roomCode,
		"session": sessionID,
	}).Info("WebSocket connected")
}

// LogWebSocketDisconnect logs a message when a WebSocket client disconnects
// from a room.
func LogWebSocketDisconnect(logger *logrus.Logger, roomCode, sessionID string, consented bool) {
	logger.WithFields(logrus.Fields{
		"room":      roomCode,
		"session":   sessionID,
		"consented": consented,
	}).Info("WebSocket disconnected")
}
