// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/quickparty/quickparty/internal/auth"
	"github.com/quickparty/quickparty/internal/middleware"
	"github.com/quickparty/quickparty/internal/room"
)

// outMessage is one wire frame: {"type": ..., "data": {...}}.
type outMessage struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data,omitempty"`
}

// clientConn is one session's live connection inside a room's transport.
type clientConn struct {
	sessionID uuid.UUID
	out       chan outMessage
	cancel    context.CancelFunc

	closeOnce sync.Once
}

func (c *clientConn) close() {
	c.closeOnce.Do(func() {
		close(c.out)
		if c.cancel != nil {
			c.cancel()
		}
	})
}

// write pushes a message onto the connection's out channel non-blockingly.
// A full or closed channel drops the message; the read side will notice the
// dead connection soon enough.
func (c *clientConn) write(msg outMessage) {
	defer func() {
		_ = recover() // send on closed channel during teardown
	}()
	select {
	case c.out <- msg:
	default:
	}
}

// WSTransport implements room.Transport over per-connection out channels,
// one instance per room. The room calls it with its own lock held, so every
// delivery path must be non-blocking.
type WSTransport struct {
	mu    sync.Mutex
	conns map[uuid.UUID]*clientConn
}

// NewWSTransport returns an empty transport.
func NewWSTransport() *WSTransport {
	return &WSTransport{conns: make(map[uuid.UUID]*clientConn)}
}

// register adds a connection, replacing (and closing) any previous
// connection for the same session.
func (t *WSTransport) register(c *clientConn) {
	t.mu.Lock()
	prev := t.conns[c.sessionID]
	t.conns[c.sessionID] = c
	t.mu.Unlock()
	if prev != nil && prev != c {
		prev.close()
	}
}

// unregister removes the connection if it is still the current one for its
// session; a reconnect may already have replaced it.
func (t *WSTransport) unregister(c *clientConn) {
	t.mu.Lock()
	if t.conns[c.sessionID] == c {
		delete(t.conns, c.sessionID)
	}
	t.mu.Unlock()
	c.close()
}

func (t *WSTransport) Send(sessionID uuid.UUID, msgType string, data map[string]interface{}) {
	t.mu.Lock()
	c, ok := t.conns[sessionID]
	t.mu.Unlock()
	if ok {
		c.write(outMessage{Type: msgType, Data: data})
	}
}

func (t *WSTransport) Broadcast(msgType string, data map[string]interface{}) {
	t.BroadcastExcept(uuid.Nil, msgType, data)
}

func (t *WSTransport) BroadcastExcept(sessionID uuid.UUID, msgType string, data map[string]interface{}) {
	t.mu.Lock()
	conns := make([]*clientConn, 0, len(t.conns))
	for id, c := range t.conns {
		if id != sessionID {
			conns = append(conns, c)
		}
	}
	t.mu.Unlock()
	for _, c := range conns {
		c.write(outMessage{Type: msgType, Data: data})
	}
}

// EnsureSession reads the session cookie and returns the session id it
// carries, minting a fresh token (and cookie) when absent or invalid. Must
// run before the WebSocket upgrade so the Set-Cookie header can still go out.
func EnsureSession(w http.ResponseWriter, r *http.Request) (uuid.UUID, error) {
	if cookie, err := r.Cookie("session_token"); err == nil {
		if sessionID, err := auth.VerifySessionToken(cookie.Value); err == nil {
			return sessionID, nil
		}
	}
	sessionID, token, err := auth.NewSessionToken()
	if err != nil {
		return uuid.Nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "session_token",
		Value:    token,
		HttpOnly: true,
		Path:     "/",
	})
	return sessionID, nil
}

// RoomWSHandler upgrades the connection, resolves the target room by join
// code, and runs the read/write pumps until the client goes away.
func RoomWSHandler(logger *logrus.Logger, srv *RoomServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := mux.Vars(r)["code"]
		displayName := r.URL.Query().Get("name")
		if displayName == "" {
			displayName = "Guest"
		}

		sessionID, err := EnsureSession(w, r)
		if err != nil {
			logger.Warnf("session setup failed: %v", err)
			http.Error(w, "session setup failed", http.StatusInternalServerError)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"quickparty"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "quickparty" {
			c.Close(BadSubprotocolError, "client must speak the quickparty subprotocol")
			return
		}

		rm, ok := srv.Store.GetByCode(code)
		if !ok {
			c.Close(InvalidRoomError, "room does not exist")
			return
		}
		transport, ok := rm.Transport.(*WSTransport)
		if !ok {
			logger.Errorf("room %s has no websocket transport attached", code)
			c.Close(websocket.StatusInternalError, "room misconfigured")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		conn := &clientConn{
			sessionID: sessionID,
			out:       make(chan outMessage, 32),
			cancel:    cancel,
		}
		transport.register(conn)

		if _, err := rm.HandleJoin(sessionID, displayName); err != nil {
			transport.unregister(conn)
			c.Close(RoomJoinRejected, err.Error())
			return
		}
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, code, sessionID.String())

		go writePump(ctx, c, conn, logger)
		consented := readPump(ctx, c, rm, conn, logger)

		transport.unregister(conn)
		// A consented leave was already applied inside the read pump; an
		// abrupt close starts the reconnect grace period instead.
		if !consented {
			rm.HandleLeave(sessionID, false)
		}
		middleware.LogWebSocketDisconnect(logger, code, sessionID.String(), consented)
	}
}

// readPump consumes frames until the connection dies. Returns true if the
// client left on purpose.
func readPump(ctx context.Context, c *websocket.Conn, rm *room.Room, conn *clientConn, logger *logrus.Logger) bool {
	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				logger.Infof("session %s: websocket closed normally", conn.sessionID)
			} else if !strings.Contains(err.Error(), "context canceled") {
				logger.Warnf("session %s: read error: %v", conn.sessionID, err)
			}
			return false
		}
		if typ != websocket.MessageText {
			logger.Warnf("session %s: ignoring non-text message", conn.sessionID)
			continue
		}

		var frame struct {
			Type string                 `json:"type"`
			Data map[string]interface{} `json:"data"`
		}
		if err := json.Unmarshal(msg, &frame); err != nil {
			conn.write(outMessage{Type: room.NotifyError, Data: map[string]interface{}{
				"code":    room.ReasonBadPayload,
				"message": "invalid JSON frame",
			}})
			continue
		}

		if frame.Type == "leave" {
			consented := true
			if v, ok := frame.Data["consented"].(bool); ok {
				consented = v
			}
			rm.HandleLeave(conn.sessionID, consented)
			return consented
		}
		rm.HandleMessage(conn.sessionID, frame.Type, frame.Data)
	}
}

// writePump drains the out channel onto the wire until it closes.
func writePump(ctx context.Context, c *websocket.Conn, conn *clientConn, logger *logrus.Logger) {
	for msg := range conn.out {
		data, err := json.Marshal(msg)
		if err != nil {
			logger.Errorf("session %s: marshal error: %v", conn.sessionID, err)
			continue
		}
		if err := c.Write(ctx, websocket.MessageText, data); err != nil {
			return
		}
	}
	c.Close(websocket.StatusNormalClosure, "connection replaced or room closed")
}
