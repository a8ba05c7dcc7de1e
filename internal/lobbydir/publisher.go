// internal/lobbydir/publisher.go
package lobbydir

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultChannelName is the Redis pub/sub channel the lobby directory listens on.
var DefaultChannelName = "quickparty_lobby"

// Event types published on the lobby channel.
const (
	EventRoomStateChanged = "room_state_changed"
	EventRoomDisposed     = "room_disposed"
)

// Entry is the denormalized room snapshot consumed by the external lobby
// directory. Consumers must treat entries as last-write-wins snapshots keyed
// by RoomID, never as an ordered event log.
type Entry struct {
	RoomID      string    `json:"roomId"`
	RoomCode    string    `json:"roomCode"`
	GameType    string    `json:"gameType"`
	Phase       string    `json:"phase"`
	PlayerCount int       `json:"playerCount"`
	MaxPlayers  int       `json:"maxPlayers"`
	Private     bool      `json:"private"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// envelope is the wire shape: {"type": ..., "data": ...}.
type envelope struct {
	Type string `json:"type"`
	Data Entry  `json:"data"`
}

// Publisher pushes room status snapshots toward the lobby directory.
// Implementations are best-effort: a failed publish is logged by the caller
// and never propagated, so a room keeps operating single-process-visible.
type Publisher interface {
	Publish(ctx context.Context, eventType string, entry Entry) error
}

// RedisPublisher publishes entries on a shared Redis pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher wires a publisher onto an existing client. An empty
// channel name falls back to DefaultChannelName.
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannelName
	}
	return &RedisPublisher{client: client, channel: channel}
}

// Connect dials Redis and verifies the connection with a short ping.
func Connect(addr string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return client, nil
}

// Publish serializes {type, data} and PUBLISHes it on the shared channel.
func (p *RedisPublisher) Publish(ctx context.Context, eventType string, entry Entry) error {
	data, err := json.Marshal(envelope{Type: eventType, Data: entry})
	if err != nil {
		return fmt.Errorf("failed to marshal lobby entry: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish on channel '%s': %w", p.channel, err)
	}
	return nil
}

// NopPublisher discards every publish. Injected for single-process
// deployments so the room core never branches on directory availability.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, Entry) error { return nil }

// LoggingPublisher wraps another publisher and logs failures at Warn level
// instead of returning them, so publish errors degrade to log lines.
type LoggingPublisher struct {
	Next   Publisher
	Logger *logrus.Logger
}

func (p LoggingPublisher) Publish(ctx context.Context, eventType string, entry Entry) error {
	if err := p.Next.Publish(ctx, eventType, entry); err != nil && p.Logger != nil {
		p.Logger.WithFields(logrus.Fields{
			"room":  entry.RoomID,
			"event": eventType,
			"error": err,
		}).Warn("lobby publish failed")
	}
	return nil
}
