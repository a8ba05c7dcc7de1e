// internal/lobbydir/subscriber.go
package lobbydir

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Update is one decoded message from the lobby channel.
type Update struct {
	Type  string
	Entry Entry
}

// Subscriber is the consuming half of the lobby directory contract. The
// matchmaking service uses it to maintain its own last-write-wins view of
// live rooms; it is also used in tests to verify the publish side.
type Subscriber struct {
	pubsub *redis.PubSub
}

// Subscribe attaches to the shared channel. The returned Subscriber must be
// closed when done.
func Subscribe(ctx context.Context, client *redis.Client, channel string) (*Subscriber, error) {
	if channel == "" {
		channel = DefaultChannelName
	}
	pubsub := client.Subscribe(ctx, channel)
	// Wait for the subscription to be confirmed before returning, so callers
	// do not race their first publish past an unattached subscriber.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to '%s': %w", channel, err)
	}
	return &Subscriber{pubsub: pubsub}, nil
}

// Next blocks until the next update arrives or ctx is done.
func (s *Subscriber) Next(ctx context.Context) (Update, error) {
	msg, err := s.pubsub.ReceiveMessage(ctx)
	if err != nil {
		return Update{}, fmt.Errorf("failed to receive lobby update: %w", err)
	}
	var env envelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		return Update{}, fmt.Errorf("malformed lobby update: %w", err)
	}
	return Update{Type: env.Type, Entry: env.Data}, nil
}

// Close detaches from the channel.
func (s *Subscriber) Close() error {
	return s.pubsub.Close()
}
