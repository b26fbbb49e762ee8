package messaging

import (
	"context"
)

// Broker moves JSON messages between producers and consumers. Each message
// published on a channel is delivered to exactly one subscriber of it.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	// Subscribe delivers raw payloads until ctx is done, then closes the
	// returned channel.
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Ping(ctx context.Context) error
	Close() error
}

// Publisher publishes typed payloads on a fixed channel.
type Publisher interface {
	Publish(ctx context.Context, payload interface{}) error
}
