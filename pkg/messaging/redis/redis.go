package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/reset-mailer/pkg/circuitbreaker"
	apperrors "github.com/jwalitptl/reset-mailer/pkg/errors"
	"github.com/jwalitptl/reset-mailer/pkg/messaging"
)

// popTimeout bounds each BRPOP so a subscriber notices shutdown.
const popTimeout = time.Second

// RedisBroker keeps one Redis list per channel. Publish pushes to the head
// and subscribers pop from the tail, so every message reaches one consumer
// and survives while nobody is subscribed.
type RedisBroker struct {
	client       *redis.Client
	cb           *circuitbreaker.CircuitBreaker
	logger       *zerolog.Logger
	retryBackoff time.Duration
}

type Config struct {
	URL          string
	MaxRetries   int
	RetryBackoff time.Duration
	PoolSize     int
	MinIdleConns int
}

func NewRedisBroker(config Config, logger *zerolog.Logger) (messaging.Broker, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.MaxRetries = config.MaxRetries
	opts.MinRetryBackoff = config.RetryBackoff
	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	opts.MinIdleConns = config.MinIdleConns

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newBroker(client, config.RetryBackoff, logger), nil
}

func newBroker(client *redis.Client, retryBackoff time.Duration, logger *zerolog.Logger) *RedisBroker {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if retryBackoff <= 0 {
		retryBackoff = 100 * time.Millisecond
	}
	return &RedisBroker{
		client: client,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "redis-broker",
			MaxFailures: 5,
			Timeout:     5 * time.Second,
		}),
		logger:       logger,
		retryBackoff: retryBackoff,
	}
}

func (b *RedisBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	err = b.cb.Execute(func() error {
		return b.client.LPush(ctx, channel, payload).Err()
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpen) {
			b.logger.Warn().Str("breaker", b.cb.Name()).Str("channel", channel).Msg("Publish rejected, circuit open")
		}
		return apperrors.Unavailable("failed to publish to "+channel, err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	msgChan := make(chan []byte)

	go func() {
		defer close(msgChan)

		// Cancelling a BRPOP mid-flight can drop a value the server already
		// popped, so pops run uncancelled and popTimeout bounds shutdown.
		popCtx := context.WithoutCancel(ctx)

		for ctx.Err() == nil {
			res, err := b.client.BRPop(popCtx, popTimeout, channel).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) || ctx.Err() != nil {
					continue
				}
				b.logger.Error().Err(err).Str("channel", channel).Msg("Failed to pop message")
				select {
				case <-ctx.Done():
				case <-time.After(b.retryBackoff):
				}
				continue
			}

			// BRPOP replies with [key, value].
			if len(res) != 2 {
				continue
			}
			select {
			case msgChan <- []byte(res[1]):
			case <-ctx.Done():
				// Put it back so another subscriber can take it.
				if err := b.client.RPush(context.Background(), channel, res[1]).Err(); err != nil {
					b.logger.Error().Err(err).Str("channel", channel).Msg("Failed to requeue message")
				}
			}
		}
	}()

	return msgChan, nil
}

func (b *RedisBroker) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}
