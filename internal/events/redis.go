package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

const DefaultChannel = "hireveno:events"

// RedisBus carries events over Redis pub/sub so every server instance sees them.
type RedisBus struct {
	client  *redis.Client
	channel string
	buffer  int
	logger  zerolog.Logger
}

func NewRedisBus(redisURL string, channel string, logger zerolog.Logger) (*RedisBus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBus{
		client:  redis.NewClient(opts),
		channel: channel,
		buffer:  defaultBuffer,
		logger:  logger,
	}, nil
}

func (b *RedisBus) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBus) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context) (<-chan Event, func(), error) {
	pubsub := b.client.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", b.channel, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	out := make(chan Event, b.buffer)

	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.logger.Warn().Err(err).Msg("dropping malformed event")
					continue
				}
				select {
				case out <- event:
				default:
				}
			}
		}
	}()

	return out, cancel, nil
}

func (b *RedisBus) Close() error {
	return b.client.Close()
}
