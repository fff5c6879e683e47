package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"logiledger/internal/config"
	"logiledger/internal/events"
)

// Publisher sends lifecycle events as JSON on a single Pub/Sub channel.
type Publisher struct {
	rdb     *redis.Client
	channel string
}

func NewPublisher(ctx context.Context, cfg config.RedisConfig) (*Publisher, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return &Publisher{rdb: rdb, channel: cfg.Channel}, nil
}

func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	message, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event %s: %w", event.Type, err)
	}

	if err := p.rdb.Publish(ctx, p.channel, message).Err(); err != nil {
		return fmt.Errorf("publishing event %s: %w", event.Type, err)
	}
	return nil
}

// Subscribe returns a subscription on the event channel. The caller closes it.
func (p *Publisher) Subscribe(ctx context.Context) *redis.PubSub {
	return p.rdb.Subscribe(ctx, p.channel)
}

func (p *Publisher) Close() error {
	return p.rdb.Close()
}
