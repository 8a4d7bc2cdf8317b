// Package broadcast publishes trades and stat batches over Redis Pub/Sub.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"market_watcher/internal/domain"

	"github.com/redis/go-redis/v9"
)

// ClientConfig holds connection parameters for the Redis client.
type ClientConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Redis implements domain.Broadcaster.
type Redis struct {
	pub    publisher
	closer func() error
	prefix string
}

var _ domain.Broadcaster = (*Redis)(nil)

// New connects, pings the server and returns the broadcaster.
func New(ctx context.Context, cfg ClientConfig, prefix string) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, domain.NewNetworkError("redis ping", err)
	}

	return &Redis{pub: rdb, closer: rdb.Close, prefix: prefix}, nil
}

// TradeChannel returns the channel matched trades are published on.
func (r *Redis) TradeChannel() string { return r.prefix + ":trades" }

// StatChannel returns the channel stat batches are published on.
func (r *Redis) StatChannel() string { return r.prefix + ":stats" }

// TradePayload is the message body published for a trade.
type TradePayload struct {
	Type  string       `json:"type"`
	Trade domain.Trade `json:"trade"`
}

// StatsPayload is the message body published for a stat batch.
type StatsPayload struct {
	Type  string        `json:"type"`
	Count int           `json:"count"`
	Stats []domain.Stat `json:"stats"`
}

func (r *Redis) publish(ctx context.Context, channel string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("redis: encode %s: %w", channel, err)
	}
	if err := r.pub.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", channel, err)
	}
	return nil
}

// PublishTrade sends one matched trade.
func (r *Redis) PublishTrade(ctx context.Context, t domain.Trade) error {
	return r.publish(ctx, r.TradeChannel(), TradePayload{Type: "trade", Trade: t})
}

// PublishStats sends a whole stat batch as one message.
func (r *Redis) PublishStats(ctx context.Context, stats []domain.Stat) error {
	if len(stats) == 0 {
		return nil
	}
	return r.publish(ctx, r.StatChannel(), StatsPayload{Type: "stats", Count: len(stats), Stats: stats})
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}
