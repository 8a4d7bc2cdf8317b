package domain

import (
	"context"
	"time"
)

// ExchangeWorker defines the interface for exchange WebSocket connectors
type ExchangeWorker interface {
	Connect(ctx context.Context) error
	Disconnect()
	IsConnected() bool
}

// TradeStatStore persists the records emitted by the market.
type TradeStatStore interface {
	SaveTrade(ctx context.Context, trade Trade) error
	SaveStats(ctx context.Context, stats []Stat) error
	ListTrades(ctx context.Context, limit int) ([]Trade, error)
	StatsSince(ctx context.Context, since time.Time, limit int) ([]Stat, error)
}

// Broadcaster pushes records to live subscribers.
type Broadcaster interface {
	PublishTrade(ctx context.Context, trade Trade) error
	PublishStats(ctx context.Context, stats []Stat) error
}
