package event

import (
	"time"

	"market_watcher/internal/domain"
)

// Type defines the type of inbound event.
type Type uint16

const (
	EvTicker Type = iota + 1
	EvSnapshot
	EvBookDelta
)

func (t Type) String() string {
	switch t {
	case EvTicker:
		return "ticker"
	case EvSnapshot:
		return "snapshot"
	case EvBookDelta:
		return "book_delta"
	default:
		return "unknown"
	}
}

// Event is the interface for all inbound market events.
// Events are already decoded; the market never sees wire payloads.
type Event interface {
	GetType() Type
}

// TickerEvent carries one price observation.
type TickerEvent struct {
	Ticker domain.Ticker `json:"ticker"`
}

func (e *TickerEvent) GetType() Type { return EvTicker }

// SnapshotEvent carries a full book snapshot, sent on (re)connect.
type SnapshotEvent struct {
	ProductID string              `json:"product_id"`
	Bids      []domain.PriceLevel `json:"bids"`
	Asks      []domain.PriceLevel `json:"asks"`
}

func (e *SnapshotEvent) GetType() Type { return EvSnapshot }

// BookDeltaEvent carries one or more incremental level changes,
// to be applied in order.
type BookDeltaEvent struct {
	ProductID string              `json:"product_id"`
	Time      time.Time           `json:"time"`
	Changes   []domain.BookChange `json:"changes"`
}

func (e *BookDeltaEvent) GetType() Type { return EvBookDelta }

// MsgKind identifies an outbound message.
type MsgKind uint8

const (
	MsgTrade MsgKind = iota + 1
	MsgStatBatch
)

func (k MsgKind) String() string {
	switch k {
	case MsgTrade:
		return "trade"
	case MsgStatBatch:
		return "stats"
	default:
		return "unknown"
	}
}

// Msg is sent from the market to the downstream consumer.
type Msg interface {
	Kind() MsgKind
}

// TradeMsg carries a matched trade.
type TradeMsg struct {
	Trade domain.Trade
}

func (m TradeMsg) Kind() MsgKind { return MsgTrade }

// StatBatchMsg carries a drained stat buffer.
type StatBatchMsg struct {
	Stats []domain.Stat
}

func (m StatBatchMsg) Kind() MsgKind { return MsgStatBatch }
