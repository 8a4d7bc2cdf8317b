package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticker represents a single price observation from the feed.
// Sequence is assigned by the feed and is the only identity/sort key;
// it may arrive out of order.
type Ticker struct {
	Sequence  uint64          `json:"sequence"`
	ProductID string          `json:"product_id"`
	Price     decimal.Decimal `json:"price"`
	Time      time.Time       `json:"time"`

	// Derived by the trend calculator before the ticker is stored.
	// nil until enough history exists.
	EMAShort          *decimal.Decimal `json:"ema_short,omitempty"`
	EMALong           *decimal.Decimal `json:"ema_long,omitempty"`
	DiffEMA           *decimal.Decimal `json:"diff_ema,omitempty"`
	DiffEMARoc        *decimal.Decimal `json:"diff_ema_roc,omitempty"`
	DiffPriceEMAShort *decimal.Decimal `json:"diff_price_ema_short,omitempty"`
	DiffPriceEMALong  *decimal.Decimal `json:"diff_price_ema_long,omitempty"`
}

// HasTrend reports whether both moving averages are available.
func (t *Ticker) HasTrend() bool {
	return t.EMAShort != nil && t.EMALong != nil
}

// ClearTrend removes all derived fields.
func (t *Ticker) ClearTrend() {
	t.EMAShort = nil
	t.EMALong = nil
	t.DiffEMA = nil
	t.DiffEMARoc = nil
	t.DiffPriceEMAShort = nil
	t.DiffPriceEMALong = nil
}

// Dec returns a pointer to a copy of d. Used for the optional derived fields.
func Dec(d decimal.Decimal) *decimal.Decimal {
	return &d
}
