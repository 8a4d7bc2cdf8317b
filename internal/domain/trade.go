package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Trade is one round-trip position. It is created unmatched, holding only
// the buy leg, and becomes matched once a sell leg is attached.
// A matched Trade is never modified again.
type Trade struct {
	ID       string    `json:"id"`
	OpenedAt time.Time `json:"opened_at"`

	BuyTicker Ticker          `json:"buy_ticker"`
	BuyCost   decimal.Decimal `json:"buy_cost"`
	BuySize   decimal.Decimal `json:"buy_size"`

	SellTicker *Ticker          `json:"sell_ticker,omitempty"`
	SellCost   *decimal.Decimal `json:"sell_cost,omitempty"`
	SellSize   *decimal.Decimal `json:"sell_size,omitempty"`
	MatchedAt  *time.Time       `json:"matched_at,omitempty"`
}

// NewTrade opens an unmatched trade from the buy side estimate.
func NewTrade(now time.Time, buy Ticker, cost, size decimal.Decimal) Trade {
	return Trade{
		ID:        uuid.NewString(),
		OpenedAt:  now,
		BuyTicker: buy,
		BuyCost:   cost,
		BuySize:   size,
	}
}

// WithSell returns the matched trade. The receiver is left untouched.
func (t Trade) WithSell(now time.Time, sell Ticker, cost, size decimal.Decimal) Trade {
	t.SellTicker = &sell
	t.SellCost = &cost
	t.SellSize = &size
	t.MatchedAt = &now
	return t
}

// IsMatched reports whether the sell leg is attached.
func (t Trade) IsMatched() bool {
	return t.SellTicker != nil
}

// PnL returns sell cost minus buy cost for a matched trade.
func (t Trade) PnL() (decimal.Decimal, bool) {
	if !t.IsMatched() || t.SellCost == nil {
		return decimal.Zero, false
	}
	return t.SellCost.Sub(t.BuyCost), true
}
