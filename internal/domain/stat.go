package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stat is a point-in-time snapshot of the book top and the latest ticker.
// Book fields are set only when both sides have levels. Ticker fields come
// from the ticker with the highest sequence number.
type Stat struct {
	CreatedAt time.Time `json:"created_at"`

	Spread  *decimal.Decimal `json:"spread,omitempty"`
	BestBid *decimal.Decimal `json:"best_bid,omitempty"`
	BestAsk *decimal.Decimal `json:"best_ask,omitempty"`

	Sequence   *uint64          `json:"sequence,omitempty"`
	TickerTime *time.Time       `json:"ticker_time,omitempty"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	EMAShort   *decimal.Decimal `json:"ema_short,omitempty"`
	EMALong    *decimal.Decimal `json:"ema_long,omitempty"`
	DiffEMA    *decimal.Decimal `json:"diff_ema,omitempty"`
	DiffEMARoc *decimal.Decimal `json:"diff_ema_roc,omitempty"`
}

// NewStat builds a Stat from the current book and latest ticker (may be nil).
func NewStat(now time.Time, book *OrderBook, latest *Ticker) Stat {
	st := Stat{CreatedAt: now}

	if spread, ok := book.Spread(); ok {
		bid, _ := book.BestBid()
		ask, _ := book.BestAsk()
		st.Spread = Dec(spread)
		st.BestBid = Dec(bid)
		st.BestAsk = Dec(ask)
	}

	if latest != nil {
		seq := latest.Sequence
		ts := latest.Time
		st.Sequence = &seq
		st.TickerTime = &ts
		st.Price = Dec(latest.Price)
		st.EMAShort = latest.EMAShort
		st.EMALong = latest.EMALong
		st.DiffEMA = latest.DiffEMA
		st.DiffEMARoc = latest.DiffEMARoc
	}

	return st
}
