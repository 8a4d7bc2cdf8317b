package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewStat(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()

	t.Run("empty book and no ticker", func(t *testing.T) {
		st := NewStat(now, NewOrderBook(), nil)
		if st.Spread != nil || st.BestBid != nil || st.BestAsk != nil {
			t.Error("Book fields must be nil on an empty book")
		}
		if st.Price != nil || st.Sequence != nil {
			t.Error("Ticker fields must be nil without a ticker")
		}
		if !st.CreatedAt.Equal(now) {
			t.Errorf("Expected CreatedAt %v, got %v", now, st.CreatedAt)
		}
	})

	t.Run("one-sided book", func(t *testing.T) {
		book := NewOrderBook()
		book.ApplyDelta(BookChange{Side: SideBuy, Price: d("99"), Size: d("1")})
		st := NewStat(now, book, nil)
		if st.BestBid != nil || st.Spread != nil {
			t.Error("Book fields are only set when both sides have levels")
		}
	})

	t.Run("full book and ticker", func(t *testing.T) {
		book := NewOrderBook()
		book.ApplyDelta(BookChange{Side: SideBuy, Price: d("99"), Size: d("1")})
		book.ApplyDelta(BookChange{Side: SideSell, Price: d("100.5"), Size: d("1")})
		tk := &Ticker{
			Sequence: 7,
			Price:    decimal.NewFromInt(100),
			Time:     now,
			EMAShort: Dec(d("100.2")),
		}

		st := NewStat(now, book, tk)
		if st.Spread == nil || !st.Spread.Equal(d("1.5")) {
			t.Errorf("Expected spread 1.5, got %v", st.Spread)
		}
		if st.Sequence == nil || *st.Sequence != 7 {
			t.Errorf("Expected sequence 7, got %v", st.Sequence)
		}
		if st.Price == nil || !st.Price.Equal(d("100")) {
			t.Errorf("Expected price 100, got %v", st.Price)
		}
		if st.EMAShort == nil || st.EMALong != nil {
			t.Errorf("Expected only short EMA, got %v/%v", st.EMAShort, st.EMALong)
		}
	})
}
