package domain

import (
	"iter"
	"slices"

	"github.com/shopspring/decimal"
)

// Side identifies a book side. Bids are "buy", asks are "sell".
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether s is a known side.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// PriceLevel is a single price+size entry in the book.
type PriceLevel struct {
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

// BookChange is an incremental level update. Size zero removes the level.
type BookChange struct {
	Side  Side            `json:"side"`
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

// BookSide holds the resting levels of one side, kept in priority order:
// highest price first for bids, lowest first for asks.
// No level with size zero is ever stored.
type BookSide struct {
	levels     []PriceLevel
	descending bool
}

// NewBidSide creates an empty bid side (highest price first).
func NewBidSide() *BookSide {
	return &BookSide{descending: true}
}

// NewAskSide creates an empty ask side (lowest price first).
func NewAskSide() *BookSide {
	return &BookSide{}
}

func (s *BookSide) search(price decimal.Decimal) (int, bool) {
	return slices.BinarySearchFunc(s.levels, price, func(l PriceLevel, p decimal.Decimal) int {
		c := l.Price.Cmp(p)
		if s.descending {
			return -c
		}
		return c
	})
}

// Set inserts or replaces the size at price. A zero size removes the level.
func (s *BookSide) Set(price, size decimal.Decimal) {
	if size.IsZero() {
		s.Remove(price)
		return
	}
	i, found := s.search(price)
	if found {
		s.levels[i].Size = size
		return
	}
	s.levels = slices.Insert(s.levels, i, PriceLevel{Price: price, Size: size})
}

// Remove deletes the level at price. It reports whether a level was removed.
func (s *BookSide) Remove(price decimal.Decimal) bool {
	i, found := s.search(price)
	if !found {
		return false
	}
	s.levels = slices.Delete(s.levels, i, i+1)
	return true
}

// Size returns the resting size at price.
func (s *BookSide) Size(price decimal.Decimal) (decimal.Decimal, bool) {
	i, found := s.search(price)
	if !found {
		return decimal.Zero, false
	}
	return s.levels[i].Size, true
}

// Best returns the top-priority level.
func (s *BookSide) Best() (PriceLevel, bool) {
	if len(s.levels) == 0 {
		return PriceLevel{}, false
	}
	return s.levels[0], true
}

// All iterates (price, size) pairs in priority order.
func (s *BookSide) All() iter.Seq2[decimal.Decimal, decimal.Decimal] {
	return func(yield func(decimal.Decimal, decimal.Decimal) bool) {
		for _, l := range s.levels {
			if !yield(l.Price, l.Size) {
				return
			}
		}
	}
}

// Levels returns a copy of the levels in priority order.
func (s *BookSide) Levels() []PriceLevel {
	return slices.Clone(s.levels)
}

// Len returns the number of price levels.
func (s *BookSide) Len() int {
	return len(s.levels)
}

// IsEmpty reports whether the side has no levels.
func (s *BookSide) IsEmpty() bool {
	return len(s.levels) == 0
}

// Reset removes all levels.
func (s *BookSide) Reset() {
	s.levels = s.levels[:0]
}

// OrderBook is the live limit-order book for a single instrument.
// It is not safe for concurrent use; the market loop owns it.
type OrderBook struct {
	Bids *BookSide
	Asks *BookSide
}

// NewOrderBook creates an empty book.
func NewOrderBook() *OrderBook {
	return &OrderBook{
		Bids: NewBidSide(),
		Asks: NewAskSide(),
	}
}

// ApplySnapshot merges every level of a snapshot into the book.
// Existing levels not present in the snapshot are kept.
func (b *OrderBook) ApplySnapshot(bids, asks []PriceLevel) {
	for _, l := range bids {
		b.Bids.Set(l.Price, l.Size)
	}
	for _, l := range asks {
		b.Asks.Set(l.Price, l.Size)
	}
}

// ApplyDelta applies a single incremental change.
func (b *OrderBook) ApplyDelta(c BookChange) error {
	side := b.Side(c.Side)
	if side == nil {
		return ErrInvalidSide
	}
	side.Set(c.Price, c.Size)
	return nil
}

// Side returns the book side for s, or nil for an unknown side.
func (b *OrderBook) Side(s Side) *BookSide {
	switch s {
	case SideBuy:
		return b.Bids
	case SideSell:
		return b.Asks
	default:
		return nil
	}
}

// BestBid returns the highest bid price.
func (b *OrderBook) BestBid() (decimal.Decimal, bool) {
	l, ok := b.Bids.Best()
	return l.Price, ok
}

// BestAsk returns the lowest ask price.
func (b *OrderBook) BestAsk() (decimal.Decimal, bool) {
	l, ok := b.Asks.Best()
	return l.Price, ok
}

// Spread returns best ask minus best bid. Only defined when both sides have levels.
func (b *OrderBook) Spread() (decimal.Decimal, bool) {
	bid, ok := b.BestBid()
	if !ok {
		return decimal.Zero, false
	}
	ask, ok := b.BestAsk()
	if !ok {
		return decimal.Zero, false
	}
	return ask.Sub(bid), true
}

// Depth returns the number of bid and ask levels.
func (b *OrderBook) Depth() (bids, asks int) {
	return b.Bids.Len(), b.Asks.Len()
}

// Reset empties both sides.
func (b *OrderBook) Reset() {
	b.Bids.Reset()
	b.Asks.Reset()
}
