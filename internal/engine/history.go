package engine

import (
	"cmp"
	"slices"

	"market_watcher/internal/domain"

	"github.com/shopspring/decimal"
)

// tickerHistory keeps tickers ordered by sequence number, one per sequence.
// When limit > 0 the lowest sequences are pruned beyond it.
type tickerHistory struct {
	items []domain.Ticker
	limit int
}

func newTickerHistory(limit int) *tickerHistory {
	return &tickerHistory{
		items: make([]domain.Ticker, 0, max(limit, 0)+1),
		limit: limit,
	}
}

func (h *tickerHistory) search(seq uint64) (int, bool) {
	return slices.BinarySearchFunc(h.items, seq, func(t domain.Ticker, s uint64) int {
		return cmp.Compare(t.Sequence, s)
	})
}

// Insert stores t, overwriting any ticker with the same sequence.
// It reports whether an existing entry was replaced.
func (h *tickerHistory) Insert(t domain.Ticker) bool {
	i, found := h.search(t.Sequence)
	if found {
		h.items[i] = t
		return true
	}
	h.items = slices.Insert(h.items, i, t)
	h.prune()
	return false
}

func (h *tickerHistory) prune() {
	if h.limit <= 0 || len(h.items) <= h.limit {
		return
	}
	h.items = slices.Delete(h.items, 0, len(h.items)-h.limit)
}

// Latest returns the ticker with the highest sequence.
func (h *tickerHistory) Latest() (domain.Ticker, bool) {
	if len(h.items) == 0 {
		return domain.Ticker{}, false
	}
	return h.items[len(h.items)-1], true
}

// Get returns the ticker stored under seq.
func (h *tickerHistory) Get(seq uint64) (domain.Ticker, bool) {
	i, found := h.search(seq)
	if !found {
		return domain.Ticker{}, false
	}
	return h.items[i], true
}

// PricesNewestFirst appends up to n prices, highest sequence first, to buf.
func (h *tickerHistory) PricesNewestFirst(n int, buf []decimal.Decimal) []decimal.Decimal {
	for i := len(h.items) - 1; i >= 0 && n > 0; i-- {
		buf = append(buf, h.items[i].Price)
		n--
	}
	return buf
}

func (h *tickerHistory) Len() int {
	return len(h.items)
}
