package engine

import (
	"market_watcher/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	DefaultShortWindow = 5
	DefaultLongWindow  = 20
)

var (
	decOne = decimal.NewFromInt(1)
	decTwo = decimal.NewFromInt(2)
)

// RateOfChangeFunc derives DiffEMARoc from the current DiffEMA and the
// previous ticker's DiffEMA. Left nil, the field stays unset.
type RateOfChangeFunc func(current, previous decimal.Decimal) *decimal.Decimal

// TrendCalculator annotates tickers with short/long moving averages.
type TrendCalculator struct {
	ShortWindow  int
	LongWindow   int
	RateOfChange RateOfChangeFunc
}

// NewTrendCalculator creates a calculator. Non-positive windows fall back to 5 and 20.
func NewTrendCalculator(short, long int) *TrendCalculator {
	if short <= 0 {
		short = DefaultShortWindow
	}
	if long <= 0 {
		long = DefaultLongWindow
	}
	return &TrendCalculator{ShortWindow: short, LongWindow: long}
}

// MaxWindow returns how many historical prices Annotate can use.
func (c *TrendCalculator) MaxWindow() int {
	return max(c.ShortWindow, c.LongWindow)
}

// MovingAverage blends the current price with the simple mean of the k most
// recent historical prices, k = min(window, len(history)):
//
//	alpha = 2 / (1 + window)
//	ma    = price*(1-alpha) + mean(history[:k])*alpha
//
// history is newest first and excludes the current price. Returns nil when
// fewer than two historical prices are available.
func MovingAverage(window int, price decimal.Decimal, history []decimal.Decimal) *decimal.Decimal {
	k := min(window, len(history))
	if k < 2 {
		return nil
	}

	sum := decimal.Zero
	for _, p := range history[:k] {
		sum = sum.Add(p)
	}
	avg := sum.Div(decimal.NewFromInt(int64(k)))

	alpha := decTwo.Div(decimal.NewFromInt(int64(1 + window)))
	ma := price.Mul(decOne.Sub(alpha)).Add(avg.Mul(alpha))
	return &ma
}

// Annotate overwrites the derived fields of t.
// history holds historical prices newest first; previous is the ticker with
// the highest sequence before t is stored, or nil.
func (c *TrendCalculator) Annotate(t *domain.Ticker, history []decimal.Decimal, previous *domain.Ticker) {
	t.ClearTrend()
	t.EMAShort = MovingAverage(c.ShortWindow, t.Price, history)
	t.EMALong = MovingAverage(c.LongWindow, t.Price, history)
	if !t.HasTrend() {
		return
	}

	diff := t.EMAShort.Sub(*t.EMALong)
	t.DiffEMA = &diff
	t.DiffPriceEMAShort = domain.Dec(t.Price.Sub(*t.EMAShort))
	t.DiffPriceEMALong = domain.Dec(t.Price.Sub(*t.EMALong))

	if c.RateOfChange != nil && previous != nil && previous.DiffEMA != nil {
		t.DiffEMARoc = c.RateOfChange(diff, *previous.DiffEMA)
	}
}
