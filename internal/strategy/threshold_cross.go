package strategy

import (
	"market_watcher/internal/domain"

	"github.com/shopspring/decimal"
)

// ThresholdCross recommends on DiffEMA (short EMA minus long EMA) crossings:
// Buy when it rises through BuyAbove, Sell when it falls through SellBelow.
// It is stateless; the previous ticker supplies the prior DiffEMA.
type ThresholdCross struct {
	BuyAbove  decimal.Decimal
	SellBelow decimal.Decimal
}

// Recommend implements Policy.
func (p ThresholdCross) Recommend(current, previous domain.Ticker) Recommendation {
	if current.DiffEMA == nil || previous.DiffEMA == nil {
		return Hold
	}
	curr := *current.DiffEMA
	prev := *previous.DiffEMA

	// Golden cross
	if prev.LessThanOrEqual(p.BuyAbove) && curr.GreaterThan(p.BuyAbove) {
		return Buy
	}

	// Dead cross
	if prev.GreaterThanOrEqual(p.SellBelow) && curr.LessThan(p.SellBelow) {
		return Sell
	}

	return Hold
}
