package strategy

import (
	"fmt"

	"market_watcher/internal/domain"
)

// Recommendation is the decision a policy makes for the latest ticker.
type Recommendation int

const (
	Hold Recommendation = iota
	Buy
	Sell
)

// String returns the string representation of Recommendation
func (r Recommendation) String() string {
	switch r {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	case Hold:
		return "HOLD"
	default:
		return "UNKNOWN"
	}
}

// Policy maps the current ticker and the previous one (highest sequence
// before the current insert) to a recommendation. Both tickers already carry
// their trend fields, which may be nil early in the stream.
// It is called synchronously by the market loop and must not block.
type Policy interface {
	Recommend(current, previous domain.Ticker) Recommendation
}

// PolicyFunc adapts a plain function to Policy.
type PolicyFunc func(current, previous domain.Ticker) Recommendation

func (f PolicyFunc) Recommend(current, previous domain.Ticker) Recommendation {
	return f(current, previous)
}

// HoldPolicy never trades.
type HoldPolicy struct{}

func (HoldPolicy) Recommend(domain.Ticker, domain.Ticker) Recommendation {
	return Hold
}

// Kind names a policy selectable from configuration.
type Kind string

const (
	// KindLossTolerant may close a position at a loss.
	KindLossTolerant Kind = "loss_tolerant"
	// KindNoLoss only closes a position without a loss.
	KindNoLoss Kind = "no_loss"
	// KindThresholdCross is the configurable DiffEMA crossing policy.
	KindThresholdCross Kind = "threshold_cross"
)

// IsPreset reports whether k is one of the two named presets whose decision
// rules are supplied from outside this package.
func (k Kind) IsPreset() bool {
	return k == KindLossTolerant || k == KindNoLoss
}

// ParseKind validates a configured policy name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindLossTolerant, KindNoLoss, KindThresholdCross:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownPolicy, s)
	}
}
