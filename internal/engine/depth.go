package engine

import (
	"iter"

	"github.com/shopspring/decimal"
)

// Fill is the estimated result of walking the book for a target size.
type Fill struct {
	Cost decimal.Decimal
	Size decimal.Decimal
}

// Partial reports whether the book could not supply the whole target.
func (f Fill) Partial(target decimal.Decimal) bool {
	return f.Size.LessThan(target)
}

// AvgPrice returns Cost/Size, undefined for an empty fill.
func (f Fill) AvgPrice() (decimal.Decimal, bool) {
	if f.Size.IsZero() {
		return decimal.Zero, false
	}
	return f.Cost.Div(f.Size), true
}

// Walk greedily consumes levels in the order given (best price first) until
// target is filled or the levels run out. Size never exceeds target; thin
// books yield a partial fill without an error.
func Walk(levels iter.Seq2[decimal.Decimal, decimal.Decimal], target decimal.Decimal) Fill {
	fill := Fill{Cost: decimal.Zero, Size: decimal.Zero}
	if !target.IsPositive() {
		return fill
	}

	remaining := target
	for price, size := range levels {
		take := decimal.Min(remaining, size)
		fill.Cost = fill.Cost.Add(take.Mul(price))
		remaining = remaining.Sub(take)
		if !remaining.IsPositive() {
			break
		}
	}

	fill.Size = target.Sub(remaining)
	return fill
}
