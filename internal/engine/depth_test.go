package engine

import (
	"testing"

	"market_watcher/internal/domain"
)

func askBook() *domain.OrderBook {
	book := domain.NewOrderBook()
	book.ApplySnapshot(nil, []domain.PriceLevel{
		{Price: dec("101.0"), Size: dec("2.0")},
		{Price: dec("100.5"), Size: dec("1.0")},
	})
	return book
}

func TestWalk_AskScenario(t *testing.T) {
	fill := Walk(askBook().Asks.All(), dec("1.5"))

	if !fill.Cost.Equal(dec("151.0")) {
		t.Errorf("Expected cost 151.0, got %s", fill.Cost)
	}
	if !fill.Size.Equal(dec("1.5")) {
		t.Errorf("Expected size 1.5, got %s", fill.Size)
	}
	if fill.Partial(dec("1.5")) {
		t.Error("Fill should be complete")
	}
	avg, ok := fill.AvgPrice()
	// 151 / 1.5 does not terminate; compare at a fixed scale.
	if !ok || !avg.Round(8).Equal(dec("100.66666667")) {
		t.Errorf("Unexpected average price %s", avg)
	}
}

func TestWalk_BidsDescending(t *testing.T) {
	book := domain.NewOrderBook()
	book.ApplySnapshot([]domain.PriceLevel{
		{Price: dec("99"), Size: dec("2")},
		{Price: dec("100"), Size: dec("1")},
	}, nil)

	fill := Walk(book.Bids.All(), dec("1.5"))
	if !fill.Cost.Equal(dec("149.5")) {
		t.Errorf("Expected cost 149.5, got %s", fill.Cost)
	}
}

func TestWalk_PartialFill(t *testing.T) {
	target := dec("10")
	fill := Walk(askBook().Asks.All(), target)

	if !fill.Size.Equal(dec("3")) {
		t.Errorf("Expected size 3, got %s", fill.Size)
	}
	if !fill.Cost.Equal(dec("302.5")) {
		t.Errorf("Expected cost 302.5, got %s", fill.Cost)
	}
	if !fill.Partial(target) {
		t.Error("Fill should be partial")
	}
}

func TestWalk_EmptyOrZeroTarget(t *testing.T) {
	t.Run("empty side", func(t *testing.T) {
		fill := Walk(domain.NewAskSide().All(), dec("1"))
		if !fill.Size.IsZero() || !fill.Cost.IsZero() {
			t.Errorf("Expected empty fill, got %+v", fill)
		}
		if _, ok := fill.AvgPrice(); ok {
			t.Error("Empty fill has no average price")
		}
	})

	t.Run("zero target", func(t *testing.T) {
		fill := Walk(askBook().Asks.All(), dec("0"))
		if !fill.Size.IsZero() || !fill.Cost.IsZero() {
			t.Errorf("Expected empty fill, got %+v", fill)
		}
	})
}

func TestWalk_Monotonic(t *testing.T) {
	book := askBook()
	targets := decs("0.1", "0.5", "1.0", "1.2", "1.5", "2.9", "3.0", "3.5", "100")

	prev := Fill{Cost: dec("0"), Size: dec("0")}
	for _, target := range targets {
		fill := Walk(book.Asks.All(), target)
		if fill.Size.GreaterThan(target) {
			t.Fatalf("Size %s exceeds target %s", fill.Size, target)
		}
		if fill.Size.LessThan(prev.Size) || fill.Cost.LessThan(prev.Cost) {
			t.Fatalf("Fill decreased at target %s: %+v after %+v", target, fill, prev)
		}
		prev = fill
	}
}
