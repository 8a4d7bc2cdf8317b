package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"market_watcher/internal/domain"
	"market_watcher/internal/strategy"
)

func writeConfig(t *testing.T, dir, policy string) string {
	t.Helper()
	body := "trading:\n  policy: " + policy + "\n" +
		"storage:\n  driver: sqlite\n  dsn: " + filepath.Join(dir, "db", "test.db") + "\n" +
		"logging:\n  dir: " + filepath.Join(dir, "logs") + "\n"
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	for _, k := range []string{"COINBASE_URL", "TRADE_SIZE_TARGET", "ALLOW_LOSING_SALE", "COIN_TRADE_LOG_DB_URL", "MARKET_REDIS_ADDR", "MARKET_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestBootstrap_Initialize(t *testing.T) {
	clearEnv(t)

	t.Run("unbound preset holds", func(t *testing.T) {
		dir := t.TempDir()
		b := NewBootstrap(writeConfig(t, dir, "no_loss"))
		if err := b.Initialize(context.Background()); err != nil {
			t.Fatal(err)
		}
		defer b.Close()

		if _, ok := b.Policy.(strategy.HoldPolicy); !ok {
			t.Errorf("Expected HoldPolicy, got %T", b.Policy)
		}
		store, bc := b.Sinks()
		if store == nil || bc != nil {
			t.Errorf("Expected store only, got %v / %v", store, bc)
		}
		if !b.MarketConfig().TargetSize.Equal(b.Config.Trading.TargetSize) {
			t.Error("Market config should carry the target size")
		}
	})

	t.Run("registered preset is used", func(t *testing.T) {
		dir := t.TempDir()
		b := NewBootstrap(writeConfig(t, dir, "loss_tolerant"))
		b.Registry.Register(strategy.KindLossTolerant, func(strategy.Params) strategy.Policy {
			return strategy.PolicyFunc(func(domain.Ticker, domain.Ticker) strategy.Recommendation {
				return strategy.Sell
			})
		})
		if err := b.Initialize(context.Background()); err != nil {
			t.Fatal(err)
		}
		defer b.Close()

		if got := b.Policy.Recommend(domain.Ticker{}, domain.Ticker{}); got != strategy.Sell {
			t.Errorf("Expected registered policy, got %s", got)
		}
	})

	t.Run("threshold cross", func(t *testing.T) {
		dir := t.TempDir()
		b := NewBootstrap(writeConfig(t, dir, "threshold_cross"))
		if err := b.Initialize(context.Background()); err != nil {
			t.Fatal(err)
		}
		defer b.Close()

		if _, ok := b.Policy.(strategy.ThresholdCross); !ok {
			t.Errorf("Expected ThresholdCross, got %T", b.Policy)
		}
		if b.FeedConfig().ProductID != "BTC-USD" {
			t.Errorf("Unexpected feed product %s", b.FeedConfig().ProductID)
		}
	})
}
