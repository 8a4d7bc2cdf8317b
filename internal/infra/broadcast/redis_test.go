package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"market_watcher/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type published struct {
	channel string
	payload []byte
}

type fakePublisher struct {
	msgs []published
	err  error
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.msgs = append(f.msgs, published{channel: channel, payload: message.([]byte)})
	cmd.SetVal(1)
	return cmd
}

func TestRedis_PublishTrade(t *testing.T) {
	fake := &fakePublisher{}
	r := &Redis{pub: fake, prefix: "mw"}

	buy := domain.Ticker{Sequence: 1, Price: decimal.RequireFromString("100")}
	tr := domain.NewTrade(time.Unix(0, 0).UTC(), buy, decimal.RequireFromString("151"), decimal.RequireFromString("1.5"))

	if err := r.PublishTrade(context.Background(), tr); err != nil {
		t.Fatal(err)
	}
	if len(fake.msgs) != 1 || fake.msgs[0].channel != "mw:trades" {
		t.Fatalf("Unexpected publishes: %+v", fake.msgs)
	}

	var got TradePayload
	if err := json.Unmarshal(fake.msgs[0].payload, &got); err != nil {
		t.Fatal(err)
	}
	if got.Type != "trade" || got.Trade.ID != tr.ID || !got.Trade.BuyCost.Equal(tr.BuyCost) {
		t.Errorf("Unexpected payload %+v", got)
	}
}

func TestRedis_PublishStats(t *testing.T) {
	fake := &fakePublisher{}
	r := &Redis{pub: fake, prefix: "mw"}

	if err := r.PublishStats(context.Background(), nil); err != nil || len(fake.msgs) != 0 {
		t.Fatalf("Empty batch should not publish (err=%v)", err)
	}

	stats := []domain.Stat{{Price: domain.Dec(decimal.RequireFromString("1"))}, {}}
	if err := r.PublishStats(context.Background(), stats); err != nil {
		t.Fatal(err)
	}

	var got StatsPayload
	if err := json.Unmarshal(fake.msgs[0].payload, &got); err != nil {
		t.Fatal(err)
	}
	if fake.msgs[0].channel != "mw:stats" || got.Count != 2 || len(got.Stats) != 2 {
		t.Errorf("Unexpected stats payload on %s: %+v", fake.msgs[0].channel, got)
	}
}

func TestRedis_PublishError(t *testing.T) {
	boom := errors.New("connection reset")
	r := &Redis{pub: &fakePublisher{err: boom}, prefix: "mw"}

	err := r.PublishTrade(context.Background(), domain.Trade{ID: "x"})
	if !errors.Is(err, boom) {
		t.Errorf("Expected wrapped error, got %v", err)
	}
}
