package service

import (
	"context"
	"log/slog"
	"time"

	"market_watcher/internal/domain"
	"market_watcher/internal/event"
	"market_watcher/internal/infra"
)

const defaultWriteTimeout = 5 * time.Second

// Recorder drains the market's outbound channel into the store and the
// broadcaster. Either sink may be nil. Failures are logged and counted,
// never returned.
type Recorder struct {
	store        domain.TradeStatStore
	broadcaster  domain.Broadcaster
	metrics      *infra.Metrics
	logger       *slog.Logger
	writeTimeout time.Duration
}

// NewRecorder creates a recorder.
func NewRecorder(store domain.TradeStatStore, broadcaster domain.Broadcaster, metrics *infra.Metrics) *Recorder {
	if metrics == nil {
		metrics = &infra.Metrics{}
	}
	return &Recorder{
		store:        store,
		broadcaster:  broadcaster,
		metrics:      metrics,
		logger:       slog.With(slog.String("component", "recorder")),
		writeTimeout: defaultWriteTimeout,
	}
}

// Run consumes in until it is closed. Writes are detached from ctx
// cancellation so the final batch flushed at shutdown is still recorded.
func (r *Recorder) Run(ctx context.Context, in <-chan event.Msg) error {
	r.logger.Info("Recorder started")
	for msg := range in {
		r.Handle(ctx, msg)
	}
	r.logger.Info("Recorder stopped")
	return nil
}

// Handle records a single message.
func (r *Recorder) Handle(ctx context.Context, msg event.Msg) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.writeTimeout)
	defer cancel()

	switch m := msg.(type) {
	case event.TradeMsg:
		r.recordTrade(ctx, m.Trade)
	case event.StatBatchMsg:
		r.recordStats(ctx, m.Stats)
	default:
		r.logger.Warn("Unknown outbound message", slog.Any("msg", msg))
	}
}

func (r *Recorder) recordTrade(ctx context.Context, t domain.Trade) {
	if r.store != nil {
		if err := r.store.SaveTrade(ctx, t); err != nil {
			r.fail("save trade", err, slog.String("trade_id", t.ID))
		}
	}
	if r.broadcaster != nil {
		if err := r.broadcaster.PublishTrade(ctx, t); err != nil {
			r.fail("publish trade", err, slog.String("trade_id", t.ID))
		}
	}

	attrs := []any{slog.String("trade_id", t.ID)}
	if pnl, ok := t.PnL(); ok {
		attrs = append(attrs, slog.String("pnl", pnl.String()))
	}
	r.logger.Info("Trade recorded", attrs...)
}

func (r *Recorder) recordStats(ctx context.Context, stats []domain.Stat) {
	if r.store != nil {
		if err := r.store.SaveStats(ctx, stats); err != nil {
			r.fail("save stats", err, slog.Int("count", len(stats)))
		}
	}
	if r.broadcaster != nil {
		if err := r.broadcaster.PublishStats(ctx, stats); err != nil {
			r.fail("publish stats", err, slog.Int("count", len(stats)))
		}
	}
	r.logger.Debug("Stats recorded", slog.Int("count", len(stats)))
}

func (r *Recorder) fail(op string, err error, attrs ...any) {
	r.metrics.RecordError()
	args := append([]any{slog.String("op", op), slog.Bool("retriable", domain.IsRetriable(err)), slog.Any("error", err)}, attrs...)
	r.logger.Error("Recorder write failed", args...)
}
