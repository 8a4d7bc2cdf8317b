package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"market_watcher/internal/app"
	"market_watcher/internal/engine"
	"market_watcher/internal/event"
	"market_watcher/internal/infra/coinbase"
	"market_watcher/internal/service"

	"golang.org/x/sync/errgroup"

	_ "net/http/pprof" // For pprof profiling
)

const (
	inboxSize     = 1024
	metricsPeriod = 30 * time.Second
)

func main() {
	configPath := flag.String("config", app.DefaultConfigPath, "path to the YAML config")
	flag.Parse()

	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. System Bootstrapping
	bootstrap := app.NewBootstrap(*configPath)
	if err := bootstrap.Initialize(ctx); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Close()

	cfg := bootstrap.Config
	metrics := bootstrap.Metrics
	event.Warmup()

	// 4. Market (single-thread hotpath) and its outbound consumer
	out := make(chan event.Msg, cfg.Outbound.Buffer)
	market := engine.NewMarket(bootstrap.MarketConfig(), bootstrap.Policy, out, metrics, inboxSize)
	store, bc := bootstrap.Sinks()
	recorder := service.NewRecorder(store, bc, metrics)
	feed := coinbase.NewWorker(bootstrap.FeedConfig(), market.Inbox(), metrics)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// The recorder stops once the market has flushed and out is closed.
		defer close(out)
		market.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return recorder.Run(gctx, out)
	})
	g.Go(func() error {
		return feed.Run(gctx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(metricsPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				snap := metrics.Snapshot()
				view := market.Snapshot()
				slog.Info("Metrics",
					slog.Uint64("events", snap.EventsProcessed),
					slog.Int64("avg_latency_ns", snap.AvgLatencyNs),
					slog.Uint64("stats_flushed", snap.StatsFlushed),
					slog.Uint64("trades_matched", snap.TradesMatched),
					slog.Uint64("delivery_failures", snap.DeliveryFailures),
					slog.Uint64("decode_errors", snap.DecodeErrors),
					slog.String("position", view.Position.String()),
					slog.Int("pending_outbound", view.PendingOutbound),
				)
			}
		}
	})

	slog.InfoContext(ctx, "✨ Market watcher running. Press Ctrl+C to exit.",
		slog.String("product", cfg.Feed.ProductID),
		slog.String("policy", cfg.Trading.Policy),
	)

	if err := g.Wait(); err != nil {
		slog.Error("Shutdown with error", slog.Any("error", err))
	}
	slog.Info("👋 Shut down gracefully")
}
