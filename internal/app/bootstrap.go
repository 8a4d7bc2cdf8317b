package app

import (
	"context"
	"errors"
	"log/slog"

	"market_watcher/internal/domain"
	"market_watcher/internal/engine"
	"market_watcher/internal/infra"
	"market_watcher/internal/infra/broadcast"
	"market_watcher/internal/infra/coinbase"
	"market_watcher/internal/infra/storage"
	"market_watcher/internal/strategy"
)

// DefaultConfigPath is where Initialize looks for the YAML config.
const DefaultConfigPath = "configs/config.yaml"

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	ConfigPath string

	Config      *infra.Config
	Metrics     *infra.Metrics
	Registry    *strategy.Registry
	Policy      strategy.Policy
	Store       *storage.Store
	Broadcaster *broadcast.Redis
}

// NewBootstrap creates a new Bootstrap instance. Policies registered on
// Registry before Initialize take part in policy resolution.
func NewBootstrap(configPath string) *Bootstrap {
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	return &Bootstrap{
		ConfigPath: configPath,
		Metrics:    infra.GlobalMetrics,
		Registry:   strategy.NewRegistry(),
	}
}

// Initialize loads config, installs the logger, opens storage and the
// optional broadcaster and resolves the trade signal policy.
func (b *Bootstrap) Initialize(ctx context.Context) error {
	slog.Info("🚀 Bootstrapping market watcher...")

	// 1. Load Config
	cfg, err := infra.LoadConfigOrDefault(b.ConfigPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	slog.SetDefault(infra.NewLogger(cfg))

	// 3. Resolve Policy
	if err := b.resolvePolicy(); err != nil {
		return err
	}

	// 4. Initialize Storage (DB)
	store, err := storage.Open(cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return err
	}
	b.Store = store
	slog.Info("✅ Database initialized", slog.String("driver", cfg.Storage.Driver))

	// 5. Broadcast is optional; run without it when Redis is unreachable.
	if cfg.Broadcast.RedisAddr != "" {
		bc, err := broadcast.New(ctx, broadcast.ClientConfig{Addr: cfg.Broadcast.RedisAddr}, cfg.Broadcast.ChannelPrefix)
		if err != nil {
			slog.Warn("Broadcast disabled", slog.String("addr", cfg.Broadcast.RedisAddr), slog.Any("error", err))
		} else {
			b.Broadcaster = bc
			slog.Info("✅ Broadcast ready", slog.String("channel", bc.TradeChannel()))
		}
	}

	return nil
}

func (b *Bootstrap) resolvePolicy() error {
	kind, err := strategy.ParseKind(b.Config.Trading.Policy)
	if err != nil {
		return err
	}

	if kind.IsPreset() && !b.Registry.Has(kind) {
		slog.Warn("No rules registered for policy preset; holding on every signal",
			slog.String("policy", string(kind)),
			slog.Any("registered", b.Registry.List()),
		)
	}

	policy, err := b.Registry.Resolve(kind, strategy.Params{
		BuyAbove:  b.Config.Trading.Threshold.BuyAbove,
		SellBelow: b.Config.Trading.Threshold.SellBelow,
	})
	if err != nil {
		return err
	}
	b.Policy = policy
	slog.Info("✅ Policy resolved", slog.String("policy", string(kind)))
	return nil
}

// MarketConfig maps the loaded config onto the market tunables.
func (b *Bootstrap) MarketConfig() engine.Config {
	cfg := b.Config
	return engine.Config{
		TargetSize:       cfg.Trading.TargetSize,
		ShortWindow:      cfg.Trading.EMAShort,
		LongWindow:       cfg.Trading.EMALong,
		HistoryRetention: cfg.Trading.HistoryRetention,
		StatWatermark:    cfg.Stats.FlushWatermark,
		MaxPending:       cfg.Outbound.MaxPending,
	}
}

// FeedConfig maps the loaded config onto the feed worker settings.
func (b *Bootstrap) FeedConfig() coinbase.Config {
	return coinbase.Config{
		URL:       b.Config.Feed.WSURL,
		ProductID: b.Config.Feed.ProductID,
		Channels:  b.Config.Feed.Channels,
	}
}

// Sinks returns the recorder destinations, leaving out those not opened.
func (b *Bootstrap) Sinks() (domain.TradeStatStore, domain.Broadcaster) {
	var store domain.TradeStatStore
	var bc domain.Broadcaster
	if b.Store != nil {
		store = b.Store
	}
	if b.Broadcaster != nil {
		bc = b.Broadcaster
	}
	return store, bc
}

// Close releases storage and broadcast connections.
func (b *Bootstrap) Close() error {
	var errs []error
	if b.Broadcaster != nil {
		errs = append(errs, b.Broadcaster.Close())
	}
	if b.Store != nil {
		errs = append(errs, b.Store.Close())
	}
	return errors.Join(errs...)
}
