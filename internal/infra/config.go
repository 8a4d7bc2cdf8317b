package infra

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"market_watcher/internal/domain"
	"market_watcher/internal/strategy"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config는 애플리케이션의 모든 설정을 담습니다.
// LoadConfig로 로드된 후에 환경 변수를 통해 민감 내용을 덮어씁니다.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Feed struct {
		WSURL     string   `yaml:"ws_url"`
		ProductID string   `yaml:"product_id"`
		Channels  []string `yaml:"channels"`
	} `yaml:"feed"`

	Trading struct {
		TargetSize       decimal.Decimal `yaml:"target_size"`
		Policy           string          `yaml:"policy"`
		EMAShort         int             `yaml:"ema_short"`
		EMALong          int             `yaml:"ema_long"`
		HistoryRetention int             `yaml:"history_retention"`
		Threshold        struct {
			BuyAbove  decimal.Decimal `yaml:"buy_above"`
			SellBelow decimal.Decimal `yaml:"sell_below"`
		} `yaml:"threshold"`
	} `yaml:"trading"`

	Stats struct {
		FlushWatermark int `yaml:"flush_watermark"`
	} `yaml:"stats"`

	Outbound struct {
		Buffer     int `yaml:"buffer"`
		MaxPending int `yaml:"max_pending"`
	} `yaml:"outbound"`

	Storage struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"storage"`

	Broadcast struct {
		RedisAddr     string `yaml:"redis_addr"`
		ChannelPrefix string `yaml:"channel_prefix"`
	} `yaml:"broadcast"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// DefaultConfig returns the settings used when no file overrides them.
func DefaultConfig() *Config {
	var cfg Config
	cfg.App.Name = "market_watcher"
	cfg.App.Version = "0.1.0"

	cfg.Feed.WSURL = "wss://ws-feed.exchange.coinbase.com"
	cfg.Feed.ProductID = "BTC-USD"
	cfg.Feed.Channels = []string{"heartbeat", "ticker", "level2_batch"}

	cfg.Trading.TargetSize = decimal.RequireFromString("0.001")
	cfg.Trading.Policy = string(strategy.KindNoLoss)
	cfg.Trading.EMAShort = 5
	cfg.Trading.EMALong = 20
	cfg.Trading.HistoryRetention = 1000

	cfg.Stats.FlushWatermark = 1000

	cfg.Outbound.Buffer = 256
	cfg.Outbound.MaxPending = 64

	cfg.Storage.Driver = DriverSQLite
	cfg.Storage.DSN = "data/market_watcher.db"

	cfg.Broadcast.ChannelPrefix = "market_watcher"

	cfg.Logging.Level = "info"
	cfg.Logging.Dir = "logs"
	return &cfg
}

// LoadConfig는 설정 파일을 읽고 파싱합니다.
// Keys missing from the file keep their DefaultConfig values.
func LoadConfig(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &domain.ConfigError{Field: "path", Err: fmt.Errorf("%s: %w", path, domain.ErrConfigNotFound)}
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return finalize(cfg)
}

// LoadConfigOrDefault behaves like LoadConfig but starts from DefaultConfig
// when the file does not exist.
func LoadConfigOrDefault(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if errors.Is(err, domain.ErrConfigNotFound) {
		return finalize(DefaultConfig())
	}
	return cfg, err
}

func finalize(cfg *Config) (*Config, error) {
	// 4원칙: 보안 우선 - 환경 변수 오버라이드 지원
	if err := overrideWithEnv(cfg); err != nil {
		return nil, err
	}

	// 5원칙: 설정 유효성 검사
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Feed.WSURL, "ws://") && !strings.HasPrefix(c.Feed.WSURL, "wss://") {
		return &domain.ConfigError{Field: "feed.ws_url", Err: fmt.Errorf("invalid websocket URL %q", c.Feed.WSURL)}
	}
	if c.Feed.ProductID == "" {
		return &domain.ConfigError{Field: "feed.product_id", Err: errors.New("product is required")}
	}

	if !c.Trading.TargetSize.IsPositive() {
		return &domain.ConfigError{Field: "trading.target_size", Err: fmt.Errorf("must be positive, got %s", c.Trading.TargetSize)}
	}
	if _, err := strategy.ParseKind(c.Trading.Policy); err != nil {
		return &domain.ConfigError{Field: "trading.policy", Err: err}
	}
	if c.Trading.EMAShort < 2 || c.Trading.EMALong < 2 {
		return &domain.ConfigError{Field: "trading.ema", Err: fmt.Errorf("windows must be at least 2, got %d/%d", c.Trading.EMAShort, c.Trading.EMALong)}
	}
	if c.Trading.HistoryRetention < 0 {
		return &domain.ConfigError{Field: "trading.history_retention", Err: errors.New("must not be negative")}
	}

	if c.Stats.FlushWatermark < 1 {
		return &domain.ConfigError{Field: "stats.flush_watermark", Err: errors.New("must be positive")}
	}
	if c.Outbound.Buffer < 0 || c.Outbound.MaxPending < 0 {
		return &domain.ConfigError{Field: "outbound", Err: errors.New("sizes must not be negative")}
	}

	switch c.Storage.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return &domain.ConfigError{Field: "storage.driver", Err: fmt.Errorf("unsupported driver %q", c.Storage.Driver)}
	}
	if c.Storage.DSN == "" {
		return &domain.ConfigError{Field: "storage.dsn", Err: errors.New("dsn is required")}
	}

	if _, ok := parseLevel(c.Logging.Level); !ok {
		return &domain.ConfigError{Field: "logging.level", Err: fmt.Errorf("unknown level %q", c.Logging.Level)}
	}

	return nil
}

// overrideWithEnv는 환경 변수가 존재할 경우 설정 값을 덮어씁니다.
func overrideWithEnv(cfg *Config) error {
	if url := os.Getenv("COINBASE_URL"); url != "" {
		cfg.Feed.WSURL = url
	}
	if size := os.Getenv("TRADE_SIZE_TARGET"); size != "" {
		d, err := decimal.NewFromString(size)
		if err != nil {
			return &domain.ConfigError{Field: "TRADE_SIZE_TARGET", Err: err}
		}
		cfg.Trading.TargetSize = d
	}
	if allow := os.Getenv("ALLOW_LOSING_SALE"); allow != "" {
		b, err := strconv.ParseBool(allow)
		if err != nil {
			return &domain.ConfigError{Field: "ALLOW_LOSING_SALE", Err: err}
		}
		if b {
			cfg.Trading.Policy = string(strategy.KindLossTolerant)
		} else {
			cfg.Trading.Policy = string(strategy.KindNoLoss)
		}
	}
	if dsn := os.Getenv("COIN_TRADE_LOG_DB_URL"); dsn != "" {
		cfg.Storage.Driver = DriverPostgres
		cfg.Storage.DSN = dsn
	}
	if addr := os.Getenv("MARKET_REDIS_ADDR"); addr != "" {
		cfg.Broadcast.RedisAddr = addr
	}
	if level := os.Getenv("MARKET_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	return nil
}
