package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"market_watcher/internal/domain"
	"market_watcher/internal/event"
	"market_watcher/internal/strategy"

	"github.com/shopspring/decimal"
)

// DefaultHistoryRetention is the number of tickers kept when no retention is configured.
const DefaultHistoryRetention = 1000

// Config holds the tunables of a Market.
type Config struct {
	TargetSize       decimal.Decimal
	ShortWindow      int
	LongWindow       int
	HistoryRetention int
	StatWatermark    int
	MaxPending       int
	RateOfChange     RateOfChangeFunc
	Now              func() time.Time
}

// PositionState is the state of the single unmatched-trade slot.
type PositionState uint8

const (
	PositionEmpty PositionState = iota
	PositionAwaitingSell
)

func (p PositionState) String() string {
	switch p {
	case PositionEmpty:
		return "EMPTY"
	case PositionAwaitingSell:
		return "AWAITING_SELL"
	default:
		return "UNKNOWN"
	}
}

func (p PositionState) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// View is a read-only copy of the market state for diagnostics.
type View struct {
	Position        PositionState `json:"position"`
	OpenTrade       *domain.Trade `json:"open_trade,omitempty"`
	LastStat        *domain.Stat  `json:"last_stat,omitempty"`
	BidLevels       int           `json:"bid_levels"`
	AskLevels       int           `json:"ask_levels"`
	HistoryLen      int           `json:"history_len"`
	BufferedStats   int           `json:"buffered_stats"`
	PendingOutbound int           `json:"pending_outbound"`
}

// Market is the single-threaded core. It owns the order book, the ticker
// history, the stat buffer and the unmatched-trade slot; only the goroutine
// running Run (or calling Process) may touch them.
type Market struct {
	inbox chan event.Event

	book    *domain.OrderBook
	history *tickerHistory
	trend   *TrendCalculator
	stats   *StatAggregator
	outbox  *Outbox
	policy  strategy.Policy

	target   decimal.Decimal
	open     *domain.Trade
	lastStat *domain.Stat
	priceBuf []decimal.Decimal

	now     func() time.Time
	metrics Metrics
	logger  *slog.Logger

	mu   sync.RWMutex // Used only for external reads
	view View
}

// NewMarket creates a market that emits trades and stat batches on out.
// A nil policy holds on every ticker; nil metrics discard all counters.
func NewMarket(cfg Config, policy strategy.Policy, out chan<- event.Msg, metrics Metrics, inboxSize int) *Market {
	if policy == nil {
		policy = strategy.HoldPolicy{}
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	trend := NewTrendCalculator(cfg.ShortWindow, cfg.LongWindow)
	trend.RateOfChange = cfg.RateOfChange

	retention := cfg.HistoryRetention
	if retention <= 0 {
		retention = DefaultHistoryRetention
	}
	retention = max(retention, trend.MaxWindow()+1)

	return &Market{
		inbox:    make(chan event.Event, inboxSize),
		book:     domain.NewOrderBook(),
		history:  newTickerHistory(retention),
		trend:    trend,
		stats:    NewStatAggregator(cfg.StatWatermark),
		outbox:   NewOutbox(out, cfg.MaxPending, metrics),
		policy:   policy,
		target:   cfg.TargetSize,
		priceBuf: make([]decimal.Decimal, 0, trend.MaxWindow()),
		now:      cfg.Now,
		metrics:  metrics,
		logger:   slog.With(slog.String("component", "market")),
	}
}

// Inbox returns the event channel. External workers send events here.
func (m *Market) Inbox() chan<- event.Event {
	return m.inbox
}

// Run starts the event loop. This MUST be run in a single goroutine.
// On cancellation the partial stat buffer is flushed before returning.
func (m *Market) Run(ctx context.Context) {
	m.logger.Info("Market started")

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r))
			m.DumpState("panic_dump.json")
			panic(fmt.Sprintf("HALTED: %v", r))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Market stopping...")
			if err := m.Flush(); err != nil {
				m.logger.Warn("Undelivered messages at shutdown", slog.Any("error", err))
			}
			return
		case ev := <-m.inbox:
			m.Process(ev)
			if delta, ok := ev.(*event.BookDeltaEvent); ok {
				event.ReleaseBookDeltaEvent(delta)
			}
		}
	}
}

// Process handles one event to completion.
func (m *Market) Process(ev event.Event) {
	start := time.Now()

	switch e := ev.(type) {
	case *event.TickerEvent:
		m.OnTicker(e.Ticker)
	case *event.BookDeltaEvent:
		m.OnBookDelta(e.Changes)
	case *event.SnapshotEvent:
		m.OnSnapshot(e.Bids, e.Asks)
	default:
		m.logger.Warn("Unknown event type", slog.Any("event", ev))
		return
	}

	m.metrics.RecordEvent(time.Since(start).Nanoseconds())
	m.updateView()
}

// OnTicker annotates t with trend values, stores it and emits a Stat.
// When an earlier ticker exists the policy is consulted with it.
func (m *Market) OnTicker(t domain.Ticker) {
	m.metrics.RecordTicker()

	previous, hasPrevious := m.history.Latest()
	var prevPtr *domain.Ticker
	if hasPrevious {
		prevPtr = &previous
	}

	m.priceBuf = m.history.PricesNewestFirst(m.trend.MaxWindow(), m.priceBuf[:0])
	m.trend.Annotate(&t, m.priceBuf, prevPtr)

	if m.history.Insert(t) {
		m.logger.Debug("Ticker sequence overwritten", slog.Uint64("seq", t.Sequence))
	}
	m.emitStat()

	if !hasPrevious {
		return
	}

	switch rec := m.policy.Recommend(t, previous); rec {
	case strategy.Buy:
		m.openPosition(t)
	case strategy.Sell:
		m.closePosition(t)
	}
}

// OnBookDelta applies changes in order and emits one Stat after each.
// A change with an unknown side is skipped but still sampled.
func (m *Market) OnBookDelta(changes []domain.BookChange) {
	for _, c := range changes {
		if err := m.book.ApplyDelta(c); err != nil {
			m.logger.Warn("Book change rejected", slog.String("side", string(c.Side)), slog.Any("error", err))
		} else {
			m.metrics.RecordBookChange()
		}
		m.emitStat()
	}
}

// OnSnapshot merges a full book snapshot.
func (m *Market) OnSnapshot(bids, asks []domain.PriceLevel) {
	m.book.ApplySnapshot(bids, asks)
	m.logger.Info("Book snapshot applied", slog.Int("bids", len(bids)), slog.Int("asks", len(asks)))
}

func (m *Market) openPosition(t domain.Ticker) {
	if m.open != nil {
		return
	}

	fill := Walk(m.book.Asks.All(), m.target)
	if fill.Partial(m.target) {
		m.logger.Debug("Partial buy fill", slog.String("filled", fill.Size.String()), slog.String("target", m.target.String()))
	}

	trade := domain.NewTrade(m.now(), t, fill.Cost, fill.Size)
	m.open = &trade
	m.metrics.RecordTradeOpened()
	m.logger.Info("Position opened",
		slog.String("trade_id", trade.ID),
		slog.Uint64("seq", t.Sequence),
		slog.String("cost", fill.Cost.String()),
		slog.String("size", fill.Size.String()),
	)
}

func (m *Market) closePosition(t domain.Ticker) {
	if m.open == nil {
		return
	}

	fill := Walk(m.book.Bids.All(), m.target)
	if fill.Partial(m.target) {
		m.logger.Debug("Partial sell fill", slog.String("filled", fill.Size.String()), slog.String("target", m.target.String()))
	}

	trade := m.open.WithSell(m.now(), t, fill.Cost, fill.Size)
	m.open = nil
	m.metrics.RecordTradeMatched()

	attrs := []any{
		slog.String("trade_id", trade.ID),
		slog.Uint64("seq", t.Sequence),
		slog.String("cost", fill.Cost.String()),
	}
	if pnl, ok := trade.PnL(); ok {
		attrs = append(attrs, slog.String("pnl", pnl.String()))
	}
	m.logger.Info("Position closed", attrs...)

	m.send(event.TradeMsg{Trade: trade})
}

func (m *Market) emitStat() {
	var latest *domain.Ticker
	if t, ok := m.history.Latest(); ok {
		latest = &t
	}

	st := domain.NewStat(m.now(), m.book, latest)
	m.lastStat = &st

	if batch := m.stats.Append(st); batch != nil {
		m.metrics.RecordStatBatch(len(batch))
		m.send(event.StatBatchMsg{Stats: batch})
	}
}

func (m *Market) send(msg event.Msg) {
	if err := m.outbox.Send(msg); err != nil {
		m.logger.Warn("Outbound delivery failed",
			slog.String("kind", msg.Kind().String()),
			slog.Bool("retriable", domain.IsRetriable(err)),
			slog.Int("pending", m.outbox.Pending()),
			slog.Any("error", err),
		)
	}
}

// Flush emits the partially filled stat buffer and retries retained messages.
func (m *Market) Flush() error {
	if batch := m.stats.Drain(); batch != nil {
		m.metrics.RecordStatBatch(len(batch))
		m.send(event.StatBatchMsg{Stats: batch})
	}
	err := m.outbox.Flush()
	m.updateView()
	return err
}

func (m *Market) updateView() {
	bids, asks := m.book.Depth()
	v := View{
		Position:        PositionEmpty,
		LastStat:        m.lastStat,
		BidLevels:       bids,
		AskLevels:       asks,
		HistoryLen:      m.history.Len(),
		BufferedStats:   m.stats.Len(),
		PendingOutbound: m.outbox.Pending(),
	}
	if m.open != nil {
		open := *m.open
		v.Position = PositionAwaitingSell
		v.OpenTrade = &open
	}

	m.mu.Lock()
	m.view = v
	m.mu.Unlock()
}

// Snapshot returns the state as of the last processed event (external read).
func (m *Market) Snapshot() View {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view
}

// DumpState writes the internal state to a file (for post-mortem).
func (m *Market) DumpState(filename string) {
	m.logger.Info("Dumping internal state...", slog.String("file", filename))

	data := struct {
		View View                `json:"view"`
		Bids []domain.PriceLevel `json:"bids"`
		Asks []domain.PriceLevel `json:"asks"`
	}{
		View: m.Snapshot(),
		Bids: m.book.Bids.Levels(),
		Asks: m.book.Asks.Levels(),
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		m.logger.Error("Failed to marshal state", slog.Any("error", err))
		return
	}

	if err := os.WriteFile(filename, b, 0644); err != nil {
		m.logger.Error("Failed to write state dump", slog.Any("error", err))
	}
}
