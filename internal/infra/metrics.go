package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	eventsProcessed  atomic.Uint64
	tickersProcessed atomic.Uint64
	bookChanges      atomic.Uint64
	statBatches      atomic.Uint64
	statsFlushed     atomic.Uint64
	tradesOpened     atomic.Uint64
	tradesMatched    atomic.Uint64
	deliveryFailures atomic.Uint64
	messagesDropped  atomic.Uint64
	decodeErrors     atomic.Uint64
	errorsTotal      atomic.Uint64

	// Latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	activeConnections atomic.Int32
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordEvent records an event processing with latency.
func (m *Metrics) RecordEvent(latencyNs int64) {
	m.eventsProcessed.Add(1)
	m.latencySumNs.Add(latencyNs)
	m.latencyCount.Add(1)
}

// RecordTicker records a processed ticker.
func (m *Metrics) RecordTicker() {
	m.tickersProcessed.Add(1)
}

// RecordBookChange records one applied book level change.
func (m *Metrics) RecordBookChange() {
	m.bookChanges.Add(1)
}

// RecordStatBatch records a flushed stat batch of n stats.
func (m *Metrics) RecordStatBatch(n int) {
	m.statBatches.Add(1)
	m.statsFlushed.Add(uint64(n))
}

// RecordTradeOpened records a new unmatched position.
func (m *Metrics) RecordTradeOpened() {
	m.tradesOpened.Add(1)
}

// RecordTradeMatched records a closed round trip.
func (m *Metrics) RecordTradeMatched() {
	m.tradesMatched.Add(1)
}

// RecordDeliveryFailure records an outbound send the consumer could not take.
func (m *Metrics) RecordDeliveryFailure() {
	m.deliveryFailures.Add(1)
}

// RecordDropped records an outbound message lost for good.
func (m *Metrics) RecordDropped() {
	m.messagesDropped.Add(1)
}

// RecordDecodeError records a feed payload that could not be decoded.
func (m *Metrics) RecordDecodeError() {
	m.decodeErrors.Add(1)
}

// RecordError records an error occurrence.
func (m *Metrics) RecordError() {
	m.errorsTotal.Add(1)
}

// IncrementConnections increments active connections by 1.
func (m *Metrics) IncrementConnections() {
	m.activeConnections.Add(1)
}

// DecrementConnections decrements active connections by 1.
func (m *Metrics) DecrementConnections() {
	m.activeConnections.Add(-1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	EventsProcessed   uint64
	TickersProcessed  uint64
	BookChanges       uint64
	StatBatches       uint64
	StatsFlushed      uint64
	TradesOpened      uint64
	TradesMatched     uint64
	DeliveryFailures  uint64
	MessagesDropped   uint64
	DecodeErrors      uint64
	ErrorsTotal       uint64
	AvgLatencyNs      int64
	ActiveConnections int32
	Timestamp         time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		EventsProcessed:   m.eventsProcessed.Load(),
		TickersProcessed:  m.tickersProcessed.Load(),
		BookChanges:       m.bookChanges.Load(),
		StatBatches:       m.statBatches.Load(),
		StatsFlushed:      m.statsFlushed.Load(),
		TradesOpened:      m.tradesOpened.Load(),
		TradesMatched:     m.tradesMatched.Load(),
		DeliveryFailures:  m.deliveryFailures.Load(),
		MessagesDropped:   m.messagesDropped.Load(),
		DecodeErrors:      m.decodeErrors.Load(),
		ErrorsTotal:       m.errorsTotal.Load(),
		AvgLatencyNs:      avgLatency,
		ActiveConnections: m.activeConnections.Load(),
		Timestamp:         time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.eventsProcessed.Store(0)
	m.tickersProcessed.Store(0)
	m.bookChanges.Store(0)
	m.statBatches.Store(0)
	m.statsFlushed.Store(0)
	m.tradesOpened.Store(0)
	m.tradesMatched.Store(0)
	m.deliveryFailures.Store(0)
	m.messagesDropped.Store(0)
	m.decodeErrors.Store(0)
	m.errorsTotal.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
	m.activeConnections.Store(0)
}
