package engine

import "market_watcher/internal/domain"

// DefaultStatWatermark is the buffered stat count that triggers a flush.
const DefaultStatWatermark = 1000

// StatAggregator buffers stats and hands back the whole buffer once it
// reaches the watermark.
type StatAggregator struct {
	buf       []domain.Stat
	watermark int
}

// NewStatAggregator creates an aggregator. Non-positive watermarks use 1000.
func NewStatAggregator(watermark int) *StatAggregator {
	if watermark <= 0 {
		watermark = DefaultStatWatermark
	}
	return &StatAggregator{
		buf:       make([]domain.Stat, 0, watermark),
		watermark: watermark,
	}
}

// Append buffers st. When the buffer holds more than watermark-1 stats it is
// drained and returned as one batch; otherwise Append returns nil.
func (a *StatAggregator) Append(st domain.Stat) []domain.Stat {
	a.buf = append(a.buf, st)
	if len(a.buf) > a.watermark-1 {
		return a.Drain()
	}
	return nil
}

// Drain empties the buffer and returns what it held (nil when empty).
func (a *StatAggregator) Drain() []domain.Stat {
	if len(a.buf) == 0 {
		return nil
	}
	batch := a.buf
	a.buf = make([]domain.Stat, 0, a.watermark)
	return batch
}

// Len returns the number of buffered stats.
func (a *StatAggregator) Len() int {
	return len(a.buf)
}

// Watermark returns the flush threshold.
func (a *StatAggregator) Watermark() int {
	return a.watermark
}
