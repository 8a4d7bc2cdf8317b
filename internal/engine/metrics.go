package engine

// Metrics receives the counters the market loop produces.
// *infra.Metrics satisfies it.
type Metrics interface {
	RecordEvent(latencyNs int64)
	RecordTicker()
	RecordBookChange()
	RecordStatBatch(n int)
	RecordTradeOpened()
	RecordTradeMatched()
	RecordDeliveryFailure()
	RecordDropped()
}

type nopMetrics struct{}

func (nopMetrics) RecordEvent(int64)      {}
func (nopMetrics) RecordTicker()          {}
func (nopMetrics) RecordBookChange()      {}
func (nopMetrics) RecordStatBatch(int)    {}
func (nopMetrics) RecordTradeOpened()     {}
func (nopMetrics) RecordTradeMatched()    {}
func (nopMetrics) RecordDeliveryFailure() {}
func (nopMetrics) RecordDropped()         {}
