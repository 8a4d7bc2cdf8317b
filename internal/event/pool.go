package event

import (
	"sync"
	"time"

	"market_watcher/internal/domain"
)

// bookDeltaPool provides sync.Pool for high-frequency book delta allocation.
// Level2 updates dominate feed traffic, so the feed reuses these.
//
// Usage:
//
//	ev := AcquireBookDeltaEvent()
//	ev.Changes = append(ev.Changes, change)
//	inbox <- ev // the market releases it after processing
var bookDeltaPool = sync.Pool{
	New: func() interface{} {
		return &BookDeltaEvent{Changes: make([]domain.BookChange, 0, 8)}
	},
}

// AcquireBookDeltaEvent gets a BookDeltaEvent from the pool.
// The returned event has zero values and an empty Changes slice.
func AcquireBookDeltaEvent() *BookDeltaEvent {
	return bookDeltaPool.Get().(*BookDeltaEvent)
}

// ReleaseBookDeltaEvent returns a BookDeltaEvent to the pool.
// The event is reset before being pooled; Changes keeps its capacity.
func ReleaseBookDeltaEvent(ev *BookDeltaEvent) {
	if ev == nil {
		return
	}
	ev.ProductID = ""
	ev.Time = time.Time{}
	clear(ev.Changes)
	ev.Changes = ev.Changes[:0]

	bookDeltaPool.Put(ev)
}

// Warmup pre-allocates event objects to reduce GC pressure at startup.
func Warmup() {
	const batchSize = 1000

	evs := make([]*BookDeltaEvent, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		evs = append(evs, AcquireBookDeltaEvent())
	}
	for _, ev := range evs {
		ReleaseBookDeltaEvent(ev)
	}
}
