package engine

import (
	"errors"
	"fmt"

	"market_watcher/internal/domain"
	"market_watcher/internal/event"
)

// Outbox hands messages to the downstream consumer without ever blocking
// the market loop. Messages the channel cannot take are retained (up to
// maxPending, oldest dropped first) and retried, in order, before any newer
// message is sent.
type Outbox struct {
	out        chan<- event.Msg
	pending    []event.Msg
	maxPending int
	metrics    Metrics
}

// NewOutbox wraps out. maxPending <= 0 disables retention.
func NewOutbox(out chan<- event.Msg, maxPending int, metrics Metrics) *Outbox {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Outbox{
		out:        out,
		maxPending: maxPending,
		metrics:    metrics,
	}
}

func (o *Outbox) trySend(msg event.Msg) bool {
	select {
	case o.out <- msg:
		return true
	default:
		return false
	}
}

func (o *Outbox) retryPending() {
	n := 0
	for n < len(o.pending) && o.trySend(o.pending[n]) {
		n++
	}
	if n > 0 {
		clear(o.pending[:n])
		o.pending = o.pending[n:]
	}
}

// Send delivers msg or retains it. A non-nil error is always a
// *domain.DeliveryError (possibly joined with a second one for a message
// dropped from the retained queue).
func (o *Outbox) Send(msg event.Msg) error {
	o.retryPending()
	if len(o.pending) == 0 && o.trySend(msg) {
		return nil
	}

	o.metrics.RecordDeliveryFailure()
	if o.maxPending <= 0 {
		o.metrics.RecordDropped()
		return &domain.DeliveryError{Kind: msg.Kind().String(), Err: domain.ErrOutboundFull}
	}

	var dropErr error
	if len(o.pending) >= o.maxPending {
		dropped := o.pending[0]
		o.pending[0] = nil
		o.pending = o.pending[1:]
		o.metrics.RecordDropped()
		dropErr = &domain.DeliveryError{Kind: dropped.Kind().String(), Err: domain.ErrPendingOverflow}
	}
	o.pending = append(o.pending, msg)

	retained := &domain.DeliveryError{Kind: msg.Kind().String(), Err: domain.ErrOutboundFull, Retained: true}
	if dropErr != nil {
		return errors.Join(retained, dropErr)
	}
	return retained
}

// Flush retries retained messages once and reports what is still pending.
func (o *Outbox) Flush() error {
	o.retryPending()
	if len(o.pending) == 0 {
		return nil
	}
	return &domain.DeliveryError{
		Kind:     "pending",
		Err:      fmt.Errorf("%d messages undelivered: %w", len(o.pending), domain.ErrOutboundFull),
		Retained: true,
	}
}

// Pending returns the number of retained messages.
func (o *Outbox) Pending() int {
	return len(o.pending)
}
