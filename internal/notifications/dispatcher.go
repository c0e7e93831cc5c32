package notifications

import (
	"context"
	"time"

	"itemshare/pkg/logger"
)

// Dispatcher hands committed events to the sink. Delivery problems are
// logged; the state change that produced the events stands.
type Dispatcher struct {
	sink    Sink
	timeout time.Duration
	log     *logger.Logger
}

func NewDispatcher(sink Sink, timeout time.Duration, log *logger.Logger) *Dispatcher {
	return &Dispatcher{sink: sink, timeout: timeout, log: log.Component("notifications")}
}

func (d *Dispatcher) Dispatch(ctx context.Context, events []Event) {
	if d == nil || d.sink == nil || len(events) == 0 {
		return
	}

	// Delivery outlives a cancelled request.
	ctx = context.WithoutCancel(ctx)
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if err := d.sink.Deliver(ctx, events); err != nil {
		d.log.Error("Failed to deliver notifications",
			"count", len(events),
			"item_id", events[0].ItemID,
			"error", err,
		)
		return
	}
	d.log.Debug("Notifications delivered", "count", len(events), "item_id", events[0].ItemID)
}
