package events

import (
	"context"

	"thriftbazaar/internal/domain"
	applog "thriftbazaar/internal/log"
)

// LogPublisher writes each event as an audit log entry.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, ev domain.Event) error {
	applog.Audit(nil, ev.Type, map[string]any{
		"order_id": ev.OrderID,
		"status":   string(ev.Status),
		"amount":   ev.Amount.String(),
		"ns":       ev.Namespace,
	})
	return nil
}

func (LogPublisher) Close() error { return nil }
