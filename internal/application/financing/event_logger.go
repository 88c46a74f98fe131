package financing

import (
	"context"

	"github.com/loanbook/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// EventLogger is a wildcard event handler that writes an audit line for
// every financing domain event that crosses the bus.
type EventLogger struct {
	logger *zap.Logger
}

// NewEventLogger creates a new event logger handler
func NewEventLogger(logger *zap.Logger) *EventLogger {
	return &EventLogger{logger: logger}
}

// Handle logs the event
func (l *EventLogger) Handle(ctx context.Context, event shared.DomainEvent) error {
	l.logger.Info("domain event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	)
	return nil
}

// EventTypes returns an empty slice so the handler receives all events
func (l *EventLogger) EventTypes() []string {
	return nil
}

// Ensure EventLogger implements EventHandler
var _ shared.EventHandler = (*EventLogger)(nil)
