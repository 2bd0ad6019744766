package audit

import (
	"context"
	"fmt"
	"log/slog"
)

// processEvent records one payment event with a bounded timeout. Duplicate
// deliveries are acknowledged as successes: the audit row already exists.
func (w *Worker) processEvent(ctx context.Context, delivery *eventDelivery) error {
	event := delivery.Event

	eventCtx, cancel := context.WithTimeout(ctx, w.eventTimeout)
	defer cancel()

	inserted, err := w.storage.RecordEvent(eventCtx, event)
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}

	if inserted {
		w.logger.Info("Payment event recorded",
			slog.String("event_id", event.EventID),
			slog.String("kind", event.Kind),
			slog.Int64("client_id", event.ClientID),
			slog.String("amount", event.Amount.String()),
		)
	}

	return nil
}
