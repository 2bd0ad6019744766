package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/marketplace-ledger/internal/ledger"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// setupConsumer configures QoS on the event queue and starts consuming.
func (w *Worker) setupConsumer() (<-chan amqp.Delivery, error) {
	channel := w.rabbitClient.GetChannel()
	if channel == nil {
		return nil, fmt.Errorf("rabbitmq channel is nil")
	}

	// Bound the number of unacknowledged events per consumer.
	if err := channel.Qos(w.prefetchCount, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := w.rabbitClient.Consume(w.workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	w.logger.Info("Payment event consumer started",
		slog.String("consumer_tag", w.workerID),
		slog.Int("prefetch_count", w.prefetchCount),
	)

	return deliveries, nil
}

// dispatch parses raw deliveries into payment events and feeds the pool.
// Events that cannot ever be processed are NACKed without requeue.
func (w *Worker) dispatch(ctx context.Context, deliveries <-chan amqp.Delivery) {
	w.logger.Info("Event dispatcher started",
		slog.String("worker_id", w.workerID),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Event dispatcher stopped - context canceled")
			return

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Warn("RabbitMQ delivery channel closed")
				return
			}

			event, err := parseEvent(delivery.Body)
			if err != nil {
				w.logger.Error("Dropping malformed payment event",
					slog.String("error", err.Error()),
					slog.String("body", string(delivery.Body)),
				)
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					w.logger.Error("Failed to NACK malformed event",
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			select {
			case w.eventsChan <- &eventDelivery{Event: event, DeliveryTag: delivery.DeliveryTag}:
			case <-ctx.Done():
				w.logger.Info("Event dispatcher stopped while dispatching")
				// Requeue so another consumer picks the event up.
				if nackErr := delivery.Nack(false, true); nackErr != nil {
					w.logger.Error("Failed to NACK event on shutdown",
						slog.String("error", nackErr.Error()),
					)
				}
				return
			}
		}
	}
}

// parseEvent unmarshals and validates one payment event.
func parseEvent(body []byte) (*ledger.PaymentEvent, error) {
	var event ledger.PaymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	if _, err := uuid.Parse(event.EventID); err != nil {
		return nil, fmt.Errorf("%w: event_id is not a UUID", ErrMalformedEvent)
	}

	switch event.Kind {
	case ledger.EventKindJobPaid, ledger.EventKindDeposit:
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrMalformedEvent, event.Kind)
	}

	if !event.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: non-positive amount", ErrMalformedEvent)
	}

	return &event, nil
}
