package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// spawnPool starts N goroutines draining eventsChan.
func (w *Worker) spawnPool(ctx context.Context) {
	w.logger.Info("Spawning audit pool",
		slog.Int("concurrency", w.concurrency),
		slog.String("worker_id", w.workerID),
	)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.poolLoop(ctx, i)
	}
}

// poolLoop is the processing loop for one pool goroutine.
func (w *Worker) poolLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)

	for {
		select {
		case <-w.stopChan:
			w.logger.Info("Audit goroutine stopping - stopChan closed",
				slog.String("worker_name", workerName),
			)
			return

		case <-ctx.Done():
			w.logger.Info("Audit goroutine stopping - context canceled",
				slog.String("worker_name", workerName),
			)
			return

		case delivery, ok := <-w.eventsChan:
			if !ok {
				return
			}

			err := w.processEvent(ctx, delivery)

			channel := w.rabbitClient.GetChannel()
			if channel == nil {
				w.logger.Error("Failed to get RabbitMQ channel for ACK/NACK",
					slog.String("worker_name", workerName),
					slog.String("event_id", delivery.Event.EventID),
				)
				continue
			}

			if err != nil {
				w.logger.Error("Event processing failed",
					slog.String("worker_name", workerName),
					slog.String("event_id", delivery.Event.EventID),
					slog.String("error", err.Error()),
				)

				// Transient store failures are requeued; events that can
				// never succeed are dropped to keep the queue moving.
				requeue := !errors.Is(err, ErrMalformedEvent)

				if nackErr := channel.Nack(delivery.DeliveryTag, false, requeue); nackErr != nil {
					w.logger.Error("Failed to NACK event",
						slog.String("worker_name", workerName),
						slog.String("event_id", delivery.Event.EventID),
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			if ackErr := channel.Ack(delivery.DeliveryTag, false); ackErr != nil {
				w.logger.Error("Failed to ACK event",
					slog.String("worker_name", workerName),
					slog.String("event_id", delivery.Event.EventID),
					slog.String("error", ackErr.Error()),
				)
			}
		}
	}
}
