package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cuongbtq/marketplace-ledger/internal/audit/storage"
	"github.com/cuongbtq/marketplace-ledger/internal/ledger"
	"github.com/cuongbtq/marketplace-ledger/shared/postgresql"
	"github.com/cuongbtq/marketplace-ledger/shared/rabbitmq"
	"github.com/google/uuid"
)

// ErrMalformedEvent marks deliveries that can never succeed; they are NACKed
// without requeue instead of looping through the queue forever.
var ErrMalformedEvent = errors.New("malformed payment event")

// Config holds audit worker configuration.
type Config struct {
	Logger        *slog.Logger
	DBClient      *postgresql.Client
	RabbitClient  *rabbitmq.Client
	Concurrency   int
	PrefetchCount int
	EventTimeout  time.Duration
}

// eventDelivery is one parsed payment event still tied to its AMQP delivery.
type eventDelivery struct {
	Event       *ledger.PaymentEvent
	DeliveryTag uint64
}

// eventRecorder persists payment events idempotently. The bool reports
// whether the event was new.
type eventRecorder interface {
	RecordEvent(ctx context.Context, event *ledger.PaymentEvent) (bool, error)
}

// Worker consumes payment events and records them in the audit log.
type Worker struct {
	logger        *slog.Logger
	storage       eventRecorder
	rabbitClient  *rabbitmq.Client
	concurrency   int
	prefetchCount int
	eventTimeout  time.Duration
	workerID      string
	eventsChan    chan *eventDelivery
	wg            sync.WaitGroup
	stopChan      chan struct{}
}

// NewWorker creates a new audit worker instance.
func NewWorker(cfg *Config) *Worker {
	return &Worker{
		logger:        cfg.Logger,
		storage:       storage.NewStorage(cfg.DBClient.GetDB(), cfg.Logger),
		rabbitClient:  cfg.RabbitClient,
		concurrency:   cfg.Concurrency,
		prefetchCount: cfg.PrefetchCount,
		eventTimeout:  cfg.EventTimeout,
		workerID:      fmt.Sprintf("audit-%s", uuid.New().String()[:8]),
		eventsChan:    make(chan *eventDelivery),
		stopChan:      make(chan struct{}),
	}
}

// Start consumes the payment event queue until ctx is canceled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting audit worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("event_timeout", w.eventTimeout),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return fmt.Errorf("failed to setup consumer: %w", err)
	}

	w.spawnPool(ctx)

	go w.dispatch(ctx, deliveries)

	<-ctx.Done()
	w.logger.Info("Audit worker context canceled, stopping...")

	return nil
}

// Stop gracefully stops the worker pool.
func (w *Worker) Stop() {
	w.logger.Info("Stopping audit worker...")
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Audit worker stopped")
}
