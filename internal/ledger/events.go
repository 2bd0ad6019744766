package ledger

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment event kinds consumed by the audit-service.
const (
	EventKindJobPaid = "job_paid"
	EventKindDeposit = "deposit"
)

// PaymentEvent is the wire format of one committed money movement. EventID is
// the deduplication key for redelivered messages.
type PaymentEvent struct {
	EventID      string          `json:"event_id"`
	Kind         string          `json:"kind"`
	JobID        *int64          `json:"job_id,omitempty"`
	ClientID     int64           `json:"client_id"`
	ContractorID *int64          `json:"contractor_id,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

func (s *Service) publishJobPaid(ctx context.Context, res *PaymentResult) {
	jobID := res.JobID
	contractorID := res.ContractorID
	s.publishEvent(ctx, &PaymentEvent{
		EventID:      uuid.New().String(),
		Kind:         EventKindJobPaid,
		JobID:        &jobID,
		ClientID:     res.ClientID,
		ContractorID: &contractorID,
		Amount:       res.Amount,
		OccurredAt:   s.now(),
	})
}

func (s *Service) publishDeposit(ctx context.Context, profileID int64, amount decimal.Decimal) {
	s.publishEvent(ctx, &PaymentEvent{
		EventID:    uuid.New().String(),
		Kind:       EventKindDeposit,
		ClientID:   profileID,
		Amount:     amount,
		OccurredAt: s.now(),
	})
}

// publishEvent runs strictly after commit and is best-effort: the money has
// already moved, so a broker failure is logged and never surfaced to the
// caller.
func (s *Service) publishEvent(ctx context.Context, event *PaymentEvent) {
	if s.events == nil {
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("Failed to marshal payment event",
			slog.String("event_id", event.EventID),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := s.events.Publish(ctx, body, "application/json"); err != nil {
		s.logger.Error("Failed to publish payment event",
			slog.String("event_id", event.EventID),
			slog.String("kind", event.Kind),
			slog.String("error", err.Error()),
		)
	}
}
