package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/cuongbtq/marketplace-ledger/internal/model"
	"github.com/shopspring/decimal"
)

// JobView is a job joined with the client and contractor ids of its contract,
// as read inside a payment transaction.
type JobView struct {
	model.Job
	ClientID     int64 `db:"client_id"`
	ContractorID int64 `db:"contractor_id"`
}

// ProfessionEarnings is one row of the best-profession report.
type ProfessionEarnings struct {
	Profession string          `db:"profession" json:"profession"`
	Earnings   decimal.Decimal `db:"earnings" json:"earnings"`
}

// ClientPayments is one row of the best-clients report.
type ClientPayments struct {
	ID        int64           `db:"id" json:"id"`
	FirstName string          `db:"first_name" json:"firstName"`
	LastName  string          `db:"last_name" json:"lastName"`
	TotalPaid decimal.Decimal `db:"total_paid" json:"totalPaid"`
}

// Tx is the set of ledger store operations available inside one atomic
// transaction. Row-reading methods take row locks; every write is visible
// only when the surrounding transaction commits.
type Tx interface {
	// UnpaidJobForUpdate locks and returns the job joined with its contract's
	// party ids. Missing and already-paid jobs both yield ErrJobNotFound.
	UnpaidJobForUpdate(ctx context.Context, jobID int64) (*JobView, error)

	// ProfileForUpdate locks and returns a profile row, or ErrProfileNotFound.
	ProfileForUpdate(ctx context.Context, profileID int64) (*model.Profile, error)

	// AdjustBalance adds delta (which may be negative) to a profile balance.
	AdjustBalance(ctx context.Context, profileID int64, delta decimal.Decimal) error

	// MarkJobPaid flips paid to true and stamps the payment date. It fails if
	// the job is no longer unpaid.
	MarkJobPaid(ctx context.Context, jobID int64, paidAt time.Time) error

	// SumUnpaidJobPrices returns the total price of unpaid jobs on contracts
	// where the profile is the client.
	SumUnpaidJobPrices(ctx context.Context, clientID int64) (decimal.Decimal, error)
}

// Store is the durable ledger store consumed by the engines. RunInTx executes
// fn inside one serializable transaction: fn returning an error rolls the
// whole unit back, so either all of its writes commit or none do.
type Store interface {
	RunInTx(ctx context.Context, fn func(tx Tx) error) error

	BestProfession(ctx context.Context, start, end time.Time) (*ProfessionEarnings, error)
	BestClients(ctx context.Context, start, end time.Time, limit int) ([]ClientPayments, error)
}

// EventPublisher pushes serialized payment events to the event stream.
type EventPublisher interface {
	Publish(ctx context.Context, body []byte, contentType string) error
}

// Service implements the payment, deposit and reporting engines on top of a
// Store. Publishing events is optional and strictly post-commit.
type Service struct {
	store  Store
	events EventPublisher
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a ledger service. events may be nil when no event stream
// is configured.
func NewService(store Store, events EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}
