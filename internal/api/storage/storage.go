package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/cuongbtq/marketplace-ledger/internal/ledger"
	"github.com/cuongbtq/marketplace-ledger/internal/model"
	"github.com/cuongbtq/marketplace-ledger/shared/postgresql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Storage is the PostgreSQL ledger store. Writes go through RunInTx; reads
// run on the pool's default consistent-read snapshot.
type Storage struct {
	db *sqlx.DB
}

func NewStorage(pg *postgresql.Client) *Storage {
	return &Storage{
		db: pg.GetDB(),
	}
}

// RunInTx executes fn inside one serializable transaction. When a concurrent
// writer aborts the unit with a serialization failure, the unit is re-run
// once: the second run re-reads the committed state, so a payment that lost
// the race observes paid = true and fails on its own precondition. A failure
// that survives the re-run, or a lost connection, is reported as the store
// being unavailable.
func (s *Storage) RunInTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	err := s.runInTxOnce(ctx, fn)
	if isSerializationFailure(err) {
		err = s.runInTxOnce(ctx, fn)
	}
	if isSerializationFailure(err) || isConnectionFailure(err) {
		return fmt.Errorf("%w: %v", ledger.ErrStoreUnavailable, err)
	}
	return err
}

func (s *Storage) runInTxOnce(ctx context.Context, fn func(tx ledger.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&ledgerTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// isSerializationFailure reports the Postgres serialization_failure class
// (SQLSTATE 40001) raised when serializable transactions conflict.
func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "40001"
}

// isConnectionFailure reports errors from losing the database connection,
// either at the driver level or as a Postgres class 08 condition.
func isConnectionFailure(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Class() == "08"
}

// ledgerTx implements ledger.Tx on a live sqlx transaction.
type ledgerTx struct {
	tx *sqlx.Tx
}

func (t *ledgerTx) UnpaidJobForUpdate(ctx context.Context, jobID int64) (*ledger.JobView, error) {
	query := `
		SELECT
			j.id, j.contract_id, j.description, j.price, j.paid, j.payment_date,
			c.client_id, c.contractor_id
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		WHERE j.id = $1
		FOR UPDATE OF j
	`

	var job ledger.JobView
	err := t.tx.GetContext(ctx, &job, query, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrJobNotFound
		}
		return nil, fmt.Errorf("lock job: %w", err)
	}

	// Already-paid jobs are reported as not found: this read is the
	// at-most-once guard for concurrent payments.
	if job.Paid {
		return nil, ledger.ErrJobNotFound
	}

	return &job, nil
}

func (t *ledgerTx) ProfileForUpdate(ctx context.Context, profileID int64) (*model.Profile, error) {
	query := `
		SELECT id, first_name, last_name, profession, role, balance
		FROM profiles
		WHERE id = $1
		FOR UPDATE
	`

	var profile model.Profile
	err := t.tx.GetContext(ctx, &profile, query, profileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrProfileNotFound
		}
		return nil, fmt.Errorf("lock profile: %w", err)
	}

	return &profile, nil
}

func (t *ledgerTx) AdjustBalance(ctx context.Context, profileID int64, delta decimal.Decimal) error {
	query := `
		UPDATE profiles
		SET balance = balance + $1
		WHERE id = $2
	`

	res, err := t.tx.ExecContext(ctx, query, delta, profileID)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust balance rows affected: %w", err)
	}
	if rows == 0 {
		return ledger.ErrProfileNotFound
	}
	return nil
}

func (t *ledgerTx) MarkJobPaid(ctx context.Context, jobID int64, paidAt time.Time) error {
	query := `
		UPDATE jobs
		SET paid = TRUE, payment_date = $1
		WHERE id = $2 AND paid = FALSE
	`

	res, err := t.tx.ExecContext(ctx, query, paidAt, jobID)
	if err != nil {
		return fmt.Errorf("mark job paid: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark job paid rows affected: %w", err)
	}
	if rows == 0 {
		return ledger.ErrJobNotFound
	}
	return nil
}

func (t *ledgerTx) SumUnpaidJobPrices(ctx context.Context, clientID int64) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(j.price), 0)
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		WHERE c.client_id = $1 AND j.paid = FALSE
	`

	var total decimal.Decimal
	if err := t.tx.GetContext(ctx, &total, query, clientID); err != nil {
		return decimal.Zero, fmt.Errorf("sum unpaid job prices: %w", err)
	}
	return total, nil
}

// GetProfileByID loads a profile outside any transaction; used by the
// request authentication middleware.
func (s *Storage) GetProfileByID(ctx context.Context, profileID int64) (*model.Profile, error) {
	query := `
		SELECT id, first_name, last_name, profession, role, balance
		FROM profiles
		WHERE id = $1
	`

	var profile model.Profile
	err := s.db.GetContext(ctx, &profile, query, profileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	return &profile, nil
}

// GetContractForProfile returns the contract only when the profile is one of
// its two parties; anything else is reported as absent.
func (s *Storage) GetContractForProfile(ctx context.Context, contractID, profileID int64) (*model.Contract, error) {
	query := `
		SELECT id, client_id, contractor_id, terms, status
		FROM contracts
		WHERE id = $1 AND (client_id = $2 OR contractor_id = $2)
	`

	var contract model.Contract
	err := s.db.GetContext(ctx, &contract, query, contractID, profileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrContractNotFound
		}
		return nil, fmt.Errorf("get contract: %w", err)
	}

	return &contract, nil
}

// ListContractsForProfile returns the profile's non-terminated contracts.
func (s *Storage) ListContractsForProfile(ctx context.Context, profileID int64) ([]model.Contract, error) {
	query := `
		SELECT id, client_id, contractor_id, terms, status
		FROM contracts
		WHERE (client_id = $1 OR contractor_id = $1) AND status != $2
		ORDER BY id
	`

	var contracts []model.Contract
	if err := s.db.SelectContext(ctx, &contracts, query, profileID, model.ContractStatusTerminated); err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	return contracts, nil
}

// ListUnpaidJobsForProfile returns unpaid jobs on in-progress contracts where
// the profile is either party.
func (s *Storage) ListUnpaidJobsForProfile(ctx context.Context, profileID int64) ([]model.Job, error) {
	query := `
		SELECT j.id, j.contract_id, j.description, j.price, j.paid, j.payment_date
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		WHERE j.paid = FALSE
		  AND c.status = $1
		  AND (c.client_id = $2 OR c.contractor_id = $2)
		ORDER BY j.id
	`

	var jobs []model.Job
	if err := s.db.SelectContext(ctx, &jobs, query, model.ContractStatusInProgress, profileID); err != nil {
		return nil, fmt.Errorf("list unpaid jobs: %w", err)
	}
	return jobs, nil
}

// BestProfession aggregates terminated-contract earnings per contractor
// profession over the inclusive [start, end] date range. Returns nil when no
// job qualifies.
func (s *Storage) BestProfession(ctx context.Context, start, end time.Time) (*ledger.ProfessionEarnings, error) {
	query := `
		SELECT p.profession, SUM(j.price) AS earnings
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		JOIN profiles p ON p.id = c.contractor_id
		WHERE c.status = $1
		  AND j.paid = TRUE
		  AND j.payment_date >= $2
		  AND j.payment_date < $3
		GROUP BY p.profession
		ORDER BY earnings DESC
		LIMIT 1
	`

	var row ledger.ProfessionEarnings
	err := s.db.GetContext(ctx, &row, query, model.ContractStatusTerminated, start, endExclusive(end))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("best profession: %w", err)
	}

	return &row, nil
}

// BestClients aggregates terminated-contract payments per client over the
// inclusive [start, end] date range, highest total first.
func (s *Storage) BestClients(ctx context.Context, start, end time.Time, limit int) ([]ledger.ClientPayments, error) {
	query := `
		SELECT p.id, p.first_name, p.last_name, SUM(j.price) AS total_paid
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		JOIN profiles p ON p.id = c.client_id
		WHERE c.status = $1
		  AND j.paid = TRUE
		  AND j.payment_date >= $2
		  AND j.payment_date < $3
		GROUP BY p.id, p.first_name, p.last_name
		ORDER BY total_paid DESC
		LIMIT $4
	`

	var rows []ledger.ClientPayments
	err := s.db.SelectContext(ctx, &rows, query, model.ContractStatusTerminated, start, endExclusive(end), limit)
	if err != nil {
		return nil, fmt.Errorf("best clients: %w", err)
	}
	return rows, nil
}

// endExclusive turns an inclusive end date into the exclusive upper bound of
// its calendar day, so timestamps anywhere on the end date qualify.
func endExclusive(end time.Time) time.Time {
	return end.AddDate(0, 0, 1)
}
