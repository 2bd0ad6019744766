package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
)

// PaymentResult describes a committed job payment.
type PaymentResult struct {
	JobID        int64
	ClientID     int64
	ContractorID int64
	Amount       decimal.Decimal
}

// PayJob pays a single job on behalf of callerID. The unpaid-job read, the
// client debit, the contractor credit and the paid flag all live in one
// transaction, so two concurrent payments of the same job race on the job
// row lock and exactly one commits; the other observes paid = true and gets
// ErrJobNotFound. The operation is therefore not retriable on success, only
// on rejection.
func (s *Service) PayJob(ctx context.Context, jobID, callerID int64) (*PaymentResult, error) {
	var result *PaymentResult

	err := s.store.RunInTx(ctx, func(tx Tx) error {
		job, err := tx.UnpaidJobForUpdate(ctx, jobID)
		if err != nil {
			return err
		}

		if job.ClientID != callerID {
			return ErrNotContractClient
		}

		// Lock parties in id order so concurrent payments on overlapping
		// profiles cannot deadlock.
		first, second := job.ClientID, job.ContractorID
		if second < first {
			first, second = second, first
		}

		profiles := make(map[int64]decimal.Decimal, 2)
		for _, id := range []int64{first, second} {
			p, err := tx.ProfileForUpdate(ctx, id)
			if err != nil {
				return err
			}
			profiles[id] = p.Balance
		}

		if profiles[job.ClientID].LessThan(job.Price) {
			return ErrInsufficientFunds
		}

		if err := tx.AdjustBalance(ctx, job.ClientID, job.Price.Neg()); err != nil {
			return fmt.Errorf("debit client: %w", err)
		}
		if err := tx.AdjustBalance(ctx, job.ContractorID, job.Price); err != nil {
			return fmt.Errorf("credit contractor: %w", err)
		}
		if err := tx.MarkJobPaid(ctx, job.ID, s.now()); err != nil {
			return fmt.Errorf("mark job paid: %w", err)
		}

		result = &PaymentResult{
			JobID:        job.ID,
			ClientID:     job.ClientID,
			ContractorID: job.ContractorID,
			Amount:       job.Price,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Job paid",
		slog.Int64("job_id", result.JobID),
		slog.Int64("client_id", result.ClientID),
		slog.Int64("contractor_id", result.ContractorID),
		slog.String("amount", result.Amount.String()),
	)

	s.publishJobPaid(ctx, result)

	return result, nil
}
