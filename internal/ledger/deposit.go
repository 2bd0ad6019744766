package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
)

// depositLimitRatio bounds a deposit to a fraction of the caller's
// outstanding unpaid job prices.
var depositLimitRatio = decimal.RequireFromString("0.25")

// Deposit adds amount to the caller's own balance. The limit is 25% of the
// total price of the caller's unpaid jobs; with no unpaid jobs the limit is
// zero and every positive deposit is rejected. Limit read and balance write
// share one transaction so a concurrent job payment cannot invalidate the
// check between read and write.
func (s *Service) Deposit(ctx context.Context, targetID, callerID int64, amount decimal.Decimal) error {
	if targetID != callerID {
		return ErrDepositForbidden
	}

	err := s.store.RunInTx(ctx, func(tx Tx) error {
		// Existence is checked before the amount: a bad amount aimed at a
		// missing profile is still a missing profile.
		if _, err := tx.ProfileForUpdate(ctx, targetID); err != nil {
			return err
		}

		if !amount.IsPositive() {
			return ErrInvalidAmount
		}

		unpaid, err := tx.SumUnpaidJobPrices(ctx, targetID)
		if err != nil {
			return fmt.Errorf("sum unpaid jobs: %w", err)
		}

		limit := unpaid.Mul(depositLimitRatio)
		if amount.GreaterThan(limit) {
			return ErrDepositLimitExceeded
		}

		return tx.AdjustBalance(ctx, targetID, amount)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Deposit applied",
		slog.Int64("profile_id", targetID),
		slog.String("amount", amount.String()),
	)

	s.publishDeposit(ctx, targetID, amount)

	return nil
}
