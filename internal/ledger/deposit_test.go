package ledger

import (
	"context"
	"testing"

	"github.com/cuongbtq/marketplace-ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// depositFixture: client 1 has 400 worth of unpaid jobs, so the deposit
// limit is 100.
func depositFixture() *fakeStore {
	store := newFakeStore()
	store.addProfile(1, model.RoleClient, "", "50")
	store.addProfile(2, model.RoleContractor, "dev", "0")
	store.addContract(10, 1, 2, model.ContractStatusInProgress)
	store.addJob(100, 10, "250")
	store.addJob(101, 10, "150")
	return store
}

func TestDeposit_WithinLimit(t *testing.T) {
	store := depositFixture()
	service, publisher := newTestService(t, store)

	err := service.Deposit(context.Background(), 1, 1, decimal.RequireFromString("100"))
	require.NoError(t, err)

	assert.True(t, store.balance(1).Equal(decimal.RequireFromString("150")))
	assert.Equal(t, 1, publisher.count())
}

func TestDeposit_OverLimit(t *testing.T) {
	store := depositFixture()
	service, publisher := newTestService(t, store)

	err := service.Deposit(context.Background(), 1, 1, decimal.RequireFromString("100.01"))
	assert.ErrorIs(t, err, ErrDepositLimitExceeded)

	assert.True(t, store.balance(1).Equal(decimal.RequireFromString("50")))
	assert.Equal(t, 0, publisher.count())
}

func TestDeposit_NoUnpaidJobsRejectsEverything(t *testing.T) {
	store := newFakeStore()
	store.addProfile(1, model.RoleClient, "", "50")

	service, _ := newTestService(t, store)

	// Limit is zero with no unpaid jobs; even the smallest deposit fails.
	err := service.Deposit(context.Background(), 1, 1, decimal.RequireFromString("0.01"))
	assert.ErrorIs(t, err, ErrDepositLimitExceeded)
	assert.True(t, store.balance(1).Equal(decimal.RequireFromString("50")))
}

func TestDeposit_ThirdParty(t *testing.T) {
	store := depositFixture()
	service, _ := newTestService(t, store)

	err := service.Deposit(context.Background(), 1, 2, decimal.RequireFromString("10"))
	assert.ErrorIs(t, err, ErrDepositForbidden)
	assert.True(t, store.balance(1).Equal(decimal.RequireFromString("50")))
}

func TestDeposit_ProfileMissing(t *testing.T) {
	store := newFakeStore()
	service, _ := newTestService(t, store)

	err := service.Deposit(context.Background(), 42, 42, decimal.RequireFromString("10"))
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestDeposit_NonPositiveAmount(t *testing.T) {
	store := depositFixture()
	service, _ := newTestService(t, store)

	err := service.Deposit(context.Background(), 1, 1, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	err = service.Deposit(context.Background(), 1, 1, decimal.RequireFromString("-5"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestDeposit_MissingProfileBeatsBadAmount(t *testing.T) {
	store := newFakeStore()
	service, _ := newTestService(t, store)

	// The existence check comes first, so a zero deposit to a profile that
	// does not exist is reported as missing, not as a bad amount.
	err := service.Deposit(context.Background(), 42, 42, decimal.Zero)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestDeposit_LimitShrinksAfterPayment(t *testing.T) {
	store := depositFixture()
	service, _ := newTestService(t, store)

	// Give the client enough to pay the 250 job, then pay it.
	require.NoError(t, service.Deposit(context.Background(), 1, 1, decimal.RequireFromString("100")))
	store.mu.Lock()
	p := store.profiles[1]
	p.Balance = decimal.RequireFromString("300")
	store.profiles[1] = p
	store.mu.Unlock()

	_, err := service.PayJob(context.Background(), 100, 1)
	require.NoError(t, err)

	// Only the 150 job is unpaid now; the limit dropped to 37.50.
	err = service.Deposit(context.Background(), 1, 1, decimal.RequireFromString("37.51"))
	assert.ErrorIs(t, err, ErrDepositLimitExceeded)

	err = service.Deposit(context.Background(), 1, 1, decimal.RequireFromString("37.50"))
	assert.NoError(t, err)
}
