package ledger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cuongbtq/marketplace-ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayJob_Success(t *testing.T) {
	store := newFakeStore()
	store.addProfile(1, model.RoleClient, "", "200")
	store.addProfile(2, model.RoleContractor, "dev", "0")
	store.addContract(10, 1, 2, model.ContractStatusInProgress)
	store.addJob(100, 10, "150")

	service, publisher := newTestService(t, store)
	paidAt := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return paidAt }

	result, err := service.PayJob(context.Background(), 100, 1)
	require.NoError(t, err)

	assert.Equal(t, int64(100), result.JobID)
	assert.Equal(t, int64(1), result.ClientID)
	assert.Equal(t, int64(2), result.ContractorID)
	assert.True(t, result.Amount.Equal(decimal.RequireFromString("150")))

	assert.True(t, store.balance(1).Equal(decimal.RequireFromString("50")))
	assert.True(t, store.balance(2).Equal(decimal.RequireFromString("150")))

	job := store.job(100)
	assert.True(t, job.Paid)
	require.NotNil(t, job.PaymentDate)
	assert.True(t, job.PaymentDate.Equal(paidAt))

	assert.Equal(t, 1, publisher.count())

	// Replaying a committed payment is rejected, not repeated.
	_, err = service.PayJob(context.Background(), 100, 1)
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.True(t, store.balance(1).Equal(decimal.RequireFromString("50")))
	assert.Equal(t, 1, publisher.count())
}

func TestPayJob_ConservesTotalBalance(t *testing.T) {
	store := newFakeStore()
	store.addProfile(1, model.RoleClient, "", "731.25")
	store.addProfile(2, model.RoleContractor, "dev", "18.50")
	store.addContract(10, 1, 2, model.ContractStatusInProgress)
	store.addJob(100, 10, "99.99")

	service, _ := newTestService(t, store)

	before := store.balance(1).Add(store.balance(2))

	_, err := service.PayJob(context.Background(), 100, 1)
	require.NoError(t, err)

	after := store.balance(1).Add(store.balance(2))
	assert.True(t, before.Equal(after), "money must neither appear nor vanish: %s != %s", before, after)
}

func TestPayJob_JobMissing(t *testing.T) {
	store := newFakeStore()
	store.addProfile(1, model.RoleClient, "", "200")

	service, publisher := newTestService(t, store)

	_, err := service.PayJob(context.Background(), 999, 1)
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.Equal(t, 0, publisher.count())
}

func TestPayJob_NotTheClient(t *testing.T) {
	store := newFakeStore()
	store.addProfile(7, model.RoleClient, "", "500")
	store.addProfile(2, model.RoleContractor, "dev", "0")
	store.addProfile(9, model.RoleClient, "", "500")
	store.addContract(10, 7, 2, model.ContractStatusInProgress)
	store.addJob(100, 10, "100")

	service, publisher := newTestService(t, store)

	_, err := service.PayJob(context.Background(), 100, 9)
	assert.ErrorIs(t, err, ErrNotContractClient)

	// No balance or job state may move on a rejected call.
	assert.True(t, store.balance(7).Equal(decimal.RequireFromString("500")))
	assert.True(t, store.balance(9).Equal(decimal.RequireFromString("500")))
	assert.True(t, store.balance(2).IsZero())
	assert.False(t, store.job(100).Paid)
	assert.Equal(t, 0, publisher.count())
}

func TestPayJob_InsufficientFunds(t *testing.T) {
	store := newFakeStore()
	store.addProfile(1, model.RoleClient, "", "149.99")
	store.addProfile(2, model.RoleContractor, "dev", "0")
	store.addContract(10, 1, 2, model.ContractStatusInProgress)
	store.addJob(100, 10, "150")

	service, _ := newTestService(t, store)

	_, err := service.PayJob(context.Background(), 100, 1)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	assert.True(t, store.balance(1).Equal(decimal.RequireFromString("149.99")))
	assert.True(t, store.balance(2).IsZero())
	assert.False(t, store.job(100).Paid)
}

func TestPayJob_ConcurrentCallsPayAtMostOnce(t *testing.T) {
	store := newFakeStore()
	store.addProfile(1, model.RoleClient, "", "1000")
	store.addProfile(2, model.RoleContractor, "dev", "0")
	store.addContract(10, 1, 2, model.ContractStatusInProgress)
	store.addJob(100, 10, "300")

	service, _ := newTestService(t, store)

	const attempts = 25
	var successes, rejections atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.PayJob(context.Background(), 100, 1)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, ErrJobNotFound):
				rejections.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), successes.Load(), "exactly one concurrent payment may commit")
	assert.Equal(t, int64(attempts-1), rejections.Load())

	// The price moved exactly once.
	assert.True(t, store.balance(1).Equal(decimal.RequireFromString("700")))
	assert.True(t, store.balance(2).Equal(decimal.RequireFromString("300")))
}
