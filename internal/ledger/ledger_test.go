package ledger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/cuongbtq/marketplace-ledger/internal/model"
	"github.com/shopspring/decimal"
)

// fakeStore is an in-memory Store. RunInTx holds one mutex for the whole
// unit of work and applies changes to a copy, so transactions are serialized
// and roll back on error, mirroring the serializable store contract.
type fakeStore struct {
	mu        sync.Mutex
	profiles  map[int64]model.Profile
	contracts map[int64]model.Contract
	jobs      map[int64]model.Job
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles:  make(map[int64]model.Profile),
		contracts: make(map[int64]model.Contract),
		jobs:      make(map[int64]model.Job),
	}
}

func (f *fakeStore) addProfile(id int64, role, profession string, balance string) {
	f.profiles[id] = model.Profile{
		ID:         id,
		FirstName:  fmt.Sprintf("first%d", id),
		LastName:   fmt.Sprintf("last%d", id),
		Profession: profession,
		Role:       role,
		Balance:    decimal.RequireFromString(balance),
	}
}

func (f *fakeStore) addContract(id, clientID, contractorID int64, status string) {
	f.contracts[id] = model.Contract{
		ID:           id,
		ClientID:     clientID,
		ContractorID: contractorID,
		Status:       status,
	}
}

func (f *fakeStore) addJob(id, contractID int64, price string) {
	f.jobs[id] = model.Job{
		ID:         id,
		ContractID: contractID,
		Price:      decimal.RequireFromString(price),
	}
}

func (f *fakeStore) addPaidJob(id, contractID int64, price string, paidAt time.Time) {
	f.jobs[id] = model.Job{
		ID:          id,
		ContractID:  contractID,
		Price:       decimal.RequireFromString(price),
		Paid:        true,
		PaymentDate: &paidAt,
	}
}

func (f *fakeStore) balance(id int64) decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profiles[id].Balance
}

func (f *fakeStore) job(id int64) model.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jobs[id]
}

func (f *fakeStore) RunInTx(ctx context.Context, fn func(tx Tx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	work := &fakeTx{
		profiles:  cloneMap(f.profiles),
		jobs:      cloneJobs(f.jobs),
		contracts: f.contracts,
	}

	if err := fn(work); err != nil {
		return err
	}

	f.profiles = work.profiles
	f.jobs = work.jobs
	return nil
}

func (f *fakeStore) BestProfession(ctx context.Context, start, end time.Time) (*ProfessionEarnings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	totals := make(map[string]decimal.Decimal)
	for _, job := range f.jobs {
		if !f.qualifies(job, start, end) {
			continue
		}
		profession := f.profiles[f.contracts[job.ContractID].ContractorID].Profession
		totals[profession] = totals[profession].Add(job.Price)
	}

	var best *ProfessionEarnings
	for profession, total := range totals {
		if best == nil || total.GreaterThan(best.Earnings) {
			best = &ProfessionEarnings{Profession: profession, Earnings: total}
		}
	}
	return best, nil
}

func (f *fakeStore) BestClients(ctx context.Context, start, end time.Time, limit int) ([]ClientPayments, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	totals := make(map[int64]decimal.Decimal)
	for _, job := range f.jobs {
		if !f.qualifies(job, start, end) {
			continue
		}
		clientID := f.contracts[job.ContractID].ClientID
		totals[clientID] = totals[clientID].Add(job.Price)
	}

	rows := make([]ClientPayments, 0, len(totals))
	for clientID, total := range totals {
		p := f.profiles[clientID]
		rows = append(rows, ClientPayments{
			ID:        clientID,
			FirstName: p.FirstName,
			LastName:  p.LastName,
			TotalPaid: total,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalPaid.GreaterThan(rows[j].TotalPaid)
	})

	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// qualifies mirrors the report predicate: paid job on a terminated contract
// with a payment date inside the inclusive window.
func (f *fakeStore) qualifies(job model.Job, start, end time.Time) bool {
	if !job.Paid || job.PaymentDate == nil {
		return false
	}
	if f.contracts[job.ContractID].Status != model.ContractStatusTerminated {
		return false
	}
	paidAt := *job.PaymentDate
	return !paidAt.Before(start) && paidAt.Before(end.AddDate(0, 0, 1))
}

type fakeTx struct {
	profiles  map[int64]model.Profile
	jobs      map[int64]model.Job
	contracts map[int64]model.Contract
}

func (t *fakeTx) UnpaidJobForUpdate(ctx context.Context, jobID int64) (*JobView, error) {
	job, ok := t.jobs[jobID]
	if !ok || job.Paid {
		return nil, ErrJobNotFound
	}

	contract := t.contracts[job.ContractID]
	return &JobView{
		Job:          job,
		ClientID:     contract.ClientID,
		ContractorID: contract.ContractorID,
	}, nil
}

func (t *fakeTx) ProfileForUpdate(ctx context.Context, profileID int64) (*model.Profile, error) {
	profile, ok := t.profiles[profileID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return &profile, nil
}

func (t *fakeTx) AdjustBalance(ctx context.Context, profileID int64, delta decimal.Decimal) error {
	profile, ok := t.profiles[profileID]
	if !ok {
		return ErrProfileNotFound
	}

	next := profile.Balance.Add(delta)
	if next.IsNegative() {
		return fmt.Errorf("balance check violated for profile %d", profileID)
	}

	profile.Balance = next
	t.profiles[profileID] = profile
	return nil
}

func (t *fakeTx) MarkJobPaid(ctx context.Context, jobID int64, paidAt time.Time) error {
	job, ok := t.jobs[jobID]
	if !ok || job.Paid {
		return ErrJobNotFound
	}

	job.Paid = true
	at := paidAt
	job.PaymentDate = &at
	t.jobs[jobID] = job
	return nil
}

func (t *fakeTx) SumUnpaidJobPrices(ctx context.Context, clientID int64) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, job := range t.jobs {
		if job.Paid {
			continue
		}
		if t.contracts[job.ContractID].ClientID == clientID {
			total = total.Add(job.Price)
		}
	}
	return total, nil
}

func cloneMap(src map[int64]model.Profile) map[int64]model.Profile {
	dst := make(map[int64]model.Profile, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func cloneJobs(src map[int64]model.Job) map[int64]model.Job {
	dst := make(map[int64]model.Job, len(src))
	for k, v := range src {
		if v.PaymentDate != nil {
			at := *v.PaymentDate
			v.PaymentDate = &at
		}
		dst[k] = v
	}
	return dst
}

// fakePublisher records published event payloads.
type fakePublisher struct {
	mu     sync.Mutex
	bodies [][]byte
}

func (p *fakePublisher) Publish(ctx context.Context, body []byte, contentType string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bodies = append(p.bodies, body)
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.bodies)
}

func newTestService(t *testing.T, store *fakeStore) (*Service, *fakePublisher) {
	t.Helper()
	publisher := &fakePublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, publisher, logger), publisher
}
