package ledger

import (
	"context"
	"time"
)

// DefaultBestClientsLimit is used when the caller does not supply a limit.
const DefaultBestClientsLimit = 2

// BestProfession returns the profession with the highest total earnings from
// jobs paid within the inclusive [start, end] date range on terminated
// contracts, or nil when no job qualifies. On an exact tie either profession
// may be returned.
func (s *Service) BestProfession(ctx context.Context, start, end time.Time) (*ProfessionEarnings, error) {
	if start.After(end) {
		return nil, ErrInvalidRange
	}
	return s.store.BestProfession(ctx, start, end)
}

// BestClients returns the clients who paid the most within the inclusive
// [start, end] date range on terminated contracts, ordered by total paid
// descending, at most limit rows.
func (s *Service) BestClients(ctx context.Context, start, end time.Time, limit int) ([]ClientPayments, error) {
	if start.After(end) {
		return nil, ErrInvalidRange
	}
	if limit <= 0 {
		limit = DefaultBestClientsLimit
	}
	return s.store.BestClients(ctx, start, end, limit)
}
