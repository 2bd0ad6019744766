package audit

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cuongbtq/marketplace-ledger/internal/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEventBody(t *testing.T) []byte {
	t.Helper()
	jobID := int64(100)
	contractorID := int64(2)
	body, err := json.Marshal(&ledger.PaymentEvent{
		EventID:      uuid.New().String(),
		Kind:         ledger.EventKindJobPaid,
		JobID:        &jobID,
		ClientID:     1,
		ContractorID: &contractorID,
		Amount:       decimal.RequireFromString("150"),
		OccurredAt:   time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return body
}

func TestParseEvent(t *testing.T) {
	event, err := parseEvent(validEventBody(t))
	require.NoError(t, err)

	assert.Equal(t, ledger.EventKindJobPaid, event.Kind)
	assert.Equal(t, int64(1), event.ClientID)
	require.NotNil(t, event.JobID)
	assert.Equal(t, int64(100), *event.JobID)
	assert.True(t, event.Amount.Equal(decimal.RequireFromString("150")))
}

func TestParseEvent_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body []byte
	}{
		{name: "not json", body: []byte(`{"event_id":`)},
		{name: "event id not a uuid", body: mutate(t, func(e *ledger.PaymentEvent) { e.EventID = "42" })},
		{name: "unknown kind", body: mutate(t, func(e *ledger.PaymentEvent) { e.Kind = "refund" })},
		{name: "zero amount", body: mutate(t, func(e *ledger.PaymentEvent) { e.Amount = decimal.Zero })},
		{name: "negative amount", body: mutate(t, func(e *ledger.PaymentEvent) { e.Amount = decimal.RequireFromString("-1") })},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseEvent(tt.body)
			assert.ErrorIs(t, err, ErrMalformedEvent)
		})
	}
}

// mutate builds a valid event, applies fn and re-marshals it.
func mutate(t *testing.T, fn func(*ledger.PaymentEvent)) []byte {
	t.Helper()

	var event ledger.PaymentEvent
	require.NoError(t, json.Unmarshal(validEventBody(t), &event))
	fn(&event)

	body, err := json.Marshal(&event)
	require.NoError(t, err)
	return body
}

func TestDepositEventParses(t *testing.T) {
	body, err := json.Marshal(&ledger.PaymentEvent{
		EventID:    uuid.New().String(),
		Kind:       ledger.EventKindDeposit,
		ClientID:   4,
		Amount:     decimal.RequireFromString("25.50"),
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	event, parseErr := parseEvent(body)
	require.NoError(t, parseErr)
	assert.Equal(t, ledger.EventKindDeposit, event.Kind)
	assert.Nil(t, event.JobID)
	assert.Nil(t, event.ContractorID)
}
