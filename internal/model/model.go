package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Profile roles. A profile is either the paying or the working side of a
// contract, fixed at creation.
const (
	RoleClient     = "client"
	RoleContractor = "contractor"
)

// Contract statuses. The progression is one-way: new -> in_progress -> terminated.
const (
	ContractStatusNew        = "new"
	ContractStatusInProgress = "in_progress"
	ContractStatusTerminated = "terminated"
)

// Profile is a party in the marketplace. Balance is never negative; every
// mutation goes through the ledger engines.
type Profile struct {
	ID         int64           `db:"id" json:"id"`
	FirstName  string          `db:"first_name" json:"firstName"`
	LastName   string          `db:"last_name" json:"lastName"`
	Profession string          `db:"profession" json:"profession"`
	Role       string          `db:"role" json:"role"`
	Balance    decimal.Decimal `db:"balance" json:"balance"`
}

// Contract is an agreement between exactly one client and one contractor.
type Contract struct {
	ID           int64  `db:"id" json:"id"`
	ClientID     int64  `db:"client_id" json:"clientId"`
	ContractorID int64  `db:"contractor_id" json:"contractorId"`
	Terms        string `db:"terms" json:"terms"`
	Status       string `db:"status" json:"status"`
}

// Job is a billable unit of work under a contract. Paid transitions from
// false to true exactly once; PaymentDate is set at commit time.
type Job struct {
	ID          int64           `db:"id" json:"id"`
	ContractID  int64           `db:"contract_id" json:"contractId"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Paid        bool            `db:"paid" json:"paid"`
	PaymentDate *time.Time      `db:"payment_date" json:"paymentDate"`
}
