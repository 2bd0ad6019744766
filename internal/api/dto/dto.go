package dto

import "github.com/shopspring/decimal"

// DepositRequest is the body of POST /balances/deposit/:userId.
type DepositRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}
