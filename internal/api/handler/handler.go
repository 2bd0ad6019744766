package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cuongbtq/marketplace-ledger/internal/ledger"
	"github.com/cuongbtq/marketplace-ledger/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ProfileContextKey is where the authentication middleware stores the
// resolved *model.Profile in the gin context.
const ProfileContextKey = "profile"

// PaymentService is the money-moving part of the ledger engine.
type PaymentService interface {
	PayJob(ctx context.Context, jobID, callerID int64) (*ledger.PaymentResult, error)
	Deposit(ctx context.Context, targetID, callerID int64, amount decimal.Decimal) error
}

// ReportService is the read-only reporting part of the ledger engine.
type ReportService interface {
	BestProfession(ctx context.Context, start, end time.Time) (*ledger.ProfessionEarnings, error)
	BestClients(ctx context.Context, start, end time.Time, limit int) ([]ledger.ClientPayments, error)
}

// LedgerReader serves the caller-scoped contract and job listings.
type LedgerReader interface {
	GetContractForProfile(ctx context.Context, contractID, profileID int64) (*model.Contract, error)
	ListContractsForProfile(ctx context.Context, profileID int64) ([]model.Contract, error)
	ListUnpaidJobsForProfile(ctx context.Context, profileID int64) ([]model.Job, error)
}

// Dependencies holds all dependencies needed by handlers.
type Dependencies struct {
	Logger   *slog.Logger
	Payments PaymentService
	Reports  ReportService
	Reader   LedgerReader
}

// currentProfile returns the profile resolved by the authentication
// middleware. Routes behind the middleware always have one.
func currentProfile(c *gin.Context) *model.Profile {
	v, ok := c.Get(ProfileContextKey)
	if !ok {
		return nil
	}
	profile, _ := v.(*model.Profile)
	return profile
}

// respondError maps engine errors to the HTTP status taxonomy. Store-level
// failures are not retried here; the caller retries the whole operation.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, ledger.ErrJobNotFound),
		errors.Is(err, ledger.ErrContractNotFound),
		errors.Is(err, ledger.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, ledger.ErrNotContractClient),
		errors.Is(err, ledger.ErrDepositForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})

	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrDepositLimitExceeded),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, ledger.ErrStoreUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		logger.Error("Store operation failed", slog.String("error", err.Error()))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})

	default:
		logger.Error("Unhandled engine error", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
