package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cuongbtq/marketplace-ledger/internal/api/dto"
	"github.com/gin-gonic/gin"
)

// BalanceHandler handles deposit HTTP requests.
type BalanceHandler struct {
	logger   *slog.Logger
	payments PaymentService
}

// NewBalanceHandler creates a new BalanceHandler instance.
func NewBalanceHandler(deps *Dependencies) *BalanceHandler {
	return &BalanceHandler{
		logger:   deps.Logger,
		payments: deps.Payments,
	}
}

// Deposit handles POST /balances/deposit/:userId
// Applies a self-deposit bounded by 25% of the caller's unpaid job total.
func (h *BalanceHandler) Deposit(c *gin.Context) {
	targetID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId must be an integer"})
		return
	}

	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid deposit body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	profile := currentProfile(c)

	h.logger.Info("Deposit called",
		slog.Int64("target_id", targetID),
		slog.Int64("profile_id", profile.ID),
		slog.String("amount", req.Amount.String()),
	)

	if err := h.payments.Deposit(c.Request.Context(), targetID, profile.ID, req.Amount); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
