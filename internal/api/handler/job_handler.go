package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cuongbtq/marketplace-ledger/internal/model"
	"github.com/gin-gonic/gin"
)

// JobHandler handles job listing and payment HTTP requests.
type JobHandler struct {
	logger   *slog.Logger
	reader   LedgerReader
	payments PaymentService
}

// NewJobHandler creates a new JobHandler instance.
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:   deps.Logger,
		reader:   deps.Reader,
		payments: deps.Payments,
	}
}

// ListUnpaidJobs handles GET /jobs/unpaid
// Returns the caller's unpaid jobs on in-progress contracts.
func (h *JobHandler) ListUnpaidJobs(c *gin.Context) {
	profile := currentProfile(c)

	jobs, err := h.reader.ListUnpaidJobsForProfile(c.Request.Context(), profile.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if jobs == nil {
		jobs = []model.Job{}
	}
	c.JSON(http.StatusOK, jobs)
}

// PayJob handles POST /jobs/:job_id/pay
// Moves the job price from the client to the contractor and marks the job
// paid, all in one transaction. A replay of a committed payment gets 404.
func (h *JobHandler) PayJob(c *gin.Context) {
	jobID, err := strconv.ParseInt(c.Param("job_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job_id must be an integer"})
		return
	}

	profile := currentProfile(c)

	h.logger.Info("PayJob called",
		slog.Int64("job_id", jobID),
		slog.Int64("profile_id", profile.ID),
	)

	if _, err := h.payments.PayJob(c.Request.Context(), jobID, profile.ID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
