package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cuongbtq/marketplace-ledger/internal/ledger"
	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// AdminHandler serves the reporting endpoints.
type AdminHandler struct {
	logger  *slog.Logger
	reports ReportService
}

// NewAdminHandler creates a new AdminHandler instance.
func NewAdminHandler(deps *Dependencies) *AdminHandler {
	return &AdminHandler{
		logger:  deps.Logger,
		reports: deps.Reports,
	}
}

// BestProfession handles GET /admin/best-profession?start=&end=
// Responds with {profession, earnings}, or {} when no job qualifies.
func (h *AdminHandler) BestProfession(c *gin.Context) {
	start, end, ok := h.dateRange(c)
	if !ok {
		return
	}

	row, err := h.reports.BestProfession(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if row == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, row)
}

// BestClients handles GET /admin/best-clients?start=&end=&limit=
// Responds with an ordered array, empty when no job qualifies.
func (h *AdminHandler) BestClients(c *gin.Context) {
	start, end, ok := h.dateRange(c)
	if !ok {
		return
	}

	limit := ledger.DefaultBestClientsLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	rows, err := h.reports.BestClients(c.Request.Context(), start, end, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if rows == nil {
		rows = []ledger.ClientPayments{}
	}
	c.JSON(http.StatusOK, rows)
}

// dateRange parses the inclusive start/end query parameters. On failure it
// writes the 400 response itself and returns ok = false.
func (h *AdminHandler) dateRange(c *gin.Context) (start, end time.Time, ok bool) {
	start, err := time.Parse(dateLayout, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be a YYYY-MM-DD date"})
		return time.Time{}, time.Time{}, false
	}

	end, err = time.Parse(dateLayout, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be a YYYY-MM-DD date"})
		return time.Time{}, time.Time{}, false
	}

	return start, end, true
}
