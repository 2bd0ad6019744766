package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cuongbtq/marketplace-ledger/internal/model"
	"github.com/gin-gonic/gin"
)

// ContractHandler handles contract-related HTTP requests.
type ContractHandler struct {
	logger *slog.Logger
	reader LedgerReader
}

// NewContractHandler creates a new ContractHandler instance.
func NewContractHandler(deps *Dependencies) *ContractHandler {
	return &ContractHandler{
		logger: deps.Logger,
		reader: deps.Reader,
	}
}

// GetContract handles GET /contracts/:id
// Returns the contract only when the caller is one of its parties.
func (h *ContractHandler) GetContract(c *gin.Context) {
	contractID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return
	}

	profile := currentProfile(c)

	contract, err := h.reader.GetContractForProfile(c.Request.Context(), contractID, profile.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, contract)
}

// ListContracts handles GET /contracts
// Returns the caller's non-terminated contracts.
func (h *ContractHandler) ListContracts(c *gin.Context) {
	profile := currentProfile(c)

	contracts, err := h.reader.ListContractsForProfile(c.Request.Context(), profile.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if contracts == nil {
		contracts = []model.Contract{}
	}
	c.JSON(http.StatusOK, contracts)
}
