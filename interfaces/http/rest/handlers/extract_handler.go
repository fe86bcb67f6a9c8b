package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"invoiceflow/application/services"
	"invoiceflow/pkg/common"
	appErrors "invoiceflow/pkg/errors"
)

// maxExtractBodyBytes caps synchronous extraction payloads at 20 MiB
const maxExtractBodyBytes = 20 << 20

// ExtractHandler runs field extraction synchronously over a posted block
// collection, without touching storage
type ExtractHandler struct {
	service *services.ExtractionService
	logger  *zap.Logger
}

// NewExtractHandler creates a new extract handler
func NewExtractHandler(service *services.ExtractionService, logger *zap.Logger) *ExtractHandler {
	return &ExtractHandler{
		service: service,
		logger:  logger,
	}
}

// Extract handles POST /extract. The body is either a bare block array or
// an object with a "blocks" field, matching the analysis service's output.
func (h *ExtractHandler) Extract(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxExtractBodyBytes))
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Failed to read request body")
		return
	}

	payload := body
	var wrapper struct {
		Blocks json.RawMessage `json:"blocks"`
	}
	if err := json.Unmarshal(body, &wrapper); err == nil && wrapper.Blocks != nil {
		payload = wrapper.Blocks
	}

	record, err := h.service.ExtractFromJSON(r.Context(), payload)
	if err != nil {
		if appErrors.IsInvalidInput(err) {
			common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.InvalidInput, err.Error())
			return
		}
		h.logger.Error("extraction failed", zap.Error(err))
		common.RespondError(w, http.StatusInternalServerError, common.StandardErrorCodes.InternalError, "Extraction failed")
		return
	}

	common.RespondJSON(w, http.StatusOK, record)
}
