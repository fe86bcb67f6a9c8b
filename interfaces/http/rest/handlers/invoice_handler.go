package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"invoiceflow/application/commands"
	"invoiceflow/application/commands/bus"
	"invoiceflow/application/queries"
	querybus "invoiceflow/application/queries/bus"
	"invoiceflow/pkg/common"
	appErrors "invoiceflow/pkg/errors"
	"invoiceflow/pkg/utils"
)

const maxBulkDeleteBodyBytes = 64 << 10

// InvoiceHandler handles invoice-related HTTP requests
type InvoiceHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	logger     *zap.Logger
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	logger *zap.Logger,
) *InvoiceHandler {
	return &InvoiceHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		logger:     logger,
	}
}

// GetInvoice handles GET /invoices/{documentID}
func (h *InvoiceHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	documentID, ok := h.documentIDParam(w, r)
	if !ok {
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetInvoiceQuery{DocumentID: documentID})
	if err != nil {
		h.logger.Error("failed to get invoice",
			zap.String("document_id", documentID),
			zap.Error(err))
		if appErrors.IsNotFound(err) {
			common.RespondError(w, http.StatusNotFound, common.StandardErrorCodes.NotFound, "Invoice not found")
		} else {
			common.RespondError(w, http.StatusInternalServerError, common.StandardErrorCodes.InternalError, "Failed to retrieve invoice")
		}
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// GetStatus handles GET /invoices/{documentID}/status
func (h *InvoiceHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	documentID, ok := h.documentIDParam(w, r)
	if !ok {
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetDocumentStatusQuery{DocumentID: documentID})
	if err != nil {
		h.logger.Error("failed to get document status",
			zap.String("document_id", documentID),
			zap.Error(err))
		if appErrors.IsNotFound(err) {
			common.RespondError(w, http.StatusNotFound, common.StandardErrorCodes.NotFound, "Document not found")
		} else {
			common.RespondError(w, http.StatusInternalServerError, common.StandardErrorCodes.InternalError, "Failed to retrieve status")
		}
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// ListInvoices handles GET /invoices
func (h *InvoiceHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	params := common.ExtractPaginationParams(r)

	query := queries.ListInvoicesQuery{
		Vendor: r.URL.Query().Get("vendor"),
		Limit:  params.PageSize,
		Offset: params.CalculateOffset(),
		Order:  params.Order,
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.logger.Error("failed to list invoices", zap.Error(err))
		common.RespondError(w, http.StatusInternalServerError, common.StandardErrorCodes.InternalError, "Failed to list invoices")
		return
	}

	listResult, ok := result.(*queries.ListInvoicesResult)
	if !ok {
		common.RespondJSON(w, http.StatusOK, result)
		return
	}

	common.RespondWithMeta(w, http.StatusOK, listResult.Invoices, &common.MetaInfo{
		RequestID:  common.ExtractRequestID(r),
		Timestamp:  utils.NowRFC3339(),
		Pagination: common.BuildPaginationMeta(params.Page, params.PageSize, listResult.TotalCount),
	})
}

// Reprocess handles POST /invoices/{documentID}/reprocess
func (h *InvoiceHandler) Reprocess(w http.ResponseWriter, r *http.Request) {
	documentID, ok := h.documentIDParam(w, r)
	if !ok {
		return
	}

	cmd := commands.ReprocessDocumentCommand{
		DocumentID: documentID,
		RequestID:  common.ExtractRequestID(r),
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.logger.Error("failed to reprocess document",
			zap.String("document_id", documentID),
			zap.Error(err))
		switch {
		case appErrors.IsNotFound(err):
			common.RespondError(w, http.StatusNotFound, common.StandardErrorCodes.NotFound, "Document not found")
		case appErrors.IsConflict(err):
			common.RespondError(w, http.StatusConflict, common.StandardErrorCodes.Conflict, "Document is already being processed")
		default:
			common.RespondError(w, http.StatusInternalServerError, common.StandardErrorCodes.InternalError, "Failed to reprocess document")
		}
		return
	}

	common.RespondJSON(w, http.StatusAccepted, map[string]string{
		"message":    "Reprocessing started",
		"documentId": documentID,
		"startedAt":  utils.NowRFC3339(),
	})
}

// DeleteInvoice handles DELETE /invoices/{documentID}
func (h *InvoiceHandler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	documentID, ok := h.documentIDParam(w, r)
	if !ok {
		return
	}

	deleteObject := r.URL.Query().Get("delete_object") == "true"

	cmd := commands.DeleteInvoiceCommand{
		DocumentID:   documentID,
		DeleteObject: deleteObject,
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.logger.Error("failed to delete invoice",
			zap.String("document_id", documentID),
			zap.Error(err))
		if appErrors.IsNotFound(err) {
			common.RespondError(w, http.StatusNotFound, common.StandardErrorCodes.NotFound, "Invoice not found")
		} else {
			common.RespondError(w, http.StatusInternalServerError, common.StandardErrorCodes.InternalError, "Failed to delete invoice")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BulkDeleteInvoices handles POST /invoices/bulk-delete
func (h *InvoiceHandler) BulkDeleteInvoices(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentIDs []string `json:"document_ids" validate:"required,min=1,max=50,dive,uuid"`
	}
	if err := common.ParseJSONBody(r, &req, maxBulkDeleteBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, "Validation error: "+err.Error())
		return
	}

	cmd := commands.BulkDeleteInvoicesCommand{DocumentIDs: req.DocumentIDs}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.logger.Error("failed to bulk delete invoices", zap.Error(err))
		if appErrors.IsValidation(err) {
			common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		} else {
			common.RespondError(w, http.StatusInternalServerError, common.StandardErrorCodes.InternalError, "Failed to delete invoices")
		}
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Bulk delete completed",
	})
}

func (h *InvoiceHandler) documentIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	documentID := chi.URLParam(r, "documentID")
	if documentID == "" {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Document ID is required")
		return "", false
	}
	if _, err := uuid.Parse(documentID); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.InvalidInput, "Invalid document ID format")
		return "", false
	}
	return documentID, true
}
