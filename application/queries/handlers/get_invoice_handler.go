package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"invoiceflow/application/ports"
	"invoiceflow/application/queries"
	"invoiceflow/domain/core/entities"
	"invoiceflow/domain/core/valueobjects"
	appErrors "invoiceflow/pkg/errors"
	"invoiceflow/pkg/utils"
)

// GetInvoiceHandler handles single invoice queries
type GetInvoiceHandler struct {
	docRepo     ports.DocumentRepository
	invoiceRepo ports.InvoiceRepository
	logger      *zap.Logger
}

// NewGetInvoiceHandler creates a new get invoice handler
func NewGetInvoiceHandler(
	docRepo ports.DocumentRepository,
	invoiceRepo ports.InvoiceRepository,
	logger *zap.Logger,
) *GetInvoiceHandler {
	return &GetInvoiceHandler{
		docRepo:     docRepo,
		invoiceRepo: invoiceRepo,
		logger:      logger,
	}
}

// Handle executes the get invoice query
func (h *GetInvoiceHandler) Handle(ctx context.Context, query queries.GetInvoiceQuery) (*queries.GetInvoiceResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	id, err := valueobjects.NewDocumentIDFromString(query.DocumentID)
	if err != nil {
		return nil, appErrors.NewValidationError("invalid document ID: " + query.DocumentID)
	}

	doc, err := h.docRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &queries.GetInvoiceResult{
		DocumentID: doc.ID().String(),
		Status:     string(doc.Status()),
		Bucket:     doc.Location().Bucket(),
		Key:        doc.Location().Key(),
		FailReason: doc.FailReason(),
		CreatedAt:  utils.FormatRFC3339(doc.CreatedAt()),
		UpdatedAt:  utils.FormatRFC3339(doc.UpdatedAt()),
	}

	// Records exist only for processed documents
	if doc.Status() == entities.StatusProcessed {
		record, err := h.invoiceRepo.GetByDocumentID(ctx, id)
		if err != nil {
			if !appErrors.IsNotFound(err) {
				return nil, err
			}
			h.logger.Warn("processed document missing its record",
				zap.String("document_id", id.String()),
			)
		} else {
			result.Record = record
		}
	}

	return result, nil
}

// GetDocumentStatusHandler handles document status queries
type GetDocumentStatusHandler struct {
	docRepo ports.DocumentRepository
	logger  *zap.Logger
}

// NewGetDocumentStatusHandler creates a new status handler
func NewGetDocumentStatusHandler(docRepo ports.DocumentRepository, logger *zap.Logger) *GetDocumentStatusHandler {
	return &GetDocumentStatusHandler{
		docRepo: docRepo,
		logger:  logger,
	}
}

// Handle executes the status query
func (h *GetDocumentStatusHandler) Handle(ctx context.Context, query queries.GetDocumentStatusQuery) (*queries.GetDocumentStatusResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	id, err := valueobjects.NewDocumentIDFromString(query.DocumentID)
	if err != nil {
		return nil, appErrors.NewValidationError("invalid document ID: " + query.DocumentID)
	}

	doc, err := h.docRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &queries.GetDocumentStatusResult{
		DocumentID: doc.ID().String(),
		Status:     string(doc.Status()),
		FailReason: doc.FailReason(),
		UpdatedAt:  utils.FormatRFC3339(doc.UpdatedAt()),
	}, nil
}
