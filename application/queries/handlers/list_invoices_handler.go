package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"invoiceflow/application/ports"
	"invoiceflow/application/queries"
	"invoiceflow/pkg/utils"
)

// ListInvoicesHandler handles invoice listing queries
type ListInvoicesHandler struct {
	invoiceRepo ports.InvoiceRepository
	logger      *zap.Logger
}

// NewListInvoicesHandler creates a new list invoices handler
func NewListInvoicesHandler(invoiceRepo ports.InvoiceRepository, logger *zap.Logger) *ListInvoicesHandler {
	return &ListInvoicesHandler{
		invoiceRepo: invoiceRepo,
		logger:      logger,
	}
}

// DefaultListLimit applies when the query does not set one
const DefaultListLimit = 50

// Handle executes the list invoices query
func (h *ListInvoicesHandler) Handle(ctx context.Context, query queries.ListInvoicesQuery) (*queries.ListInvoicesResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	limit := query.Limit
	if limit == 0 {
		limit = DefaultListLimit
	}

	stored, err := h.invoiceRepo.List(ctx, ports.ListCriteria{
		Vendor:    query.Vendor,
		Limit:     limit,
		Offset:    query.Offset,
		OrderDesc: query.Order != "asc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	result := &queries.ListInvoicesResult{
		Invoices:   make([]queries.InvoiceSummary, 0, len(stored)),
		TotalCount: len(stored),
		Limit:      limit,
		Offset:     query.Offset,
	}

	for _, item := range stored {
		record := item.Record
		result.Invoices = append(result.Invoices, queries.InvoiceSummary{
			DocumentID:    item.DocumentID.String(),
			InvoiceNumber: record.InvoiceData.InvoiceNumber,
			InvoiceDate:   record.InvoiceData.InvoiceDate,
			VendorName:    record.InvoiceData.VendorName,
			TotalAmount:   record.InvoiceData.TotalAmount,
			Currency:      record.InvoiceData.Currency,
			Confidence:    record.Confidence.Overall,
			StoredAt:      utils.FormatRFC3339(item.StoredAt),
		})
	}

	return result, nil
}
