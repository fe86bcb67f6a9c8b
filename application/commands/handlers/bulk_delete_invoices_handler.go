package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"invoiceflow/application/commands"
	"invoiceflow/application/ports"
	"invoiceflow/domain/core/valueobjects"
	appErrors "invoiceflow/pkg/errors"
)

// BulkDeleteInvoicesHandler handles bulk invoice deletion. Validation
// happens upfront for every ID; deletion is then best effort per
// document so one bad record does not abort the batch.
type BulkDeleteInvoicesHandler struct {
	docRepo     ports.DocumentRepository
	invoiceRepo ports.InvoiceRepository
	eventStore  ports.EventStore
	logger      *zap.Logger
}

// NewBulkDeleteInvoicesHandler creates a new bulk delete handler
func NewBulkDeleteInvoicesHandler(
	docRepo ports.DocumentRepository,
	invoiceRepo ports.InvoiceRepository,
	eventStore ports.EventStore,
	logger *zap.Logger,
) *BulkDeleteInvoicesHandler {
	return &BulkDeleteInvoicesHandler{
		docRepo:     docRepo,
		invoiceRepo: invoiceRepo,
		eventStore:  eventStore,
		logger:      logger,
	}
}

// Handle executes the bulk delete command
func (h *BulkDeleteInvoicesHandler) Handle(ctx context.Context, cmd commands.BulkDeleteInvoicesCommand) (*commands.BulkDeleteInvoicesResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("invalid command: %w", err)
	}

	result := &commands.BulkDeleteInvoicesResult{}
	ids := make([]valueobjects.DocumentID, 0, len(cmd.DocumentIDs))

	for _, raw := range cmd.DocumentIDs {
		id, err := valueobjects.NewDocumentIDFromString(raw)
		if err != nil {
			result.FailedIDs = append(result.FailedIDs, raw)
			result.Errors = append(result.Errors, fmt.Sprintf("invalid document ID %s", raw))
			continue
		}
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		result.Errors = append(result.Errors, "all provided document IDs are invalid")
		return result, nil
	}

	deletable := make([]valueobjects.DocumentID, 0, len(ids))
	for _, id := range ids {
		if _, err := h.docRepo.GetByID(ctx, id); err != nil {
			result.FailedIDs = append(result.FailedIDs, id.String())
			if appErrors.IsNotFound(err) {
				result.Errors = append(result.Errors, fmt.Sprintf("document %s not found", id.String()))
			} else {
				result.Errors = append(result.Errors, fmt.Sprintf("document %s lookup failed: %v", id.String(), err))
			}
			continue
		}
		deletable = append(deletable, id)
	}

	for _, id := range deletable {
		if err := h.invoiceRepo.Delete(ctx, id); err != nil && !appErrors.IsNotFound(err) {
			result.FailedIDs = append(result.FailedIDs, id.String())
			result.Errors = append(result.Errors, fmt.Sprintf("invoice %s delete failed: %v", id.String(), err))
			continue
		}
		if err := h.eventStore.DeleteEvents(ctx, id.String()); err != nil {
			h.logger.Warn("failed to delete audit events",
				zap.String("document_id", id.String()),
				zap.Error(err),
			)
		}
		result.DeletedCount++
	}

	// Remove document registrations in one batch
	if err := h.docRepo.DeleteBatch(ctx, deletable); err != nil {
		h.logger.Error("document batch delete failed", zap.Error(err))
		result.Errors = append(result.Errors, fmt.Sprintf("document batch delete failed: %v", err))
	}

	h.logger.Info("bulk delete finished",
		zap.Int("requested", len(cmd.DocumentIDs)),
		zap.Int("deleted", result.DeletedCount),
		zap.Int("failed", len(result.FailedIDs)),
	)

	return result, nil
}
