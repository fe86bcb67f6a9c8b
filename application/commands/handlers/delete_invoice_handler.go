package handlers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"invoiceflow/application/commands"
	"invoiceflow/application/ports"
	"invoiceflow/domain/core/valueobjects"
	"invoiceflow/domain/events"
	appErrors "invoiceflow/pkg/errors"
)

// DeleteInvoiceHandler handles invoice deletion commands
type DeleteInvoiceHandler struct {
	docRepo     ports.DocumentRepository
	invoiceRepo ports.InvoiceRepository
	store       ports.ObjectStore
	eventStore  ports.EventStore
	eventBus    ports.EventBus
	logger      *zap.Logger
}

// NewDeleteInvoiceHandler creates a new delete invoice handler
func NewDeleteInvoiceHandler(
	docRepo ports.DocumentRepository,
	invoiceRepo ports.InvoiceRepository,
	store ports.ObjectStore,
	eventStore ports.EventStore,
	eventBus ports.EventBus,
	logger *zap.Logger,
) *DeleteInvoiceHandler {
	return &DeleteInvoiceHandler{
		docRepo:     docRepo,
		invoiceRepo: invoiceRepo,
		store:       store,
		eventStore:  eventStore,
		eventBus:    eventBus,
		logger:      logger,
	}
}

// Handle executes the delete invoice command
func (h *DeleteInvoiceHandler) Handle(ctx context.Context, cmd commands.DeleteInvoiceCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("invalid command: %w", err)
	}

	id, err := valueobjects.NewDocumentIDFromString(cmd.DocumentID)
	if err != nil {
		return appErrors.NewValidationError("invalid document ID: " + cmd.DocumentID)
	}

	doc, err := h.docRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := h.invoiceRepo.Delete(ctx, id); err != nil && !appErrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete invoice record: %w", err)
	}

	if cmd.DeleteObject {
		if err := h.store.Delete(ctx, doc.Location()); err != nil {
			// Orphaned objects are cheaper than a half-deleted record
			h.logger.Warn("failed to delete stored object",
				zap.String("document_id", id.String()),
				zap.String("location", doc.Location().String()),
				zap.Error(err),
			)
		}
	}

	if err := h.docRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	// Clear the audit trail for the removed aggregate
	if err := h.eventStore.DeleteEvents(ctx, id.String()); err != nil {
		h.logger.Warn("failed to delete audit events",
			zap.String("document_id", id.String()),
			zap.Error(err),
		)
	}

	event := events.NewInvoiceDeleted(id, time.Now().UTC())
	if err := h.eventBus.Publish(ctx, event); err != nil {
		h.logger.Error("failed to publish deletion event",
			zap.String("document_id", id.String()),
			zap.Error(err),
		)
	}

	h.logger.Info("invoice deleted",
		zap.String("document_id", id.String()),
		zap.Bool("object_deleted", cmd.DeleteObject),
	)

	return nil
}
