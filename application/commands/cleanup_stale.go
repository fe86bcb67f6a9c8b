package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"invoiceflow/application/ports"
	"invoiceflow/domain/core/entities"
)

// CleanupStaleDocumentsCommand marks documents that have been stuck in
// the processing state past a threshold as failed so they can be
// retried. A worker that crashed mid-pipeline leaves its document in
// processing forever otherwise.
type CleanupStaleDocumentsCommand struct {
	OlderThan time.Duration `json:"older_than"`
	Limit     int           `json:"limit"`
}

// Validate validates the command
func (cmd CleanupStaleDocumentsCommand) Validate() error {
	if cmd.OlderThan <= 0 {
		return errors.New("older-than threshold must be positive")
	}
	return nil
}

// CleanupStaleDocumentsResult reports what the cleanup pass did
type CleanupStaleDocumentsResult struct {
	Examined int `json:"examined"`
	Reverted int `json:"reverted"`
}

// CleanupStaleDocumentsHandler scans for abandoned processing
// documents and reverts them
type CleanupStaleDocumentsHandler struct {
	docRepo ports.DocumentRepository
	lock    ports.ProcessingLock
	logger  *zap.Logger
}

// NewCleanupStaleDocumentsHandler creates a new cleanup handler
func NewCleanupStaleDocumentsHandler(
	docRepo ports.DocumentRepository,
	lock ports.ProcessingLock,
	logger *zap.Logger,
) *CleanupStaleDocumentsHandler {
	return &CleanupStaleDocumentsHandler{
		docRepo: docRepo,
		lock:    lock,
		logger:  logger,
	}
}

// Handle executes the cleanup command
func (h *CleanupStaleDocumentsHandler) Handle(ctx context.Context, cmd CleanupStaleDocumentsCommand) (*CleanupStaleDocumentsResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("invalid command: %w", err)
	}

	limit := cmd.Limit
	if limit <= 0 {
		limit = 100
	}

	docs, err := h.docRepo.ListByStatus(ctx, entities.StatusProcessing, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list processing documents: %w", err)
	}

	result := &CleanupStaleDocumentsResult{Examined: len(docs)}
	cutoff := time.Now().UTC().Add(-cmd.OlderThan)

	for _, doc := range docs {
		if doc.UpdatedAt().After(cutoff) {
			continue
		}

		if err := doc.MarkFailed("cleanup", "processing exceeded stale threshold"); err != nil {
			h.logger.Warn("could not revert stale document",
				zap.String("document_id", doc.ID().String()),
				zap.Error(err),
			)
			continue
		}
		if err := h.docRepo.Save(ctx, doc); err != nil {
			h.logger.Error("failed to save reverted document",
				zap.String("document_id", doc.ID().String()),
				zap.Error(err),
			)
			continue
		}
		doc.MarkEventsAsCommitted()

		// Best effort: the crashed worker's lock may still be held
		if err := h.lock.Release(ctx, doc.ID()); err != nil {
			h.logger.Debug("stale lock release failed",
				zap.String("document_id", doc.ID().String()),
				zap.Error(err),
			)
		}

		result.Reverted++
		h.logger.Info("reverted stale processing document",
			zap.String("document_id", doc.ID().String()),
			zap.Time("last_update", doc.UpdatedAt()),
		)
	}

	return result, nil
}
