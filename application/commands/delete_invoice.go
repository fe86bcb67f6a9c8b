package commands

import (
	"errors"
	"strings"
)

// DeleteInvoiceCommand removes a stored invoice record together with
// its document registration
type DeleteInvoiceCommand struct {
	DocumentID   string `json:"document_id" validate:"required,uuid"`
	DeleteObject bool   `json:"delete_object"`
}

// Validate validates the command
func (cmd DeleteInvoiceCommand) Validate() error {
	if strings.TrimSpace(cmd.DocumentID) == "" {
		return errors.New("document ID is required")
	}
	return nil
}

// BulkDeleteInvoicesCommand removes multiple invoice records in one
// operation
type BulkDeleteInvoicesCommand struct {
	DocumentIDs []string `json:"document_ids" validate:"required,min=1,max=50,dive,uuid"`
}

// Validate validates the command
func (cmd BulkDeleteInvoicesCommand) Validate() error {
	if len(cmd.DocumentIDs) == 0 {
		return errors.New("at least one document ID is required")
	}
	if len(cmd.DocumentIDs) > MaxBulkDeleteSize {
		return errors.New("too many document IDs in one request")
	}
	return nil
}

// MaxBulkDeleteSize bounds a single bulk delete request
const MaxBulkDeleteSize = 50

// BulkDeleteInvoicesResult reports the outcome of a bulk delete
type BulkDeleteInvoicesResult struct {
	DeletedCount int      `json:"deleted_count"`
	FailedIDs    []string `json:"failed_ids,omitempty"`
	Errors       []string `json:"errors,omitempty"`
}
