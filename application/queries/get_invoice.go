package queries

import (
	"errors"

	"invoiceflow/domain/invoice"
)

// GetInvoiceQuery represents a query to get one extracted invoice
type GetInvoiceQuery struct {
	DocumentID string
}

// Validate validates the GetInvoiceQuery
func (q GetInvoiceQuery) Validate() error {
	if q.DocumentID == "" {
		return errors.New("document ID is required")
	}
	return nil
}

// GetInvoiceResult represents the result of getting an invoice
type GetInvoiceResult struct {
	DocumentID string          `json:"documentId"`
	Status     string          `json:"status"`
	Bucket     string          `json:"bucket"`
	Key        string          `json:"key"`
	FailReason string          `json:"failReason,omitempty"`
	Record     *invoice.Record `json:"record,omitempty"`
	CreatedAt  string          `json:"createdAt"`
	UpdatedAt  string          `json:"updatedAt"`
}

// GetDocumentStatusQuery represents a query for just the pipeline
// status of a document
type GetDocumentStatusQuery struct {
	DocumentID string
}

// Validate validates the GetDocumentStatusQuery
func (q GetDocumentStatusQuery) Validate() error {
	if q.DocumentID == "" {
		return errors.New("document ID is required")
	}
	return nil
}

// GetDocumentStatusResult represents the document status
type GetDocumentStatusResult struct {
	DocumentID string `json:"documentId"`
	Status     string `json:"status"`
	FailReason string `json:"failReason,omitempty"`
	UpdatedAt  string `json:"updatedAt"`
}
