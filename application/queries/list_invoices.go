package queries

import "errors"

// ListInvoicesQuery represents a query to list stored invoices
type ListInvoicesQuery struct {
	Vendor string
	Limit  int
	Offset int
	Order  string // "asc", "desc"
}

// Validate validates the query
func (q ListInvoicesQuery) Validate() error {
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Offset < 0 {
		return errors.New("offset cannot be negative")
	}
	if q.Order != "" && q.Order != "asc" && q.Order != "desc" {
		return errors.New("invalid sort order")
	}
	return nil
}

// ListInvoicesResult represents the result of listing invoices
type ListInvoicesResult struct {
	Invoices   []InvoiceSummary `json:"invoices"`
	TotalCount int              `json:"totalCount"`
	Limit      int              `json:"limit"`
	Offset     int              `json:"offset"`
}

// InvoiceSummary represents a summary of one extracted invoice
type InvoiceSummary struct {
	DocumentID    string   `json:"documentId"`
	InvoiceNumber *string  `json:"invoiceNumber"`
	InvoiceDate   *string  `json:"invoiceDate"`
	VendorName    *string  `json:"vendorName"`
	TotalAmount   *float64 `json:"totalAmount"`
	Currency      string   `json:"currency"`
	Confidence    float64  `json:"confidence"`
	StoredAt      string   `json:"storedAt"`
}
