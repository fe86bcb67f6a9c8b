package events

import (
	"time"

	"invoiceflow/domain/core/valueobjects"
)

// SourcePipeline is the event source name used when publishing to the bus
const SourcePipeline = "invoiceflow.pipeline"

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Document events

// DocumentUploaded is raised when a new document lands in object storage
// and is registered with the pipeline
type DocumentUploaded struct {
	BaseEvent
	DocumentID valueobjects.DocumentID `json:"document_id"`
	Bucket     string                  `json:"bucket"`
	Key        string                  `json:"key"`
}

// NewDocumentUploaded creates a DocumentUploaded event
func NewDocumentUploaded(documentID valueobjects.DocumentID, location valueobjects.DocumentLocation, timestamp time.Time) DocumentUploaded {
	return DocumentUploaded{
		BaseEvent: BaseEvent{
			AggregateID: documentID.String(),
			EventType:   "document.uploaded",
			Timestamp:   timestamp,
			Version:     1,
		},
		DocumentID: documentID,
		Bucket:     location.Bucket(),
		Key:        location.Key(),
	}
}

// DocumentProcessingStarted is raised when analysis of a document begins
type DocumentProcessingStarted struct {
	BaseEvent
	DocumentID valueobjects.DocumentID `json:"document_id"`
}

// NewDocumentProcessingStarted creates a DocumentProcessingStarted event
func NewDocumentProcessingStarted(documentID valueobjects.DocumentID, timestamp time.Time) DocumentProcessingStarted {
	return DocumentProcessingStarted{
		BaseEvent: BaseEvent{
			AggregateID: documentID.String(),
			EventType:   "document.processing_started",
			Timestamp:   timestamp,
			Version:     1,
		},
		DocumentID: documentID,
	}
}

// DocumentProcessed is raised when extraction completed and the invoice
// record was persisted
type DocumentProcessed struct {
	BaseEvent
	DocumentID    valueobjects.DocumentID `json:"document_id"`
	InvoiceNumber string                  `json:"invoice_number,omitempty"`
	VendorName    string                  `json:"vendor_name,omitempty"`
	Confidence    float64                 `json:"confidence"`
}

// NewDocumentProcessed creates a DocumentProcessed event
func NewDocumentProcessed(documentID valueobjects.DocumentID, invoiceNumber, vendorName string, confidence float64, timestamp time.Time) DocumentProcessed {
	return DocumentProcessed{
		BaseEvent: BaseEvent{
			AggregateID: documentID.String(),
			EventType:   "document.processed",
			Timestamp:   timestamp,
			Version:     1,
		},
		DocumentID:    documentID,
		InvoiceNumber: invoiceNumber,
		VendorName:    vendorName,
		Confidence:    confidence,
	}
}

// DocumentProcessingFailed is raised when any pipeline stage failed
// terminally for a document
type DocumentProcessingFailed struct {
	BaseEvent
	DocumentID valueobjects.DocumentID `json:"document_id"`
	Stage      string                  `json:"stage"`
	Reason     string                  `json:"reason"`
}

// NewDocumentProcessingFailed creates a DocumentProcessingFailed event
func NewDocumentProcessingFailed(documentID valueobjects.DocumentID, stage, reason string, timestamp time.Time) DocumentProcessingFailed {
	return DocumentProcessingFailed{
		BaseEvent: BaseEvent{
			AggregateID: documentID.String(),
			EventType:   "document.processing_failed",
			Timestamp:   timestamp,
			Version:     1,
		},
		DocumentID: documentID,
		Stage:      stage,
		Reason:     reason,
	}
}

// InvoiceDeleted is raised when a stored invoice record is removed
type InvoiceDeleted struct {
	BaseEvent
	DocumentID valueobjects.DocumentID `json:"document_id"`
}

// NewInvoiceDeleted creates an InvoiceDeleted event
func NewInvoiceDeleted(documentID valueobjects.DocumentID, timestamp time.Time) InvoiceDeleted {
	return InvoiceDeleted{
		BaseEvent: BaseEvent{
			AggregateID: documentID.String(),
			EventType:   "invoice.deleted",
			Timestamp:   timestamp,
			Version:     1,
		},
		DocumentID: documentID,
	}
}
