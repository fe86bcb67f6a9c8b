package ports

import (
	"context"
	"time"

	"invoiceflow/domain/core/entities"
	"invoiceflow/domain/core/valueobjects"
	"invoiceflow/domain/events"
	"invoiceflow/domain/invoice"
	"invoiceflow/domain/ocr"
)

// DocumentRepository defines the interface for document persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type DocumentRepository interface {
	// Save persists a document (create or update)
	Save(ctx context.Context, doc *entities.Document) error

	// GetByID retrieves a document by its ID
	GetByID(ctx context.Context, id valueobjects.DocumentID) (*entities.Document, error)

	// GetByLocation retrieves the document registered for a storage location
	GetByLocation(ctx context.Context, location valueobjects.DocumentLocation) (*entities.Document, error)

	// ListByStatus retrieves documents in the given status, oldest first
	ListByStatus(ctx context.Context, status entities.DocumentStatus, limit int) ([]*entities.Document, error)

	// Delete removes a document
	Delete(ctx context.Context, id valueobjects.DocumentID) error

	// DeleteBatch removes multiple documents in a batch operation
	DeleteBatch(ctx context.Context, ids []valueobjects.DocumentID) error
}

// InvoiceRepository defines the interface for extracted invoice persistence
type InvoiceRepository interface {
	// Save persists the extraction record for a document
	Save(ctx context.Context, documentID valueobjects.DocumentID, record *invoice.Record) error

	// GetByDocumentID retrieves the extraction record for a document
	GetByDocumentID(ctx context.Context, documentID valueobjects.DocumentID) (*invoice.Record, error)

	// List retrieves stored invoice records with pagination
	List(ctx context.Context, criteria ListCriteria) ([]*StoredInvoice, error)

	// Delete removes the extraction record for a document
	Delete(ctx context.Context, documentID valueobjects.DocumentID) error
}

// StoredInvoice pairs a persisted record with its document identity
type StoredInvoice struct {
	DocumentID valueobjects.DocumentID
	Record     *invoice.Record
	StoredAt   time.Time
}

// ListCriteria defines listing parameters for stored invoices
type ListCriteria struct {
	Vendor    string
	Limit     int
	Offset    int
	OrderDesc bool
}

// DocumentAnalyzer defines the interface for OCR analysis of a stored
// document. Implementations return the raw block graph for extraction.
type DocumentAnalyzer interface {
	// AnalyzeDocument runs forms and tables analysis on the object at
	// the given location
	AnalyzeDocument(ctx context.Context, location valueobjects.DocumentLocation) ([]ocr.Block, error)
}

// ObjectStore defines the interface for document object storage
type ObjectStore interface {
	// Head returns metadata for a stored object
	Head(ctx context.Context, location valueobjects.DocumentLocation) (ObjectInfo, error)

	// Get retrieves the object body
	Get(ctx context.Context, location valueobjects.DocumentLocation) ([]byte, error)

	// Delete removes an object
	Delete(ctx context.Context, location valueobjects.DocumentLocation) error
}

// ObjectInfo describes a stored object
type ObjectInfo struct {
	ContentType string
	SizeBytes   int64
	ETag        string
}

// NotificationPublisher defines the interface for pipeline completion
// notifications delivered to downstream consumers
type NotificationPublisher interface {
	// PublishProcessed announces a successfully extracted invoice
	PublishProcessed(ctx context.Context, documentID valueobjects.DocumentID, record *invoice.Record) error

	// PublishFailed announces a terminal processing failure
	PublishFailed(ctx context.Context, documentID valueobjects.DocumentID, stage, reason string) error
}

// ProcessingLock defines the interface for per-document mutual
// exclusion so duplicate event deliveries do not process twice
type ProcessingLock interface {
	// Acquire takes the lock for a document, failing if held
	Acquire(ctx context.Context, documentID valueobjects.DocumentID, ttl time.Duration) error

	// Release frees the lock
	Release(ctx context.Context, documentID valueobjects.DocumentID) error

	// Extend refreshes the lock TTL while work continues
	Extend(ctx context.Context, documentID valueobjects.DocumentID, ttl time.Duration) error
}

// EventStore defines the interface for event persistence
type EventStore interface {
	// SaveEvents persists domain events
	SaveEvents(ctx context.Context, events []events.DomainEvent) error

	// GetEvents retrieves events for an aggregate
	GetEvents(ctx context.Context, aggregateID string) ([]events.DomainEvent, error)

	// GetEventsByType retrieves events of a specific type
	GetEventsByType(ctx context.Context, eventType string, limit int) ([]events.DomainEvent, error)

	// DeleteEvents removes all events for an aggregate
	DeleteEvents(ctx context.Context, aggregateID string) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// EventBus defines the interface for publishing domain events
type EventBus interface {
	EventPublisher

	// Subscribe registers a handler for an event type
	Subscribe(eventType string, handler EventHandler) error

	// Unsubscribe removes a handler
	Unsubscribe(eventType string, handler EventHandler) error
}

// EventHandler defines the interface for handling domain events
type EventHandler interface {
	// Handle processes an event
	Handle(ctx context.Context, event events.DomainEvent) error

	// CanHandle checks if this handler can process the event
	CanHandle(eventType string) bool
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache with TTL in seconds
	Set(ctx context.Context, key string, value interface{}, ttl int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}
