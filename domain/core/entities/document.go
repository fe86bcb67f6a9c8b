package entities

import (
	"time"

	"invoiceflow/domain/core/valueobjects"
	"invoiceflow/domain/events"
	appErrors "invoiceflow/pkg/errors"
)

// DocumentStatus tracks a document through the processing pipeline
type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusProcessed  DocumentStatus = "processed"
	StatusFailed     DocumentStatus = "failed"
)

// Document is the aggregate root for a document moving through the
// extraction pipeline. State transitions raise domain events which are
// collected until committed by the repository.
type Document struct {
	id          valueobjects.DocumentID
	location    valueobjects.DocumentLocation
	status      DocumentStatus
	contentType string
	sizeBytes   int64
	failReason  string
	createdAt   time.Time
	updatedAt   time.Time
	version     int

	uncommittedEvents []events.DomainEvent
}

// NewDocument registers a freshly uploaded document with the pipeline
func NewDocument(location valueobjects.DocumentLocation, contentType string, sizeBytes int64) (*Document, error) {
	if location.IsZero() {
		return nil, appErrors.NewValidationError("document location is required")
	}
	if !location.IsSupportedType() {
		return nil, appErrors.NewValidationError("unsupported document type: " + location.Filename())
	}

	now := time.Now().UTC()
	doc := &Document{
		id:          valueobjects.NewDocumentID(),
		location:    location,
		status:      StatusUploaded,
		contentType: contentType,
		sizeBytes:   sizeBytes,
		createdAt:   now,
		updatedAt:   now,
		version:     0,
	}
	doc.addEvent(events.NewDocumentUploaded(doc.id, location, now))
	return doc, nil
}

// ReconstructDocument rebuilds a document from persisted state without
// raising events
func ReconstructDocument(
	id valueobjects.DocumentID,
	location valueobjects.DocumentLocation,
	status DocumentStatus,
	contentType string,
	sizeBytes int64,
	failReason string,
	createdAt, updatedAt time.Time,
	version int,
) *Document {
	return &Document{
		id:          id,
		location:    location,
		status:      status,
		contentType: contentType,
		sizeBytes:   sizeBytes,
		failReason:  failReason,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
		version:     version,
	}
}

func (d *Document) ID() valueobjects.DocumentID             { return d.id }
func (d *Document) Location() valueobjects.DocumentLocation { return d.location }
func (d *Document) Status() DocumentStatus                  { return d.status }
func (d *Document) ContentType() string                     { return d.contentType }
func (d *Document) SizeBytes() int64                        { return d.sizeBytes }
func (d *Document) FailReason() string                      { return d.failReason }
func (d *Document) CreatedAt() time.Time                    { return d.createdAt }
func (d *Document) UpdatedAt() time.Time                    { return d.updatedAt }
func (d *Document) Version() int                            { return d.version }

// StartProcessing moves the document into the processing state.
// Only uploaded or failed documents may start processing; failed
// documents are allowed through so retries work.
func (d *Document) StartProcessing() error {
	if d.status != StatusUploaded && d.status != StatusFailed {
		return appErrors.NewConflictError("document " + d.id.String() + " is already " + string(d.status))
	}
	d.status = StatusProcessing
	d.failReason = ""
	d.touch()
	d.addEvent(events.NewDocumentProcessingStarted(d.id, d.updatedAt))
	return nil
}

// MarkProcessed records successful extraction
func (d *Document) MarkProcessed(invoiceNumber, vendorName string, confidence float64) error {
	if d.status != StatusProcessing {
		return appErrors.NewConflictError("cannot mark document " + d.id.String() + " processed from status " + string(d.status))
	}
	d.status = StatusProcessed
	d.touch()
	d.addEvent(events.NewDocumentProcessed(d.id, invoiceNumber, vendorName, confidence, d.updatedAt))
	return nil
}

// MarkFailed records a terminal failure at the given pipeline stage
func (d *Document) MarkFailed(stage, reason string) error {
	if d.status != StatusProcessing {
		return appErrors.NewConflictError("cannot mark document " + d.id.String() + " failed from status " + string(d.status))
	}
	d.status = StatusFailed
	d.failReason = reason
	d.touch()
	d.addEvent(events.NewDocumentProcessingFailed(d.id, stage, reason, d.updatedAt))
	return nil
}

// GetUncommittedEvents returns events raised since the last commit
func (d *Document) GetUncommittedEvents() []events.DomainEvent {
	return d.uncommittedEvents
}

// MarkEventsAsCommitted clears the uncommitted event list after the
// repository has persisted and published them
func (d *Document) MarkEventsAsCommitted() {
	d.uncommittedEvents = nil
}

func (d *Document) touch() {
	d.updatedAt = time.Now().UTC()
	d.version++
}

func (d *Document) addEvent(event events.DomainEvent) {
	d.uncommittedEvents = append(d.uncommittedEvents, event)
}
