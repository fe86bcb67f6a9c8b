package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceflow/domain/core/valueobjects"
	"invoiceflow/domain/events"
	appErrors "invoiceflow/pkg/errors"
)

func newTestLocation(t *testing.T) valueobjects.DocumentLocation {
	t.Helper()
	loc, err := valueobjects.NewDocumentLocation("invoices-bucket", "uploads/invoice.pdf")
	require.NoError(t, err)
	return loc
}

func TestNewDocument(t *testing.T) {
	loc := newTestLocation(t)

	doc, err := NewDocument(loc, "application/pdf", 2048)
	require.NoError(t, err)

	assert.Equal(t, StatusUploaded, doc.Status())
	assert.Equal(t, "application/pdf", doc.ContentType())
	assert.Equal(t, int64(2048), doc.SizeBytes())
	assert.Equal(t, 0, doc.Version())

	uncommitted := doc.GetUncommittedEvents()
	require.Len(t, uncommitted, 1)
	assert.Equal(t, "document.uploaded", uncommitted[0].GetEventType())
}

func TestNewDocument_ZeroLocation(t *testing.T) {
	doc, err := NewDocument(valueobjects.DocumentLocation{}, "application/pdf", 100)
	assert.Error(t, err)
	assert.Nil(t, doc)
	assert.True(t, appErrors.IsValidation(err))
}

func TestNewDocument_UnsupportedType(t *testing.T) {
	loc, err := valueobjects.NewDocumentLocation("invoices-bucket", "uploads/archive.zip")
	require.NoError(t, err)

	doc, err := NewDocument(loc, "application/zip", 100)
	assert.Error(t, err)
	assert.Nil(t, doc)
	assert.True(t, appErrors.IsValidation(err))
}

func TestDocument_StartProcessing(t *testing.T) {
	doc, err := NewDocument(newTestLocation(t), "application/pdf", 100)
	require.NoError(t, err)

	err = doc.StartProcessing()
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, doc.Status())
	assert.Equal(t, 1, doc.Version())

	uncommitted := doc.GetUncommittedEvents()
	require.Len(t, uncommitted, 2)
	assert.Equal(t, "document.processing_started", uncommitted[1].GetEventType())
}

func TestDocument_StartProcessing_AlreadyProcessing(t *testing.T) {
	doc, err := NewDocument(newTestLocation(t), "application/pdf", 100)
	require.NoError(t, err)
	require.NoError(t, doc.StartProcessing())

	err = doc.StartProcessing()
	assert.Error(t, err)
	assert.True(t, appErrors.IsConflict(err))
	assert.Equal(t, StatusProcessing, doc.Status())
}

func TestDocument_StartProcessing_FromFailedAllowsRetry(t *testing.T) {
	doc, err := NewDocument(newTestLocation(t), "application/pdf", 100)
	require.NoError(t, err)
	require.NoError(t, doc.StartProcessing())
	require.NoError(t, doc.MarkFailed("analyze", "service unavailable"))

	err = doc.StartProcessing()
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, doc.Status())
	assert.Empty(t, doc.FailReason())
}

func TestDocument_MarkProcessed(t *testing.T) {
	doc, err := NewDocument(newTestLocation(t), "application/pdf", 100)
	require.NoError(t, err)
	require.NoError(t, doc.StartProcessing())

	err = doc.MarkProcessed("INV-001", "Acme Supplies Ltd", 92.5)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessed, doc.Status())

	uncommitted := doc.GetUncommittedEvents()
	require.Len(t, uncommitted, 3)
	processed, ok := uncommitted[2].(events.DocumentProcessed)
	require.True(t, ok)
	assert.Equal(t, "INV-001", processed.InvoiceNumber)
	assert.Equal(t, 92.5, processed.Confidence)
}

func TestDocument_MarkProcessed_WrongState(t *testing.T) {
	doc, err := NewDocument(newTestLocation(t), "application/pdf", 100)
	require.NoError(t, err)

	err = doc.MarkProcessed("INV-001", "Acme", 90)
	assert.Error(t, err)
	assert.True(t, appErrors.IsConflict(err))
	assert.Equal(t, StatusUploaded, doc.Status())
}

func TestDocument_MarkFailed(t *testing.T) {
	doc, err := NewDocument(newTestLocation(t), "application/pdf", 100)
	require.NoError(t, err)
	require.NoError(t, doc.StartProcessing())

	err = doc.MarkFailed("persist", "conditional check failed")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, doc.Status())
	assert.Equal(t, "conditional check failed", doc.FailReason())

	uncommitted := doc.GetUncommittedEvents()
	failed, ok := uncommitted[len(uncommitted)-1].(events.DocumentProcessingFailed)
	require.True(t, ok)
	assert.Equal(t, "persist", failed.Stage)
}

func TestDocument_MarkFailed_WrongState(t *testing.T) {
	doc, err := NewDocument(newTestLocation(t), "application/pdf", 100)
	require.NoError(t, err)

	err = doc.MarkFailed("analyze", "boom")
	assert.Error(t, err)
	assert.True(t, appErrors.IsConflict(err))
}

func TestDocument_MarkEventsAsCommitted(t *testing.T) {
	doc, err := NewDocument(newTestLocation(t), "application/pdf", 100)
	require.NoError(t, err)
	require.NoError(t, doc.StartProcessing())

	doc.MarkEventsAsCommitted()
	assert.Empty(t, doc.GetUncommittedEvents())
}

func TestReconstructDocument(t *testing.T) {
	loc := newTestLocation(t)
	id := valueobjects.NewDocumentID()

	now := time.Now().UTC()
	doc := ReconstructDocument(id, loc, StatusProcessed, "application/pdf", 512, "", now, now, 3)

	assert.Equal(t, id, doc.ID())
	assert.Equal(t, StatusProcessed, doc.Status())
	assert.Equal(t, 3, doc.Version())
	assert.Empty(t, doc.GetUncommittedEvents())
}
