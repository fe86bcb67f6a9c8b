package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"invoiceflow/application/commands"
	domainconfig "invoiceflow/domain/config"
	"invoiceflow/domain/core/entities"
	"invoiceflow/domain/core/valueobjects"
	"invoiceflow/domain/extraction"
	"invoiceflow/domain/ocr"
	appErrors "invoiceflow/pkg/errors"
	"invoiceflow/pkg/extensions"
	"invoiceflow/pkg/observability"
)

type orchestratorFixture struct {
	docRepo     *MockDocumentRepository
	invoiceRepo *MockInvoiceRepository
	analyzer    *MockDocumentAnalyzer
	store       *MockObjectStore
	notifier    *MockNotificationPublisher
	eventBus    *MockEventBus
	eventStore  *MockEventStore
	lock        *MockProcessingLock
	hooks       *extensions.HookManager
	orchestrator *ProcessDocumentOrchestrator
}

func newOrchestratorFixture() *orchestratorFixture {
	f := &orchestratorFixture{
		docRepo:     new(MockDocumentRepository),
		invoiceRepo: new(MockInvoiceRepository),
		analyzer:    new(MockDocumentAnalyzer),
		store:       new(MockObjectStore),
		notifier:    new(MockNotificationPublisher),
		eventBus:    new(MockEventBus),
		eventStore:  new(MockEventStore),
		lock:        new(MockProcessingLock),
		hooks:       extensions.NewHookManager(),
	}

	cfg := domainconfig.DefaultPipelineConfig()
	cfg.PublishDomainEvents = false
	cfg.RetryBaseDelay = time.Millisecond

	f.orchestrator = NewProcessDocumentOrchestrator(
		f.docRepo,
		f.invoiceRepo,
		f.analyzer,
		f.store,
		f.notifier,
		f.eventBus,
		f.eventStore,
		f.lock,
		extraction.NewExtractor(),
		observability.NewTracer("test"),
		observability.NewMetrics("test", nil),
		f.hooks,
		cfg,
		zap.NewNop(),
	)
	return f
}

func uploadedDocument(t *testing.T) *entities.Document {
	t.Helper()
	loc, err := valueobjects.NewDocumentLocation("invoices-bucket", "uploads/invoice.pdf")
	require.NoError(t, err)
	doc, err := entities.NewDocument(loc, "application/pdf", 1024)
	require.NoError(t, err)
	doc.MarkEventsAsCommitted()
	return doc
}

func analysisBlocks() []ocr.Block {
	return []ocr.Block{
		{ID: "l1", Type: ocr.BlockTypeLine, Text: "Acme Supplies Ltd", Confidence: 95},
		{ID: "l2", Type: ocr.BlockTypeLine, Text: "Invoice #: INV-2024-001", Confidence: 93},
		{ID: "l3", Type: ocr.BlockTypeLine, Text: "Total: $1,500.00", Confidence: 91},
	}
}

func TestOrchestrator_Handle_Success(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture()
	doc := uploadedDocument(t)

	f.docRepo.On("GetByLocation", mock.Anything, doc.Location()).Return(doc, nil)
	f.lock.On("Acquire", mock.Anything, doc.ID(), mock.Anything).Return(nil)
	f.lock.On("Release", mock.Anything, doc.ID()).Return(nil)
	f.docRepo.On("Save", mock.Anything, doc).Return(nil)
	f.eventStore.On("SaveEvents", mock.Anything, mock.Anything).Return(nil)
	f.analyzer.On("AnalyzeDocument", mock.Anything, doc.Location()).Return(analysisBlocks(), nil)
	f.invoiceRepo.On("Save", mock.Anything, doc.ID(), mock.Anything).Return(nil)
	f.notifier.On("PublishProcessed", mock.Anything, doc.ID(), mock.Anything).Return(nil)

	cmd := commands.ProcessDocumentCommand{
		Bucket: "invoices-bucket",
		Key:    "uploads/invoice.pdf",
	}

	record, err := f.orchestrator.Handle(ctx, cmd)

	require.NoError(t, err)
	require.NotNil(t, record)
	require.NotNil(t, record.InvoiceData.InvoiceNumber)
	assert.Equal(t, "INV-2024-001", *record.InvoiceData.InvoiceNumber)
	assert.Equal(t, entities.StatusProcessed, doc.Status())

	f.docRepo.AssertExpectations(t)
	f.invoiceRepo.AssertExpectations(t)
	f.analyzer.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
	f.lock.AssertExpectations(t)
}

func TestOrchestrator_Handle_UnsupportedType(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture()

	cmd := commands.ProcessDocumentCommand{
		Bucket: "invoices-bucket",
		Key:    "uploads/archive.zip",
	}

	record, err := f.orchestrator.Handle(ctx, cmd)

	assert.Error(t, err)
	assert.Nil(t, record)
	assert.True(t, appErrors.IsValidation(err))
	f.docRepo.AssertNotCalled(t, "GetByLocation", mock.Anything, mock.Anything)
}

func TestOrchestrator_Handle_RegistersNewDocument(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture()

	loc, err := valueobjects.NewDocumentLocation("invoices-bucket", "uploads/new.pdf")
	require.NoError(t, err)

	f.docRepo.On("GetByLocation", mock.Anything, loc).Return(nil, appErrors.NewNotFoundError("document"))
	f.docRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.eventStore.On("SaveEvents", mock.Anything, mock.Anything).Return(nil)
	f.lock.On("Acquire", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.lock.On("Release", mock.Anything, mock.Anything).Return(nil)
	f.analyzer.On("AnalyzeDocument", mock.Anything, loc).Return(analysisBlocks(), nil)
	f.invoiceRepo.On("Save", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.notifier.On("PublishProcessed", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	cmd := commands.ProcessDocumentCommand{
		Bucket:      "invoices-bucket",
		Key:         "uploads/new.pdf",
		ContentType: "application/pdf",
		SizeBytes:   2048,
	}

	record, err := f.orchestrator.Handle(ctx, cmd)

	require.NoError(t, err)
	require.NotNil(t, record)
	f.docRepo.AssertExpectations(t)
	f.store.AssertNotCalled(t, "Head", mock.Anything, mock.Anything)
}

func TestOrchestrator_Handle_OversizedDocumentRejected(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture()

	loc, err := valueobjects.NewDocumentLocation("invoices-bucket", "uploads/huge.pdf")
	require.NoError(t, err)

	f.docRepo.On("GetByLocation", mock.Anything, loc).Return(nil, appErrors.NewNotFoundError("document"))

	cmd := commands.ProcessDocumentCommand{
		Bucket:      "invoices-bucket",
		Key:         "uploads/huge.pdf",
		ContentType: "application/pdf",
		SizeBytes:   50 * 1024 * 1024,
	}

	record, err := f.orchestrator.Handle(ctx, cmd)

	assert.Error(t, err)
	assert.Nil(t, record)
	assert.True(t, appErrors.IsValidation(err))
}

func TestOrchestrator_Handle_LockedDocument(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture()
	doc := uploadedDocument(t)

	f.docRepo.On("GetByLocation", mock.Anything, doc.Location()).Return(doc, nil)
	f.lock.On("Acquire", mock.Anything, doc.ID(), mock.Anything).Return(errors.New("lock held"))

	cmd := commands.ProcessDocumentCommand{
		Bucket: "invoices-bucket",
		Key:    "uploads/invoice.pdf",
	}

	record, err := f.orchestrator.Handle(ctx, cmd)

	assert.Error(t, err)
	assert.Nil(t, record)
	assert.True(t, appErrors.IsConflict(err))
	assert.Equal(t, entities.StatusUploaded, doc.Status())
	f.analyzer.AssertNotCalled(t, "AnalyzeDocument", mock.Anything, mock.Anything)
}

func TestOrchestrator_Handle_AnalysisFailureMarksDocumentFailed(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture()
	doc := uploadedDocument(t)

	f.docRepo.On("GetByLocation", mock.Anything, doc.Location()).Return(doc, nil)
	f.lock.On("Acquire", mock.Anything, doc.ID(), mock.Anything).Return(nil)
	f.lock.On("Release", mock.Anything, doc.ID()).Return(nil)
	f.docRepo.On("Save", mock.Anything, doc).Return(nil)
	f.eventStore.On("SaveEvents", mock.Anything, mock.Anything).Return(nil)
	f.analyzer.On("AnalyzeDocument", mock.Anything, doc.Location()).Return(nil, errors.New("analysis service unavailable"))
	f.notifier.On("PublishFailed", mock.Anything, doc.ID(), "analyze", mock.Anything).Return(nil)

	cmd := commands.ProcessDocumentCommand{
		Bucket: "invoices-bucket",
		Key:    "uploads/invoice.pdf",
	}

	record, err := f.orchestrator.Handle(ctx, cmd)

	assert.Error(t, err)
	assert.Nil(t, record)
	assert.Equal(t, entities.StatusFailed, doc.Status())
	assert.Contains(t, doc.FailReason(), "analysis service unavailable")
	f.notifier.AssertExpectations(t)
	f.invoiceRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrchestrator_Handle_PersistFailureCompensates(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture()
	doc := uploadedDocument(t)

	f.docRepo.On("GetByLocation", mock.Anything, doc.Location()).Return(doc, nil)
	f.lock.On("Acquire", mock.Anything, doc.ID(), mock.Anything).Return(nil)
	f.lock.On("Release", mock.Anything, doc.ID()).Return(nil)
	f.docRepo.On("Save", mock.Anything, doc).Return(nil)
	f.eventStore.On("SaveEvents", mock.Anything, mock.Anything).Return(nil)
	f.analyzer.On("AnalyzeDocument", mock.Anything, doc.Location()).Return(analysisBlocks(), nil)
	f.invoiceRepo.On("Save", mock.Anything, doc.ID(), mock.Anything).Return(errors.New("write throttled"))
	f.notifier.On("PublishFailed", mock.Anything, doc.ID(), "persist", mock.Anything).Return(nil)

	cmd := commands.ProcessDocumentCommand{
		Bucket: "invoices-bucket",
		Key:    "uploads/invoice.pdf",
	}

	record, err := f.orchestrator.Handle(ctx, cmd)

	assert.Error(t, err)
	assert.Nil(t, record)
	assert.Equal(t, entities.StatusFailed, doc.Status())
	f.notifier.AssertNotCalled(t, "PublishProcessed", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrchestrator_HandleReprocess_ConflictWhileProcessing(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture()
	doc := uploadedDocument(t)
	require.NoError(t, doc.StartProcessing())
	doc.MarkEventsAsCommitted()

	f.docRepo.On("GetByID", mock.Anything, doc.ID()).Return(doc, nil)

	cmd := commands.ReprocessDocumentCommand{DocumentID: doc.ID().String()}

	record, err := f.orchestrator.HandleReprocess(ctx, cmd)

	assert.Error(t, err)
	assert.Nil(t, record)
	assert.True(t, appErrors.IsConflict(err))
}

func TestOrchestrator_HandleReprocess_InvalidID(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture()

	cmd := commands.ReprocessDocumentCommand{DocumentID: "not-a-uuid"}

	record, err := f.orchestrator.HandleReprocess(ctx, cmd)

	assert.Error(t, err)
	assert.Nil(t, record)
	assert.True(t, appErrors.IsValidation(err))
}

func TestOrchestrator_BeforeStageHookAbortsStage(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture()
	doc := uploadedDocument(t)

	hookErr := errors.New("stage vetoed")
	f.hooks.Register(extensions.HookBeforeStage, func(_ context.Context, data extensions.StageData) error {
		if data.Stage == "analyze" {
			return hookErr
		}
		return nil
	})

	f.docRepo.On("GetByLocation", mock.Anything, doc.Location()).Return(doc, nil)
	f.lock.On("Acquire", mock.Anything, doc.ID(), mock.Anything).Return(nil)
	f.lock.On("Release", mock.Anything, doc.ID()).Return(nil)
	f.docRepo.On("Save", mock.Anything, doc).Return(nil)
	f.eventStore.On("SaveEvents", mock.Anything, mock.Anything).Return(nil)
	f.notifier.On("PublishFailed", mock.Anything, doc.ID(), "analyze", mock.Anything).Return(nil)

	cmd := commands.ProcessDocumentCommand{
		Bucket: "invoices-bucket",
		Key:    "uploads/invoice.pdf",
	}

	record, err := f.orchestrator.Handle(ctx, cmd)

	assert.Error(t, err)
	assert.Nil(t, record)
	f.analyzer.AssertNotCalled(t, "AnalyzeDocument", mock.Anything, mock.Anything)
}
