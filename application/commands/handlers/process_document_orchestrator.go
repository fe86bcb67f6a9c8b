package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"invoiceflow/application/commands"
	"invoiceflow/application/ports"
	"invoiceflow/application/sagas"
	domainconfig "invoiceflow/domain/config"
	"invoiceflow/domain/core/entities"
	"invoiceflow/domain/core/valueobjects"
	"invoiceflow/domain/extraction"
	"invoiceflow/domain/invoice"
	"invoiceflow/domain/ocr"
	"invoiceflow/pkg/common"
	appErrors "invoiceflow/pkg/errors"
	"invoiceflow/pkg/extensions"
	"invoiceflow/pkg/observability"
)

// ProcessDocumentOrchestrator runs the full extraction pipeline for
// one document: analyze the stored object, extract invoice fields from
// the block graph, persist the record and notify downstream consumers.
// Each run is guarded by a per-document lock so duplicate storage event
// deliveries do not process the same object twice.
type ProcessDocumentOrchestrator struct {
	docRepo     ports.DocumentRepository
	invoiceRepo ports.InvoiceRepository
	analyzer    ports.DocumentAnalyzer
	store       ports.ObjectStore
	notifier    ports.NotificationPublisher
	eventBus    ports.EventBus
	eventStore  ports.EventStore
	lock        ports.ProcessingLock
	extractor   *extraction.Extractor
	tracer      *observability.Tracer
	metrics     *observability.Metrics
	hooks       *extensions.HookManager
	cfg         domainconfig.PipelineConfig
	logger      *zap.Logger
}

// NewProcessDocumentOrchestrator creates a new orchestrator instance
func NewProcessDocumentOrchestrator(
	docRepo ports.DocumentRepository,
	invoiceRepo ports.InvoiceRepository,
	analyzer ports.DocumentAnalyzer,
	store ports.ObjectStore,
	notifier ports.NotificationPublisher,
	eventBus ports.EventBus,
	eventStore ports.EventStore,
	lock ports.ProcessingLock,
	extractor *extraction.Extractor,
	tracer *observability.Tracer,
	metrics *observability.Metrics,
	hooks *extensions.HookManager,
	cfg domainconfig.PipelineConfig,
	logger *zap.Logger,
) *ProcessDocumentOrchestrator {
	return &ProcessDocumentOrchestrator{
		docRepo:     docRepo,
		invoiceRepo: invoiceRepo,
		analyzer:    analyzer,
		store:       store,
		notifier:    notifier,
		eventBus:    eventBus,
		eventStore:  eventStore,
		lock:        lock,
		extractor:   extractor,
		tracer:      tracer,
		metrics:     metrics,
		hooks:       hooks,
		cfg:         cfg,
		logger:      logger,
	}
}

// pipelineData carries intermediate results between saga steps
type pipelineData struct {
	doc    *entities.Document
	blocks []ocr.Block
	record *invoice.Record
}

// Handle executes the process document command
func (o *ProcessDocumentOrchestrator) Handle(ctx context.Context, cmd commands.ProcessDocumentCommand) (*invoice.Record, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("invalid command: %w", err)
	}

	location, err := valueobjects.NewDocumentLocation(cmd.Bucket, cmd.Key)
	if err != nil {
		return nil, err
	}
	if !location.IsSupportedType() {
		return nil, appErrors.NewValidationError("unsupported document type: " + location.Filename())
	}

	doc, err := o.findOrRegisterDocument(ctx, location, cmd)
	if err != nil {
		return nil, err
	}

	ctx = common.WithDocumentID(ctx, doc.ID().String())
	return o.process(ctx, doc)
}

// HandleReprocess executes the reprocess document command
func (o *ProcessDocumentOrchestrator) HandleReprocess(ctx context.Context, cmd commands.ReprocessDocumentCommand) (*invoice.Record, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("invalid command: %w", err)
	}

	id, err := valueobjects.NewDocumentIDFromString(cmd.DocumentID)
	if err != nil {
		return nil, appErrors.NewValidationError("invalid document ID: " + cmd.DocumentID)
	}

	doc, err := o.docRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status() == entities.StatusProcessing {
		return nil, appErrors.NewConflictError("document " + id.String() + " is already processing")
	}

	ctx = common.WithDocumentID(ctx, doc.ID().String())
	return o.process(ctx, doc)
}

func (o *ProcessDocumentOrchestrator) process(ctx context.Context, doc *entities.Document) (*invoice.Record, error) {
	docID := doc.ID()

	if err := o.lock.Acquire(ctx, docID, o.cfg.ProcessingLockTTL); err != nil {
		o.logger.Info("document already being processed",
			zap.String("document_id", docID.String()),
			zap.Error(err),
		)
		return nil, appErrors.NewConflictError("document " + docID.String() + " is locked by another worker")
	}
	defer func() {
		if err := o.lock.Release(ctx, docID); err != nil {
			o.logger.Warn("failed to release processing lock",
				zap.String("document_id", docID.String()),
				zap.Error(err),
			)
		}
	}()

	if err := doc.StartProcessing(); err != nil {
		return nil, err
	}
	if err := o.saveAndCommit(ctx, doc); err != nil {
		return nil, err
	}

	data := &pipelineData{doc: doc}
	saga := o.buildSaga(data)

	if _, err := saga.Execute(ctx, data); err != nil {
		o.failDocument(ctx, doc, saga.FailedStep(), err)
		o.metrics.Count("DocumentsFailed", 1, observability.Dimension("Stage", saga.FailedStep()))
		return nil, err
	}

	record := data.record
	if err := doc.MarkProcessed(
		stringOrEmpty(record.InvoiceData.InvoiceNumber),
		stringOrEmpty(record.InvoiceData.VendorName),
		record.Confidence.Overall,
	); err != nil {
		return nil, err
	}
	if err := o.saveAndCommit(ctx, doc); err != nil {
		return nil, err
	}

	o.metrics.Count("DocumentsProcessed", 1)
	o.metrics.Gauge("ExtractionConfidence", record.Confidence.Overall)
	o.hooks.ExecuteAsync(ctx, extensions.HookDocumentFinished, extensions.StageData{
		DocumentID: docID.String(),
		Metadata:   map[string]interface{}{"confidence": record.Confidence.Overall},
	})
	o.logger.Info("document processed",
		zap.String("document_id", docID.String()),
		zap.Float64("confidence", record.Confidence.Overall),
	)

	return record, nil
}

// buildSaga wires the pipeline stages with their compensations. The
// analyzer adapter does its own per-attempt retries, so analyze runs a
// single saga attempt.
func (o *ProcessDocumentOrchestrator) buildSaga(data *pipelineData) *sagas.Saga {
	doc := data.doc

	return sagas.NewSagaBuilder("process_document", o.logger).
		WithStep("analyze", func(ctx context.Context, _ interface{}) (interface{}, error) {
			err := o.runStage(ctx, doc, "analyze", func(ctx context.Context) error {
				blocks, err := o.analyzer.AnalyzeDocument(ctx, doc.Location())
				if err != nil {
					return err
				}
				data.blocks = blocks
				return nil
			})
			return data, err
		}).
		WithStep("extract", func(ctx context.Context, _ interface{}) (interface{}, error) {
			err := o.runStage(ctx, doc, "extract", func(ctx context.Context) error {
				record, err := o.extractor.Extract(data.blocks)
				if err != nil {
					return err
				}
				data.record = record
				return nil
			})
			return data, err
		}).
		WithCompensableStep("persist",
			func(ctx context.Context, _ interface{}) (interface{}, error) {
				err := o.runStage(ctx, doc, "persist", func(ctx context.Context) error {
					return o.invoiceRepo.Save(ctx, doc.ID(), data.record)
				})
				return data, err
			},
			func(ctx context.Context, _ interface{}) error {
				return o.invoiceRepo.Delete(ctx, doc.ID())
			}).
		WithStep("notify", func(ctx context.Context, _ interface{}) (interface{}, error) {
			err := o.runStage(ctx, doc, "notify", func(ctx context.Context) error {
				return o.notifier.PublishProcessed(ctx, doc.ID(), data.record)
			})
			return data, err
		}).
		Build()
}

// runStage traces a pipeline stage and fires the registered stage hooks
// around it. Before-stage hook failures abort the stage; after-stage and
// failure hooks run detached.
func (o *ProcessDocumentOrchestrator) runStage(ctx context.Context, doc *entities.Document, stage string, fn func(context.Context) error) error {
	stageData := extensions.StageData{DocumentID: doc.ID().String(), Stage: stage}
	if err := o.hooks.Execute(ctx, extensions.HookBeforeStage, stageData); err != nil {
		return err
	}

	err := o.tracer.TraceStage(ctx, stage, fn)
	if err != nil {
		stageData.Err = err
		o.hooks.ExecuteAsync(ctx, extensions.HookStageFailed, stageData)
		return err
	}

	o.hooks.ExecuteAsync(ctx, extensions.HookAfterStage, stageData)
	return nil
}

// findOrRegisterDocument returns the document registered for the
// location, creating it on first sight of the object
func (o *ProcessDocumentOrchestrator) findOrRegisterDocument(ctx context.Context, location valueobjects.DocumentLocation, cmd commands.ProcessDocumentCommand) (*entities.Document, error) {
	doc, err := o.docRepo.GetByLocation(ctx, location)
	if err == nil {
		return doc, nil
	}
	if !appErrors.IsNotFound(err) {
		return nil, err
	}

	contentType := cmd.ContentType
	sizeBytes := cmd.SizeBytes
	if contentType == "" || sizeBytes == 0 {
		info, headErr := o.store.Head(ctx, location)
		if headErr != nil {
			return nil, headErr
		}
		if contentType == "" {
			contentType = info.ContentType
		}
		if sizeBytes == 0 {
			sizeBytes = info.SizeBytes
		}
	}

	if o.cfg.MaxDocumentSizeBytes > 0 && sizeBytes > o.cfg.MaxDocumentSizeBytes {
		return nil, appErrors.NewValidationError("document exceeds maximum size")
	}

	doc, err = entities.NewDocument(location, contentType, sizeBytes)
	if err != nil {
		return nil, err
	}
	if err := o.saveAndCommit(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// failDocument records a terminal failure and notifies downstream
func (o *ProcessDocumentOrchestrator) failDocument(ctx context.Context, doc *entities.Document, stage string, cause error) {
	if stage == "" {
		stage = "pipeline"
	}
	if err := doc.MarkFailed(stage, cause.Error()); err != nil {
		o.logger.Error("failed to mark document failed",
			zap.String("document_id", doc.ID().String()),
			zap.Error(err),
		)
		return
	}
	if err := o.saveAndCommit(ctx, doc); err != nil {
		o.logger.Error("failed to persist failed document",
			zap.String("document_id", doc.ID().String()),
			zap.Error(err),
		)
	}
	if err := o.notifier.PublishFailed(ctx, doc.ID(), stage, cause.Error()); err != nil {
		o.logger.Warn("failure notification not delivered",
			zap.String("document_id", doc.ID().String()),
			zap.Error(err),
		)
	}
}

// saveAndCommit persists the document, stores its uncommitted events
// for auditing and publishes them to the event bus
func (o *ProcessDocumentOrchestrator) saveAndCommit(ctx context.Context, doc *entities.Document) error {
	if err := o.docRepo.Save(ctx, doc); err != nil {
		return err
	}

	events := doc.GetUncommittedEvents()
	if len(events) == 0 {
		return nil
	}

	if err := o.eventStore.SaveEvents(ctx, events); err != nil {
		o.logger.Warn("failed to persist audit events",
			zap.String("document_id", doc.ID().String()),
			zap.Error(err),
		)
	}

	if o.cfg.PublishDomainEvents {
		if err := o.eventBus.PublishBatch(ctx, events); err != nil {
			// Events can be replayed from the audit trail, do not fail
			// the pipeline over bus hiccups
			o.logger.Error("failed to publish domain events",
				zap.String("document_id", doc.ID().String()),
				zap.Int("event_count", len(events)),
				zap.Error(err),
			)
		}
	}

	doc.MarkEventsAsCommitted()
	return nil
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
