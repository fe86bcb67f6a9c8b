package dynamodb

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"invoiceflow/application/ports"
)

// OutboxProcessor drains unpublished lifecycle events from the event
// store and republishes them. The pipeline treats bus publication as
// best effort; this processor guarantees eventual delivery.
type OutboxProcessor struct {
	eventStore     *DynamoDBEventStore
	eventPublisher ports.EventPublisher
	logger         *zap.Logger

	batchSize          int32
	processingInterval time.Duration
	maxRetries         int

	stopChan    chan struct{}
	stoppedChan chan struct{}
}

// NewOutboxProcessor creates a new outbox processor
func NewOutboxProcessor(
	eventStore *DynamoDBEventStore,
	eventPublisher ports.EventPublisher,
	logger *zap.Logger,
) *OutboxProcessor {
	return &OutboxProcessor{
		eventStore:         eventStore,
		eventPublisher:     eventPublisher,
		logger:             logger,
		batchSize:          50,
		processingInterval: 5 * time.Second,
		maxRetries:         3,
		stopChan:           make(chan struct{}),
		stoppedChan:        make(chan struct{}),
	}
}

// Start begins background processing of outbox events
func (op *OutboxProcessor) Start(ctx context.Context) {
	op.logger.Info("starting outbox processor",
		zap.Int32("batch_size", op.batchSize),
		zap.Duration("interval", op.processingInterval),
	)

	go op.processLoop(ctx)
}

// Stop gracefully stops the outbox processor
func (op *OutboxProcessor) Stop() {
	close(op.stopChan)
	<-op.stoppedChan
	op.logger.Info("outbox processor stopped")
}

func (op *OutboxProcessor) processLoop(ctx context.Context) {
	defer close(op.stoppedChan)

	ticker := time.NewTicker(op.processingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-op.stopChan:
			return
		case <-ticker.C:
			if err := op.ProcessOnce(ctx); err != nil {
				op.logger.Error("outbox batch failed", zap.Error(err))
			}
		}
	}
}

// ProcessOnce drains one batch of pending events. Lambda entrypoints
// call this directly instead of running the background loop.
func (op *OutboxProcessor) ProcessOnce(ctx context.Context) error {
	pendingEvents, err := op.eventStore.GetPendingEvents(ctx, op.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending events: %w", err)
	}

	if len(pendingEvents) == 0 {
		return nil
	}

	successCount := 0
	failureCount := 0

	for _, eventRecord := range pendingEvents {
		if err := op.processEvent(ctx, eventRecord); err != nil {
			failureCount++
		} else {
			successCount++
		}
	}

	op.logger.Debug("outbox batch finished",
		zap.Int("published", successCount),
		zap.Int("failed", failureCount),
	)

	return nil
}

func (op *OutboxProcessor) processEvent(ctx context.Context, eventRecord *EventRecord) error {
	domainEvent, err := op.eventStore.recordToEvent(*eventRecord)
	if err != nil {
		// Malformed events can never publish, burn an attempt
		return op.markEventFailed(ctx, eventRecord, fmt.Sprintf("record conversion failed: %v", err))
	}

	if err := op.eventPublisher.Publish(ctx, domainEvent); err != nil {
		return op.markEventFailed(ctx, eventRecord, fmt.Sprintf("publish failed: %v", err))
	}

	if err := op.eventStore.MarkEventAsPublished(ctx, eventRecord.PK, eventRecord.SK); err != nil {
		op.logger.Error("failed to mark event as published",
			zap.String("event_id", eventRecord.EventID),
			zap.Error(err),
		)
		return err
	}

	return nil
}

func (op *OutboxProcessor) markEventFailed(ctx context.Context, eventRecord *EventRecord, errorMsg string) error {
	newAttempts := eventRecord.PublishAttempts + 1

	if err := op.eventStore.MarkEventAsFailed(ctx, eventRecord.PK, eventRecord.SK, errorMsg, newAttempts); err != nil {
		op.logger.Error("failed to mark event as failed",
			zap.String("event_id", eventRecord.EventID),
			zap.Error(err),
		)
		return err
	}

	if newAttempts >= op.maxRetries {
		op.logger.Warn("event permanently failed",
			zap.String("event_id", eventRecord.EventID),
			zap.String("event_type", eventRecord.EventType),
			zap.Int("attempts", newAttempts),
			zap.String("error", errorMsg),
		)
	}

	return fmt.Errorf("event processing failed: %s", errorMsg)
}
