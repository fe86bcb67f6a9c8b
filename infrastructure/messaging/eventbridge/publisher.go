package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"invoiceflow/application/ports"
	"invoiceflow/domain/events"
)

// EventBridge limits a PutEvents call to 10 entries
const putEventsBatchLimit = 10

// Publisher implements ports.EventBus on AWS EventBridge. Subscriptions
// are managed externally through bus rules and targets, so Subscribe and
// Unsubscribe are no-ops here.
type Publisher struct {
	client       *eventbridge.Client
	eventBusName string
	logger       *zap.Logger
}

// NewPublisher creates an EventBridge-backed event bus
func NewPublisher(client *eventbridge.Client, eventBusName string, logger *zap.Logger) ports.EventBus {
	return &Publisher{
		client:       client,
		eventBusName: eventBusName,
		logger:       logger,
	}
}

// Publish sends a single event to the bus
func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return p.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch sends events to the bus in chunks of the PutEvents limit
func (p *Publisher) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	for i := 0; i < len(domainEvents); i += putEventsBatchLimit {
		end := i + putEventsBatchLimit
		if end > len(domainEvents) {
			end = len(domainEvents)
		}
		if err := p.putEvents(ctx, domainEvents[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Publisher) putEvents(ctx context.Context, domainEvents []events.DomainEvent) error {
	entries := make([]types.PutEventsRequestEntry, 0, len(domainEvents))
	for _, event := range domainEvents {
		detail, err := json.Marshal(event)
		if err != nil {
			p.logger.Error("failed to encode event",
				zap.String("event_type", event.GetEventType()),
				zap.Error(err))
			continue
		}
		entries = append(entries, types.PutEventsRequestEntry{
			EventBusName: aws.String(p.eventBusName),
			Source:       aws.String(events.SourcePipeline),
			DetailType:   aws.String(event.GetEventType()),
			Detail:       aws.String(string(detail)),
			Time:         aws.Time(event.GetTimestamp()),
		})
	}
	if len(entries) == 0 {
		return nil
	}

	result, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
	if err != nil {
		return fmt.Errorf("failed to publish events: %w", err)
	}

	if result.FailedEntryCount > 0 {
		for i, entry := range result.Entries {
			if entry.ErrorCode != nil {
				p.logger.Error("event rejected by bus",
					zap.String("event_type", domainEvents[i].GetEventType()),
					zap.String("error_code", aws.ToString(entry.ErrorCode)),
					zap.String("error_message", aws.ToString(entry.ErrorMessage)))
			}
		}
		return fmt.Errorf("%d events failed to publish", result.FailedEntryCount)
	}

	p.logger.Debug("events published",
		zap.Int("count", len(entries)),
		zap.String("event_bus", p.eventBusName))
	return nil
}

// Subscribe is a no-op; routing is configured on the bus itself
func (p *Publisher) Subscribe(eventType string, handler ports.EventHandler) error {
	p.logger.Warn("subscriptions are managed through bus rules",
		zap.String("event_type", eventType))
	return nil
}

// Unsubscribe is a no-op; routing is configured on the bus itself
func (p *Publisher) Unsubscribe(eventType string, handler ports.EventHandler) error {
	return nil
}
