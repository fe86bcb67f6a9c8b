package dynamodb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"invoiceflow/domain/core/valueobjects"
	"invoiceflow/domain/events"
)

// DynamoDBEventStore persists document lifecycle events as an audit
// trail, doubling as the outbox for reliable event publication.
type DynamoDBEventStore struct {
	client    *dynamodb.Client
	tableName string
}

// PublishStatus represents the publishing status of an event
type PublishStatus string

const (
	PublishStatusPending   PublishStatus = "pending"
	PublishStatusPublished PublishStatus = "published"
	PublishStatusFailed    PublishStatus = "failed"
)

// eventRetention bounds how long audit events are kept before the
// table TTL removes them
const eventRetention = 365 * 24 * time.Hour

// EventRecord represents how events are stored in DynamoDB
type EventRecord struct {
	PK          string                 `dynamodbav:"PK"` // EVENTS#<aggregate_id>
	SK          string                 `dynamodbav:"SK"` // EVENT#<timestamp>#<event_id>
	EventID     string                 `dynamodbav:"EventID"`
	EventType   string                 `dynamodbav:"EventType"`
	AggregateID string                 `dynamodbav:"AggregateID"`
	EventData   map[string]interface{} `dynamodbav:"EventData"`
	Timestamp   string                 `dynamodbav:"Timestamp"`
	Version     int                    `dynamodbav:"Version"`

	// Outbox pattern fields
	PublishStatus   string `dynamodbav:"PublishStatus"`
	PublishAttempts int    `dynamodbav:"PublishAttempts"`
	LastPublishTry  string `dynamodbav:"LastPublishTry,omitempty"`
	PublishedAt     string `dynamodbav:"PublishedAt,omitempty"`
	ErrorMessage    string `dynamodbav:"ErrorMessage,omitempty"`

	// GSI attributes for querying
	GSI1PK string `dynamodbav:"GSI1PK"` // EVENTTYPE#<type>
	GSI1SK string `dynamodbav:"GSI1SK"` // EVENT#<timestamp>

	TTL int64 `dynamodbav:"TTL,omitempty"`
}

// NewDynamoDBEventStore creates a new DynamoDB event store
func NewDynamoDBEventStore(client *dynamodb.Client, tableName string) *DynamoDBEventStore {
	return &DynamoDBEventStore{
		client:    client,
		tableName: tableName,
	}
}

// SaveEvents persists domain events to the event store
func (es *DynamoDBEventStore) SaveEvents(ctx context.Context, domainEvents []events.DomainEvent) error {
	if len(domainEvents) == 0 {
		return nil
	}

	writeRequests := make([]types.WriteRequest, 0, len(domainEvents))

	for _, event := range domainEvents {
		record, err := es.eventToRecord(event)
		if err != nil {
			return fmt.Errorf("failed to convert event to record: %w", err)
		}

		item, err := attributevalue.MarshalMap(record)
		if err != nil {
			return fmt.Errorf("failed to marshal event record: %w", err)
		}

		writeRequests = append(writeRequests, types.WriteRequest{
			PutRequest: &types.PutRequest{
				Item: item,
			},
		})
	}

	// DynamoDB caps batch writes at 25 items
	for i := 0; i < len(writeRequests); i += 25 {
		end := i + 25
		if end > len(writeRequests) {
			end = len(writeRequests)
		}

		input := &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				es.tableName: writeRequests[i:end],
			},
		}

		result, err := es.client.BatchWriteItem(ctx, input)
		if err != nil {
			return fmt.Errorf("failed to write events batch: %w", err)
		}
		if len(result.UnprocessedItems) > 0 {
			return fmt.Errorf("failed to write %d events", len(result.UnprocessedItems[es.tableName]))
		}
	}

	return nil
}

// GetEvents retrieves all events for an aggregate, oldest first
func (es *DynamoDBEventStore) GetEvents(ctx context.Context, aggregateID string) ([]events.DomainEvent, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(es.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("EVENTS#%s", aggregateID)},
		},
		ScanIndexForward: aws.Bool(true),
	}

	var allEvents []events.DomainEvent

	paginator := dynamodb.NewQueryPaginator(es.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query events: %w", err)
		}

		for _, item := range page.Items {
			var record EventRecord
			if err := attributevalue.UnmarshalMap(item, &record); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event record: %w", err)
			}

			event, err := es.recordToEvent(record)
			if err != nil {
				return nil, fmt.Errorf("failed to convert record to event: %w", err)
			}

			allEvents = append(allEvents, event)
		}
	}

	return allEvents, nil
}

// GetEventsByType retrieves the most recent events of a specific type
func (es *DynamoDBEventStore) GetEventsByType(ctx context.Context, eventType string, limit int) ([]events.DomainEvent, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(es.tableName),
		IndexName:              aws.String("GSI1"),
		KeyConditionExpression: aws.String("GSI1PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("EVENTTYPE#%s", eventType)},
		},
		ScanIndexForward: aws.Bool(false),
	}

	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}

	result, err := es.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query events by type: %w", err)
	}

	domainEvents := make([]events.DomainEvent, 0, len(result.Items))
	for _, item := range result.Items {
		var record EventRecord
		if err := attributevalue.UnmarshalMap(item, &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event record: %w", err)
		}

		event, err := es.recordToEvent(record)
		if err != nil {
			return nil, fmt.Errorf("failed to convert record to event: %w", err)
		}

		domainEvents = append(domainEvents, event)
	}

	return domainEvents, nil
}

// DeleteEvents removes all events for an aggregate
func (es *DynamoDBEventStore) DeleteEvents(ctx context.Context, aggregateID string) error {
	// Collect keys first, then delete in batches
	input := &dynamodb.QueryInput{
		TableName:              aws.String(es.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("EVENTS#%s", aggregateID)},
		},
		ProjectionExpression: aws.String("PK, SK"),
	}

	var keys []map[string]types.AttributeValue
	paginator := dynamodb.NewQueryPaginator(es.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to query events for deletion: %w", err)
		}
		for _, item := range page.Items {
			keys = append(keys, map[string]types.AttributeValue{
				"PK": item["PK"],
				"SK": item["SK"],
			})
		}
	}

	for i := 0; i < len(keys); i += 25 {
		end := i + 25
		if end > len(keys) {
			end = len(keys)
		}

		requests := make([]types.WriteRequest, 0, end-i)
		for _, key := range keys[i:end] {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: key},
			})
		}

		batchInput := &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				es.tableName: requests,
			},
		}
		if _, err := es.client.BatchWriteItem(ctx, batchInput); err != nil {
			return fmt.Errorf("failed to delete events batch: %w", err)
		}
	}

	return nil
}

// eventToRecord converts a domain event to a DynamoDB record
func (es *DynamoDBEventStore) eventToRecord(event events.DomainEvent) (*EventRecord, error) {
	eventData := make(map[string]interface{})

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := json.Unmarshal(eventBytes, &eventData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event to map: %w", err)
	}

	timestamp := event.GetTimestamp()
	eventID := uuid.New().String()

	return &EventRecord{
		PK:          fmt.Sprintf("EVENTS#%s", event.GetAggregateID()),
		SK:          fmt.Sprintf("EVENT#%s#%s", timestamp.Format(time.RFC3339Nano), eventID),
		EventID:     eventID,
		EventType:   event.GetEventType(),
		AggregateID: event.GetAggregateID(),
		EventData:   eventData,
		Timestamp:   timestamp.Format(time.RFC3339),
		Version:     event.GetVersion(),

		PublishStatus:   string(PublishStatusPending),
		PublishAttempts: 0,

		GSI1PK: fmt.Sprintf("EVENTTYPE#%s", event.GetEventType()),
		GSI1SK: fmt.Sprintf("EVENT#%s", timestamp.Format(time.RFC3339Nano)),
		TTL:    timestamp.Add(eventRetention).Unix(),
	}, nil
}

// recordToEvent converts a DynamoDB record back to a domain event
func (es *DynamoDBEventStore) recordToEvent(record EventRecord) (events.DomainEvent, error) {
	timestamp, err := time.Parse(time.RFC3339, record.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse timestamp: %w", err)
	}

	baseEvent := events.BaseEvent{
		AggregateID: record.AggregateID,
		EventType:   record.EventType,
		Timestamp:   timestamp,
		Version:     record.Version,
	}

	documentID := es.documentIDFromData(record)

	switch record.EventType {
	case "document.uploaded":
		bucket, _ := record.EventData["bucket"].(string)
		key, _ := record.EventData["key"].(string)
		return events.DocumentUploaded{
			BaseEvent:  baseEvent,
			DocumentID: documentID,
			Bucket:     bucket,
			Key:        key,
		}, nil

	case "document.processing_started":
		return events.DocumentProcessingStarted{
			BaseEvent:  baseEvent,
			DocumentID: documentID,
		}, nil

	case "document.processed":
		invoiceNumber, _ := record.EventData["invoice_number"].(string)
		vendorName, _ := record.EventData["vendor_name"].(string)
		confidence, _ := record.EventData["confidence"].(float64)
		return events.DocumentProcessed{
			BaseEvent:     baseEvent,
			DocumentID:    documentID,
			InvoiceNumber: invoiceNumber,
			VendorName:    vendorName,
			Confidence:    confidence,
		}, nil

	case "document.processing_failed":
		stage, _ := record.EventData["stage"].(string)
		reason, _ := record.EventData["reason"].(string)
		return events.DocumentProcessingFailed{
			BaseEvent:  baseEvent,
			DocumentID: documentID,
			Stage:      stage,
			Reason:     reason,
		}, nil

	case "invoice.deleted":
		return events.InvoiceDeleted{
			BaseEvent:  baseEvent,
			DocumentID: documentID,
		}, nil

	default:
		// Unknown event types surface as the base event
		return baseEvent, nil
	}
}

func (es *DynamoDBEventStore) documentIDFromData(record EventRecord) valueobjects.DocumentID {
	raw, _ := record.EventData["document_id"].(string)
	if raw == "" {
		raw = record.AggregateID
	}
	id, err := valueobjects.NewDocumentIDFromString(raw)
	if err != nil {
		return valueobjects.DocumentID{}
	}
	return id
}

// Outbox pattern methods

// GetPendingEvents retrieves events that haven't been published yet
func (es *DynamoDBEventStore) GetPendingEvents(ctx context.Context, limit int32) ([]*EventRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	input := &dynamodb.ScanInput{
		TableName:        aws.String(es.tableName),
		FilterExpression: aws.String("PublishStatus = :status AND begins_with(PK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(PublishStatusPending)},
			":prefix": &types.AttributeValueMemberS{Value: "EVENTS#"},
		},
		Limit: aws.Int32(limit),
	}

	result, err := es.client.Scan(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to scan pending events: %w", err)
	}

	records := make([]*EventRecord, 0, len(result.Items))
	for _, item := range result.Items {
		var record EventRecord
		if err := attributevalue.UnmarshalMap(item, &record); err != nil {
			continue // skip malformed records
		}
		records = append(records, &record)
	}

	return records, nil
}

// MarkEventAsPublished marks an event as successfully published
func (es *DynamoDBEventStore) MarkEventAsPublished(ctx context.Context, eventPK, eventSK string) error {
	now := time.Now().Format(time.RFC3339)

	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(es.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: eventPK},
			"SK": &types.AttributeValueMemberS{Value: eventSK},
		},
		UpdateExpression: aws.String("SET PublishStatus = :published, PublishedAt = :publishedAt"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":published":   &types.AttributeValueMemberS{Value: string(PublishStatusPublished)},
			":publishedAt": &types.AttributeValueMemberS{Value: now},
		},
		ConditionExpression: aws.String("attribute_exists(PK)"),
	}

	if _, err := es.client.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("failed to mark event as published: %w", err)
	}

	return nil
}

// MarkEventAsFailed marks an event as failed to publish. Events under
// the attempt cap stay pending so the outbox retries them.
func (es *DynamoDBEventStore) MarkEventAsFailed(ctx context.Context, eventPK, eventSK string, errorMsg string, attempts int) error {
	now := time.Now().Format(time.RFC3339)

	status := string(PublishStatusFailed)
	if attempts < 3 {
		status = string(PublishStatusPending)
	}

	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(es.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: eventPK},
			"SK": &types.AttributeValueMemberS{Value: eventSK},
		},
		UpdateExpression: aws.String("SET PublishStatus = :status, PublishAttempts = :attempts, LastPublishTry = :lastTry, ErrorMessage = :error"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":   &types.AttributeValueMemberS{Value: status},
			":attempts": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", attempts)},
			":lastTry":  &types.AttributeValueMemberS{Value: now},
			":error":    &types.AttributeValueMemberS{Value: errorMsg},
		},
		ConditionExpression: aws.String("attribute_exists(PK)"),
	}

	if _, err := es.client.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("failed to mark event as failed: %w", err)
	}

	return nil
}
