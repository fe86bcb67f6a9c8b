package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"invoiceflow/application/ports"
	"invoiceflow/domain/core/entities"
	"invoiceflow/domain/core/valueobjects"
	appErrors "invoiceflow/pkg/errors"
)

// DocumentRepository implements the DocumentRepository port using
// DynamoDB single-table storage.
//
// Key layout:
//
//	PK=DOC#<id>          SK=METADATA
//	GSI1PK=LOC#<b>/<k>   GSI1SK=METADATA   (location lookups)
//	GSI2PK=STATUS#<s>    GSI2SK=<updated>  (status scans, oldest first)
type DocumentRepository struct {
	client        *dynamodb.Client
	tableName     string
	indexName     string
	gsi2IndexName string
	logger        *zap.Logger
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(client *dynamodb.Client, tableName, indexName, gsi2IndexName string, logger *zap.Logger) ports.DocumentRepository {
	return &DocumentRepository{
		client:        client,
		tableName:     tableName,
		indexName:     indexName,
		gsi2IndexName: gsi2IndexName,
		logger:        logger,
	}
}

// documentItem represents the DynamoDB item structure for a document
type documentItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	GSI1PK      string `dynamodbav:"GSI1PK"`
	GSI1SK      string `dynamodbav:"GSI1SK"`
	GSI2PK      string `dynamodbav:"GSI2PK"`
	GSI2SK      string `dynamodbav:"GSI2SK"`
	EntityType  string `dynamodbav:"EntityType"`
	DocumentID  string `dynamodbav:"DocumentID"`
	Bucket      string `dynamodbav:"Bucket"`
	ObjectKey   string `dynamodbav:"ObjectKey"`
	Status      string `dynamodbav:"Status"`
	ContentType string `dynamodbav:"ContentType"`
	SizeBytes   int64  `dynamodbav:"SizeBytes"`
	FailReason  string `dynamodbav:"FailReason,omitempty"`
	CreatedAt   string `dynamodbav:"CreatedAt"`
	UpdatedAt   string `dynamodbav:"UpdatedAt"`
	Version     int    `dynamodbav:"Version"`
}

func documentPK(id valueobjects.DocumentID) string {
	return fmt.Sprintf("DOC#%s", id.String())
}

func locationGSI1PK(location valueobjects.DocumentLocation) string {
	return fmt.Sprintf("LOC#%s/%s", location.Bucket(), location.Key())
}

// Save persists a document to DynamoDB
func (r *DocumentRepository) Save(ctx context.Context, doc *entities.Document) error {
	item := documentItem{
		PK:          documentPK(doc.ID()),
		SK:          "METADATA",
		GSI1PK:      locationGSI1PK(doc.Location()),
		GSI1SK:      "METADATA",
		GSI2PK:      fmt.Sprintf("STATUS#%s", doc.Status()),
		GSI2SK:      doc.UpdatedAt().Format(time.RFC3339Nano),
		EntityType:  "DOCUMENT",
		DocumentID:  doc.ID().String(),
		Bucket:      doc.Location().Bucket(),
		ObjectKey:   doc.Location().Key(),
		Status:      string(doc.Status()),
		ContentType: doc.ContentType(),
		SizeBytes:   doc.SizeBytes(),
		FailReason:  doc.FailReason(),
		CreatedAt:   doc.CreatedAt().Format(time.RFC3339),
		UpdatedAt:   doc.UpdatedAt().Format(time.RFC3339),
		Version:     doc.Version(),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		r.logger.Error("failed to save document",
			zap.Error(err),
			zap.String("document_id", doc.ID().String()),
		)
		return appErrors.NewDatabaseError("save document", err)
	}

	r.logger.Debug("document saved",
		zap.String("document_id", doc.ID().String()),
		zap.String("status", string(doc.Status())),
	)

	return nil
}

// GetByID retrieves a document by its ID
func (r *DocumentRepository) GetByID(ctx context.Context, id valueobjects.DocumentID) (*entities.Document, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: documentPK(id)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	}

	result, err := r.client.GetItem(ctx, input)
	if err != nil {
		return nil, appErrors.NewDatabaseError("get document", err)
	}
	if result.Item == nil {
		return nil, appErrors.NewNotFoundError("document " + id.String())
	}

	var item documentItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}

	return r.reconstruct(item)
}

// GetByLocation retrieves the document registered for a storage location
func (r *DocumentRepository) GetByLocation(ctx context.Context, location valueobjects.DocumentLocation) (*entities.Document, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(r.indexName),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: locationGSI1PK(location)},
			":sk": &types.AttributeValueMemberS{Value: "METADATA"},
		},
		Limit: aws.Int32(1),
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, appErrors.NewDatabaseError("query document by location", err)
	}
	if len(result.Items) == 0 {
		return nil, appErrors.NewNotFoundError("document at " + location.String())
	}

	var item documentItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}

	return r.reconstruct(item)
}

// ListByStatus retrieves documents in the given status, oldest first
func (r *DocumentRepository) ListByStatus(ctx context.Context, status entities.DocumentStatus, limit int) ([]*entities.Document, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(r.gsi2IndexName),
		KeyConditionExpression: aws.String("GSI2PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("STATUS#%s", status)},
		},
		ScanIndexForward: aws.Bool(true),
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, appErrors.NewDatabaseError("query documents by status", err)
	}

	docs := make([]*entities.Document, 0, len(result.Items))
	for _, raw := range result.Items {
		var item documentItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.logger.Warn("failed to unmarshal document item", zap.Error(err))
			continue
		}
		doc, err := r.reconstruct(item)
		if err != nil {
			r.logger.Warn("failed to reconstruct document",
				zap.String("document_id", item.DocumentID),
				zap.Error(err),
			)
			continue
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// Delete removes a document
func (r *DocumentRepository) Delete(ctx context.Context, id valueobjects.DocumentID) error {
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: documentPK(id)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	}

	if _, err := r.client.DeleteItem(ctx, input); err != nil {
		return appErrors.NewDatabaseError("delete document", err)
	}

	r.logger.Debug("document deleted", zap.String("document_id", id.String()))
	return nil
}

// DeleteBatch removes multiple documents in batched writes
func (r *DocumentRepository) DeleteBatch(ctx context.Context, ids []valueobjects.DocumentID) error {
	// DynamoDB caps batch writes at 25 items
	const batchSize = 25

	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}

		requests := make([]types.WriteRequest, 0, end-start)
		for _, id := range ids[start:end] {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{
					Key: map[string]types.AttributeValue{
						"PK": &types.AttributeValueMemberS{Value: documentPK(id)},
						"SK": &types.AttributeValueMemberS{Value: "METADATA"},
					},
				},
			})
		}

		input := &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				r.tableName: requests,
			},
		}

		result, err := r.client.BatchWriteItem(ctx, input)
		if err != nil {
			return appErrors.NewDatabaseError("batch delete documents", err)
		}
		if len(result.UnprocessedItems) > 0 {
			r.logger.Warn("batch delete left unprocessed items",
				zap.Int("unprocessed", len(result.UnprocessedItems[r.tableName])),
			)
		}
	}

	return nil
}

// reconstruct rebuilds the domain entity from an item
func (r *DocumentRepository) reconstruct(item documentItem) (*entities.Document, error) {
	id, err := valueobjects.NewDocumentIDFromString(item.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("stored document has invalid ID %q: %w", item.DocumentID, err)
	}
	location, err := valueobjects.NewDocumentLocation(item.Bucket, item.ObjectKey)
	if err != nil {
		return nil, fmt.Errorf("stored document has invalid location: %w", err)
	}

	createdAt, _ := time.Parse(time.RFC3339, item.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, item.UpdatedAt)

	return entities.ReconstructDocument(
		id,
		location,
		entities.DocumentStatus(item.Status),
		item.ContentType,
		item.SizeBytes,
		item.FailReason,
		createdAt,
		updatedAt,
		item.Version,
	), nil
}
