package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"invoiceflow/application/ports"
	"invoiceflow/domain/core/valueobjects"
	"invoiceflow/domain/invoice"
	"invoiceflow/infrastructure/persistence/schema"
	appErrors "invoiceflow/pkg/errors"
)

// InvoiceRepository stores extraction records alongside their document
// item in the same table.
//
// Key layout:
//
//	PK=DOC#<id>      SK=INVOICE
//	GSI1PK=INVOICE   GSI1SK=<storedAt>   (listing, newest or oldest first)
//
// The full record is stored as a JSON document so the wire field names
// survive round trips exactly; listing attributes are lifted to the top
// level for filtering.
type InvoiceRepository struct {
	client    *dynamodb.Client
	tableName string
	indexName string
	codec     *schema.RecordCodec
	logger    *zap.Logger
}

// NewInvoiceRepository creates a new InvoiceRepository
func NewInvoiceRepository(client *dynamodb.Client, tableName, indexName string, logger *zap.Logger) ports.InvoiceRepository {
	return &InvoiceRepository{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		codec:     schema.NewRecordCodec(),
		logger:    logger,
	}
}

// invoiceItem represents the DynamoDB item structure for a stored record
type invoiceItem struct {
	PK            string  `dynamodbav:"PK"`
	SK            string  `dynamodbav:"SK"`
	GSI1PK        string  `dynamodbav:"GSI1PK"`
	GSI1SK        string  `dynamodbav:"GSI1SK"`
	EntityType    string  `dynamodbav:"EntityType"`
	DocumentID    string  `dynamodbav:"DocumentID"`
	Record        string  `dynamodbav:"Record"`
	InvoiceNumber string  `dynamodbav:"InvoiceNumber,omitempty"`
	VendorName    string  `dynamodbav:"VendorName,omitempty"`
	VendorNameLC  string  `dynamodbav:"VendorNameLC,omitempty"`
	TotalAmount   float64 `dynamodbav:"TotalAmount,omitempty"`
	Currency      string  `dynamodbav:"Currency"`
	Confidence    float64 `dynamodbav:"Confidence"`
	StoredAt      string  `dynamodbav:"StoredAt"`
}

// Save persists the extraction record for a document
func (r *InvoiceRepository) Save(ctx context.Context, documentID valueobjects.DocumentID, record *invoice.Record) error {
	payload, err := r.codec.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	storedAt := time.Now().UTC().Format(time.RFC3339Nano)
	item := invoiceItem{
		PK:         documentPK(documentID),
		SK:         "INVOICE",
		GSI1PK:     "INVOICE",
		GSI1SK:     storedAt,
		EntityType: "INVOICE",
		DocumentID: documentID.String(),
		Record:     string(payload),
		Currency:   record.InvoiceData.Currency,
		Confidence: record.Confidence.Overall,
		StoredAt:   storedAt,
	}
	if record.InvoiceData.InvoiceNumber != nil {
		item.InvoiceNumber = *record.InvoiceData.InvoiceNumber
	}
	if record.InvoiceData.VendorName != nil {
		item.VendorName = *record.InvoiceData.VendorName
		item.VendorNameLC = strings.ToLower(*record.InvoiceData.VendorName)
	}
	if record.InvoiceData.TotalAmount != nil {
		item.TotalAmount = *record.InvoiceData.TotalAmount
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal invoice item: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		r.logger.Error("failed to save invoice record",
			zap.Error(err),
			zap.String("document_id", documentID.String()),
		)
		return appErrors.NewDatabaseError("save invoice", err)
	}

	r.logger.Debug("invoice record saved",
		zap.String("document_id", documentID.String()),
		zap.Float64("confidence", record.Confidence.Overall),
	)

	return nil
}

// GetByDocumentID retrieves the extraction record for a document
func (r *InvoiceRepository) GetByDocumentID(ctx context.Context, documentID valueobjects.DocumentID) (*invoice.Record, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: documentPK(documentID)},
			"SK": &types.AttributeValueMemberS{Value: "INVOICE"},
		},
	}

	result, err := r.client.GetItem(ctx, input)
	if err != nil {
		return nil, appErrors.NewDatabaseError("get invoice", err)
	}
	if result.Item == nil {
		return nil, appErrors.NewNotFoundError("invoice for document " + documentID.String())
	}

	var item invoiceItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal invoice item: %w", err)
	}

	record, err := r.codec.Unmarshal([]byte(item.Record))
	if err != nil {
		return nil, fmt.Errorf("stored record for %s is corrupt: %w", documentID.String(), err)
	}

	return record, nil
}

// List retrieves stored invoice records with pagination. The offset is
// applied client side; vendor filtering uses a substring match on the
// lowercased vendor name.
func (r *InvoiceRepository) List(ctx context.Context, criteria ports.ListCriteria) ([]*ports.StoredInvoice, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value("INVOICE"))
	builder := expression.NewBuilder().WithKeyCondition(keyCond)

	if criteria.Vendor != "" {
		builder = builder.WithFilter(
			expression.Contains(expression.Name("VendorNameLC"), strings.ToLower(criteria.Vendor)),
		)
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build list expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(!criteria.OrderDesc),
	}

	limit := criteria.Limit
	if limit <= 0 {
		limit = 50
	}

	invoices := make([]*ports.StoredInvoice, 0, limit)
	skipped := 0
	paginator := dynamodb.NewQueryPaginator(r.client, input)

	for paginator.HasMorePages() && len(invoices) < limit {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, appErrors.NewDatabaseError("list invoices", err)
		}

		for _, raw := range page.Items {
			if skipped < criteria.Offset {
				skipped++
				continue
			}
			if len(invoices) >= limit {
				break
			}

			var item invoiceItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("failed to unmarshal invoice item", zap.Error(err))
				continue
			}

			stored, err := r.toStoredInvoice(item)
			if err != nil {
				r.logger.Warn("skipping unreadable invoice item",
					zap.String("document_id", item.DocumentID),
					zap.Error(err),
				)
				continue
			}
			invoices = append(invoices, stored)
		}
	}

	return invoices, nil
}

// Delete removes the extraction record for a document
func (r *InvoiceRepository) Delete(ctx context.Context, documentID valueobjects.DocumentID) error {
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: documentPK(documentID)},
			"SK": &types.AttributeValueMemberS{Value: "INVOICE"},
		},
		ConditionExpression: aws.String("attribute_exists(PK)"),
	}

	if _, err := r.client.DeleteItem(ctx, input); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return appErrors.NewNotFoundError("invoice for document " + documentID.String())
		}
		return appErrors.NewDatabaseError("delete invoice", err)
	}

	r.logger.Debug("invoice record deleted", zap.String("document_id", documentID.String()))
	return nil
}

func (r *InvoiceRepository) toStoredInvoice(item invoiceItem) (*ports.StoredInvoice, error) {
	id, err := valueobjects.NewDocumentIDFromString(item.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("stored invoice has invalid document ID %q: %w", item.DocumentID, err)
	}

	record, err := r.codec.Unmarshal([]byte(item.Record))
	if err != nil {
		return nil, fmt.Errorf("stored record is corrupt: %w", err)
	}

	storedAt, _ := time.Parse(time.RFC3339Nano, item.StoredAt)

	return &ports.StoredInvoice{
		DocumentID: id,
		Record:     record,
		StoredAt:   storedAt,
	}, nil
}
