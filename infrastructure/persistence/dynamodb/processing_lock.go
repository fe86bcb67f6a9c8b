package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"invoiceflow/application/ports"
	"invoiceflow/domain/core/valueobjects"
)

// ProcessingLock implements per-document mutual exclusion with DynamoDB
// conditional writes. Duplicate storage event deliveries race to the
// same lock item; only one worker wins. Expired locks are reclaimable,
// and the item carries a TTL so DynamoDB eventually removes leftovers
// from crashed workers.
type ProcessingLock struct {
	client    *dynamodb.Client
	tableName string
	ownerID   string
	logger    *zap.Logger
}

// lockRecord represents a lock item in DynamoDB
type lockRecord struct {
	PK         string `dynamodbav:"PK"` // LOCK#<document_id>
	SK         string `dynamodbav:"SK"` // LOCK
	Owner      string `dynamodbav:"Owner"`
	AcquiredAt string `dynamodbav:"AcquiredAt"`
	ExpiresAt  string `dynamodbav:"ExpiresAt"`
	TTL        int64  `dynamodbav:"TTL"`
}

// NewProcessingLock creates a new processing lock instance. The owner
// identity is stable per worker process so Release and Extend only
// touch this worker's own locks.
func NewProcessingLock(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.ProcessingLock {
	hostname, _ := os.Hostname()
	return &ProcessingLock{
		client:    client,
		tableName: tableName,
		ownerID:   fmt.Sprintf("%s-%s", hostname, uuid.NewString()[:8]),
		logger:    logger,
	}
}

func lockPK(documentID valueobjects.DocumentID) string {
	return fmt.Sprintf("LOCK#%s", documentID.String())
}

// Acquire takes the lock for a document, failing if held by another
// live worker
func (pl *ProcessingLock) Acquire(ctx context.Context, documentID valueobjects.DocumentID, ttl time.Duration) error {
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)

	item := map[string]types.AttributeValue{
		"PK":         &types.AttributeValueMemberS{Value: lockPK(documentID)},
		"SK":         &types.AttributeValueMemberS{Value: "LOCK"},
		"Owner":      &types.AttributeValueMemberS{Value: pl.ownerID},
		"AcquiredAt": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		"ExpiresAt":  &types.AttributeValueMemberS{Value: expiresAt.Format(time.RFC3339)},
		"TTL":        &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expiresAt.Unix())},
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(pl.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK) OR ExpiresAt < :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	}

	if _, err := pl.client.PutItem(ctx, input); err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			pl.logger.Debug("lock already held",
				zap.String("document_id", documentID.String()),
			)
			return fmt.Errorf("lock already held for document %s", documentID.String())
		}
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	pl.logger.Debug("lock acquired",
		zap.String("document_id", documentID.String()),
		zap.String("owner", pl.ownerID),
		zap.Duration("ttl", ttl),
	)

	return nil
}

// Release frees the lock if this worker still owns it
func (pl *ProcessingLock) Release(ctx context.Context, documentID valueobjects.DocumentID) error {
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(pl.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: lockPK(documentID)},
			"SK": &types.AttributeValueMemberS{Value: "LOCK"},
		},
		ConditionExpression: aws.String("#owner = :owner"),
		ExpressionAttributeNames: map[string]string{
			"#owner": "Owner",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: pl.ownerID},
		},
	}

	if _, err := pl.client.DeleteItem(ctx, input); err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			// Already expired or taken over, nothing left to release
			pl.logger.Debug("lock already released or reclaimed",
				zap.String("document_id", documentID.String()),
			)
			return nil
		}
		return fmt.Errorf("failed to release lock: %w", err)
	}

	pl.logger.Debug("lock released",
		zap.String("document_id", documentID.String()),
		zap.String("owner", pl.ownerID),
	)

	return nil
}

// Extend refreshes the lock TTL while the pipeline is still working on
// the document
func (pl *ProcessingLock) Extend(ctx context.Context, documentID valueobjects.DocumentID, ttl time.Duration) error {
	expiresAt := time.Now().UTC().Add(ttl)

	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(pl.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: lockPK(documentID)},
			"SK": &types.AttributeValueMemberS{Value: "LOCK"},
		},
		UpdateExpression:    aws.String("SET ExpiresAt = :expires, #ttl = :ttl"),
		ConditionExpression: aws.String("#owner = :owner"),
		ExpressionAttributeNames: map[string]string{
			"#owner": "Owner",
			"#ttl":   "TTL",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner":   &types.AttributeValueMemberS{Value: pl.ownerID},
			":expires": &types.AttributeValueMemberS{Value: expiresAt.Format(time.RFC3339)},
			":ttl":     &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expiresAt.Unix())},
		},
	}

	if _, err := pl.client.UpdateItem(ctx, input); err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			return fmt.Errorf("lock for document %s is no longer held by this worker", documentID.String())
		}
		return fmt.Errorf("failed to extend lock: %w", err)
	}

	return nil
}
