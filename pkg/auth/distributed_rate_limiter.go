package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DistributedRateLimiter counts requests in DynamoDB so limits hold
// across Lambda instances. Counters live in the pipeline table under
// RATELIMIT keys and expire via TTL.
type DistributedRateLimiter struct {
	client    *dynamodb.Client
	tableName string
	limit     int
	window    time.Duration
	keyPrefix string
}

type rateLimitEntry struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	Count     int    `dynamodbav:"Count"`
	WindowEnd string `dynamodbav:"WindowEnd"`
	TTL       int64  `dynamodbav:"TTL"`
}

// NewDistributedIPRateLimiter creates a per-IP limiter with a one minute window
func NewDistributedIPRateLimiter(client *dynamodb.Client, tableName string, requestsPerMinute int) *DistributedRateLimiter {
	return NewDistributedRateLimiter(client, tableName, requestsPerMinute, time.Minute, "IP")
}

// NewDistributedUserRateLimiter creates a per-user limiter with a one minute window
func NewDistributedUserRateLimiter(client *dynamodb.Client, tableName string, requestsPerMinute int) *DistributedRateLimiter {
	return NewDistributedRateLimiter(client, tableName, requestsPerMinute, time.Minute, "USER")
}

// NewDistributedRateLimiter creates a limiter over an arbitrary window
func NewDistributedRateLimiter(client *dynamodb.Client, tableName string, limit int, window time.Duration, keyPrefix string) *DistributedRateLimiter {
	return &DistributedRateLimiter{
		client:    client,
		tableName: tableName,
		limit:     limit,
		window:    window,
		keyPrefix: keyPrefix,
	}
}

func (r *DistributedRateLimiter) itemKey(key string, windowStart time.Time) map[string]types.AttributeValue {
	pk := fmt.Sprintf("RATELIMIT#%s#%s#%d", r.keyPrefix, key, windowStart.Unix())
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: "RATELIMIT"},
	}
}

// Allow atomically increments the window counter and reports whether the
// request is under the limit. Without a configured client it fails open,
// as it does on store errors.
func (r *DistributedRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if r.client == nil {
		return true, nil
	}

	now := time.Now()
	windowStart := now.Truncate(r.window)
	windowEnd := windowStart.Add(r.window)

	result, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 r.itemKey(key, windowStart),
		UpdateExpression:    aws.String("SET #count = if_not_exists(#count, :zero) + :one, WindowEnd = :end, #ttl = :ttl"),
		ConditionExpression: aws.String("attribute_not_exists(#count) OR #count < :limit"),
		ExpressionAttributeNames: map[string]string{
			"#count": "Count",
			"#ttl":   "TTL",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero":  &types.AttributeValueMemberN{Value: "0"},
			":one":   &types.AttributeValueMemberN{Value: "1"},
			":limit": &types.AttributeValueMemberN{Value: strconv.Itoa(r.limit)},
			":end":   &types.AttributeValueMemberS{Value: windowEnd.Format(time.RFC3339)},
			":ttl":   &types.AttributeValueMemberN{Value: strconv.FormatInt(windowEnd.Add(time.Hour).Unix(), 10)},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return false, nil
		}
		return true, fmt.Errorf("rate limiter store error (failing open): %w", err)
	}

	var entry rateLimitEntry
	if err := attributevalue.UnmarshalMap(result.Attributes, &entry); err != nil {
		return true, fmt.Errorf("rate limiter entry unreadable (failing open): %w", err)
	}
	return entry.Count <= r.limit, nil
}

// GetRemaining returns the requests left in the current window and the
// time until it resets
func (r *DistributedRateLimiter) GetRemaining(ctx context.Context, key string) (int, time.Duration, error) {
	windowStart := time.Now().Truncate(r.window)
	windowEnd := windowStart.Add(r.window)

	if r.client == nil {
		return r.limit, r.window, nil
	}

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       r.itemKey(key, windowStart),
	})
	if err != nil || result.Item == nil {
		return r.limit, time.Until(windowEnd), nil
	}

	var entry rateLimitEntry
	if err := attributevalue.UnmarshalMap(result.Item, &entry); err != nil {
		return r.limit, time.Until(windowEnd), fmt.Errorf("rate limiter entry unreadable: %w", err)
	}

	remaining := r.limit - entry.Count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, time.Until(windowEnd), nil
}

// Reset clears the current window counter for a key
func (r *DistributedRateLimiter) Reset(ctx context.Context, key string) error {
	if r.client == nil {
		return nil
	}

	windowStart := time.Now().Truncate(r.window)
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       r.itemKey(key, windowStart),
	})
	return err
}

// SetHeaders fills standard rate limit headers for an HTTP response
func (r *DistributedRateLimiter) SetHeaders(ctx context.Context, key string, headers map[string]string) error {
	remaining, resetIn, err := r.GetRemaining(ctx, key)
	if err != nil {
		return err
	}
	headers["X-RateLimit-Limit"] = strconv.Itoa(r.limit)
	headers["X-RateLimit-Remaining"] = strconv.Itoa(remaining)
	headers["X-RateLimit-Reset"] = strconv.FormatInt(time.Now().Add(resetIn).Unix(), 10)
	return nil
}
