// Package main implements the status notification Lambda. It receives
// pipeline lifecycle events from EventBridge and pushes them to connected
// WebSocket clients so uploads can be tracked live.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwtypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"invoiceflow/infrastructure/config"
)

var (
	awsCfg       aws.Config
	dynamoClient *dynamodb.Client
	tableName    string
)

// statusMessage is the frame pushed to WebSocket clients
type statusMessage struct {
	Type      string                 `json:"type"`
	Timestamp int64                  `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func init() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	tableName = cfg.DynamoDBTable

	awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}
	dynamoClient = dynamodb.NewFromConfig(awsCfg)
}

func managementClient(endpoint string) *apigatewaymanagementapi.Client {
	return apigatewaymanagementapi.NewFromConfig(awsCfg, func(o *apigatewaymanagementapi.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s", endpoint))
	})
}

// activeConnections returns connectionID -> management endpoint for every
// registered WebSocket client.
func activeConnections(ctx context.Context) (map[string]string, error) {
	connections := make(map[string]string)

	input := &dynamodb.ScanInput{
		TableName:        aws.String(tableName),
		FilterExpression: aws.String("begins_with(PK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":prefix": &types.AttributeValueMemberS{Value: "CONNECTION#"},
		},
	}

	paginator := dynamodb.NewScanPaginator(dynamoClient, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connections: %w", err)
		}
		for _, item := range page.Items {
			connID, _ := item["ConnectionID"].(*types.AttributeValueMemberS)
			endpoint, _ := item["Endpoint"].(*types.AttributeValueMemberS)
			if connID != nil && endpoint != nil {
				connections[connID.Value] = endpoint.Value
			}
		}
	}

	return connections, nil
}

func removeStaleConnection(ctx context.Context, connectionID string) {
	_, err := dynamoClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("CONNECTION#%s", connectionID)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		log.Printf("Failed to remove stale connection %s: %v", connectionID, err)
	}
}

func sendToConnection(ctx context.Context, client *apigatewaymanagementapi.Client, connectionID string, message []byte) error {
	_, err := client.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(connectionID),
		Data:         message,
	})
	if err != nil {
		var gone *apigwtypes.GoneException
		if errors.As(err, &gone) {
			removeStaleConnection(ctx, connectionID)
			return nil
		}
		return fmt.Errorf("failed to post to connection: %w", err)
	}
	return nil
}

func broadcast(ctx context.Context, eventType string, payload map[string]interface{}) error {
	message, err := json.Marshal(statusMessage{
		Type:      eventType,
		Timestamp: time.Now().Unix(),
		Data:      payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	connections, err := activeConnections(ctx)
	if err != nil {
		return err
	}
	if len(connections) == 0 {
		return nil
	}

	clients := make(map[string]*apigatewaymanagementapi.Client)
	sent := 0
	failed := 0

	for connID, endpoint := range connections {
		client, ok := clients[endpoint]
		if !ok {
			client = managementClient(endpoint)
			clients[endpoint] = client
		}
		if err := sendToConnection(ctx, client, connID, message); err != nil {
			log.Printf("Failed to notify connection %s: %v", connID, err)
			failed++
		} else {
			sent++
		}
	}

	log.Printf("Broadcast %s: %d sent, %d failed", eventType, sent, failed)
	if failed > 0 && sent == 0 {
		return fmt.Errorf("all notifications failed")
	}
	return nil
}

// handler forwards pipeline lifecycle events to WebSocket clients. Only
// document and invoice events are pushed; anything else is ignored.
func handler(ctx context.Context, event events.CloudWatchEvent) error {
	if !strings.HasPrefix(event.DetailType, "document.") && !strings.HasPrefix(event.DetailType, "invoice.") {
		return nil
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(event.Detail, &payload); err != nil {
		return fmt.Errorf("failed to parse event detail: %w", err)
	}

	return broadcast(ctx, event.DetailType, payload)
}

func main() {
	lambda.Start(handler)
}
