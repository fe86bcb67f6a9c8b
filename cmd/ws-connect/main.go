// Package main implements the WebSocket connect/disconnect Lambda handler.
// Clients subscribe here to receive live document status updates.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"invoiceflow/infrastructure/config"
	"invoiceflow/pkg/auth"
)

var (
	dynamoClient *dynamodb.Client
	validator    *auth.JWTValidator
	tableName    string
)

func init() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	tableName = cfg.DynamoDBTable

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}
	dynamoClient = dynamodb.NewFromConfig(awsCfg)

	validator, err = auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
	})
	if err != nil {
		log.Fatalf("Failed to create JWT validator: %v", err)
	}
}

func storeConnection(ctx context.Context, connectionID, userID, endpoint string) error {
	ttl := time.Now().Add(24 * time.Hour).Unix()

	item := map[string]types.AttributeValue{
		"PK":           &types.AttributeValueMemberS{Value: fmt.Sprintf("CONNECTION#%s", connectionID)},
		"SK":           &types.AttributeValueMemberS{Value: "METADATA"},
		"ConnectionID": &types.AttributeValueMemberS{Value: connectionID},
		"UserID":       &types.AttributeValueMemberS{Value: userID},
		"Endpoint":     &types.AttributeValueMemberS{Value: endpoint},
		"ConnectedAt":  &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		"TTL":          &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", ttl)},
	}

	_, err := dynamoClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to store connection: %w", err)
	}
	return nil
}

func deleteConnection(ctx context.Context, connectionID string) error {
	_, err := dynamoClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("CONNECTION#%s", connectionID)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	return nil
}

func handleConnect(ctx context.Context, request events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	token := request.QueryStringParameters["token"]
	if token == "" {
		token = request.Headers["Authorization"]
	}

	claims, err := validator.ValidateToken(token)
	if err != nil {
		log.Printf("WebSocket authentication failed: %v", err)
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusUnauthorized,
			Body:       `{"error": "unauthorized"}`,
		}, nil
	}

	endpoint := fmt.Sprintf("%s/%s", request.RequestContext.DomainName, request.RequestContext.Stage)
	if err := storeConnection(ctx, request.RequestContext.ConnectionID, claims.UserID, endpoint); err != nil {
		log.Printf("Failed to store connection: %v", err)
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       `{"error": "internal server error"}`,
		}, nil
	}

	welcome, _ := json.Marshal(map[string]interface{}{
		"type":         "connection_established",
		"connectionId": request.RequestContext.ConnectionID,
		"userId":       claims.UserID,
		"timestamp":    time.Now().Unix(),
	})

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Body:       string(welcome),
	}, nil
}

func handleDisconnect(ctx context.Context, request events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	if err := deleteConnection(ctx, request.RequestContext.ConnectionID); err != nil {
		log.Printf("Failed to delete connection: %v", err)
	}
	return events.APIGatewayProxyResponse{StatusCode: http.StatusOK}, nil
}

func handler(ctx context.Context, request events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	switch request.RequestContext.RouteKey {
	case "$disconnect":
		return handleDisconnect(ctx, request)
	default:
		return handleConnect(ctx, request)
	}
}

func main() {
	lambda.Start(handler)
}
