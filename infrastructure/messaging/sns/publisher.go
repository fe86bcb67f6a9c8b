package sns

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"go.uber.org/zap"

	"invoiceflow/application/ports"
	"invoiceflow/domain/core/valueobjects"
	"invoiceflow/domain/invoice"
)

// NotificationPublisher delivers pipeline completion notices over SNS.
// Messages carry a "status" attribute so subscribers can filter without
// parsing the body.
type NotificationPublisher struct {
	client   *sns.Client
	topicARN string
	logger   *zap.Logger
}

// NewNotificationPublisher creates an SNS-backed notification publisher
func NewNotificationPublisher(client *sns.Client, topicARN string, logger *zap.Logger) ports.NotificationPublisher {
	return &NotificationPublisher{
		client:   client,
		topicARN: topicARN,
		logger:   logger,
	}
}

type processedMessage struct {
	DocumentID  string          `json:"documentId"`
	Status      string          `json:"status"`
	Record      *invoice.Record `json:"record"`
	CompletedAt string          `json:"completedAt"`
}

type failedMessage struct {
	DocumentID string `json:"documentId"`
	Status     string `json:"status"`
	Stage      string `json:"stage"`
	Reason     string `json:"reason"`
	FailedAt   string `json:"failedAt"`
}

// PublishProcessed announces a successfully extracted invoice
func (p *NotificationPublisher) PublishProcessed(ctx context.Context, documentID valueobjects.DocumentID, record *invoice.Record) error {
	msg := processedMessage{
		DocumentID:  documentID.String(),
		Status:      "processed",
		Record:      record,
		CompletedAt: time.Now().UTC().Format(time.RFC3339),
	}

	subject := "Invoice processed: " + documentID.String()
	if err := p.publish(ctx, subject, msg, "processed"); err != nil {
		return err
	}

	p.logger.Info("processed notification published",
		zap.String("document_id", documentID.String()))
	return nil
}

// PublishFailed announces a terminal processing failure
func (p *NotificationPublisher) PublishFailed(ctx context.Context, documentID valueobjects.DocumentID, stage, reason string) error {
	msg := failedMessage{
		DocumentID: documentID.String(),
		Status:     "failed",
		Stage:      stage,
		Reason:     reason,
		FailedAt:   time.Now().UTC().Format(time.RFC3339),
	}

	subject := "Invoice processing failed: " + documentID.String()
	if err := p.publish(ctx, subject, msg, "failed"); err != nil {
		return err
	}

	p.logger.Info("failure notification published",
		zap.String("document_id", documentID.String()),
		zap.String("stage", stage))
	return nil
}

func (p *NotificationPublisher) publish(ctx context.Context, subject string, body interface{}, status string) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(string(payload)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"status": {
				DataType:    aws.String("String"),
				StringValue: aws.String(status),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}
