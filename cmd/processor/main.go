// Package main implements the Lambda handler that drives the extraction
// pipeline. It consumes S3 object-created events and EventBridge schedules.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"time"

	awsevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"invoiceflow/application/commands"
	"invoiceflow/infrastructure/config"
	"invoiceflow/infrastructure/di"
)

var container *di.Container

func init() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err = di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
}

// handleS3Event runs the pipeline for every object in the batch. A failed
// record does not block the rest; the error is returned at the end so the
// batch is retried by Lambda.
func handleS3Event(ctx context.Context, event awsevents.S3Event) error {
	var firstErr error

	for _, record := range event.Records {
		key, err := url.QueryUnescape(record.S3.Object.Key)
		if err != nil {
			key = record.S3.Object.Key
		}

		cmd := commands.ProcessDocumentCommand{
			Bucket:    record.S3.Bucket.Name,
			Key:       key,
			SizeBytes: record.S3.Object.Size,
			RequestID: record.ResponseElements["x-amz-request-id"],
		}

		container.Logger.Info("processing uploaded document",
			zap.String("bucket", cmd.Bucket),
			zap.String("key", cmd.Key),
		)

		if err := container.CommandBus.Send(ctx, cmd); err != nil {
			container.Logger.Error("document processing failed",
				zap.String("bucket", cmd.Bucket),
				zap.String("key", cmd.Key),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// handleScheduledEvent runs periodic maintenance: release documents stuck
// in the processing state and drain the event outbox.
func handleScheduledEvent(ctx context.Context) error {
	cmd := commands.CleanupStaleDocumentsCommand{
		OlderThan: 30 * time.Minute,
		Limit:     100,
	}

	if err := container.CommandBus.Send(ctx, cmd); err != nil {
		container.Logger.Error("stale document cleanup failed", zap.Error(err))
		return err
	}

	if err := container.OutboxProcessor.ProcessOnce(ctx); err != nil {
		container.Logger.Error("outbox drain failed", zap.Error(err))
		return err
	}

	return nil
}

// handler dispatches on the event shape: S3 notification batches from the
// upload bucket, EventBridge schedules for maintenance, or a direct
// ProcessDocumentCommand invocation for manual runs.
func handler(ctx context.Context, event json.RawMessage) error {
	var s3Event awsevents.S3Event
	if err := json.Unmarshal(event, &s3Event); err == nil && len(s3Event.Records) > 0 && s3Event.Records[0].S3.Bucket.Name != "" {
		return handleS3Event(ctx, s3Event)
	}

	var scheduledEvent awsevents.CloudWatchEvent
	if err := json.Unmarshal(event, &scheduledEvent); err == nil && scheduledEvent.DetailType == "Scheduled Event" {
		return handleScheduledEvent(ctx)
	}

	var cmd commands.ProcessDocumentCommand
	if err := json.Unmarshal(event, &cmd); err == nil && cmd.Bucket != "" && cmd.Key != "" {
		return container.CommandBus.Send(ctx, cmd)
	}

	return fmt.Errorf("unable to parse event: %s", string(event))
}

func main() {
	lambda.Start(handler)
}
