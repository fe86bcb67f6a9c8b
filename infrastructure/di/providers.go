package di

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	awstextract "github.com/aws/aws-sdk-go-v2/service/textract"
	"go.uber.org/zap"

	"invoiceflow/application/commands"
	"invoiceflow/application/commands/bus"
	commandhandlers "invoiceflow/application/commands/handlers"
	"invoiceflow/application/ports"
	"invoiceflow/application/queries"
	querybus "invoiceflow/application/queries/bus"
	queryhandlers "invoiceflow/application/queries/handlers"
	"invoiceflow/application/services"
	"invoiceflow/domain/extraction"
	"invoiceflow/infrastructure/analysis/textract"
	"invoiceflow/infrastructure/config"
	"invoiceflow/infrastructure/messaging/eventbridge"
	"invoiceflow/infrastructure/messaging/sns"
	"invoiceflow/infrastructure/persistence/dynamodb"
	"invoiceflow/infrastructure/storage/s3"
	"invoiceflow/pkg/auth"
	"invoiceflow/pkg/extensions"
	"invoiceflow/pkg/observability"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideTextractClient creates a Textract client
func ProvideTextractClient(awsCfg aws.Config) *awstextract.Client {
	return awstextract.NewFromConfig(awsCfg)
}

// ProvideS3Client creates an S3 client
func ProvideS3Client(awsCfg aws.Config) *awss3.Client {
	return awss3.NewFromConfig(awsCfg)
}

// ProvideSNSClient creates an SNS client
func ProvideSNSClient(awsCfg aws.Config) *awssns.Client {
	return awssns.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideDocumentRepository creates the document repository
func ProvideDocumentRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.DocumentRepository {
	return dynamodb.NewDocumentRepository(
		client,
		cfg.DynamoDBTable,
		cfg.IndexName,
		cfg.GSI2IndexName,
		logger,
	)
}

// ProvideInvoiceRepository creates the invoice repository
func ProvideInvoiceRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.InvoiceRepository {
	return dynamodb.NewInvoiceRepository(
		client,
		cfg.DynamoDBTable,
		cfg.IndexName,
		logger,
	)
}

// ProvideProcessingLock creates the per-document processing lock
func ProvideProcessingLock(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.ProcessingLock {
	return dynamodb.NewProcessingLock(client, cfg.DynamoDBTable, logger)
}

// ProvideEventStore creates the event store
func ProvideEventStore(client *awsdynamodb.Client, cfg *config.Config) *dynamodb.DynamoDBEventStore {
	return dynamodb.NewDynamoDBEventStore(client, cfg.DynamoDBTable)
}

// ProvideEventStorePort exposes the event store through its port
func ProvideEventStorePort(store *dynamodb.DynamoDBEventStore) ports.EventStore {
	return store
}

// ProvideAnalyzer creates the Textract-backed document analyzer
func ProvideAnalyzer(client *awstextract.Client, cfg *config.Config, logger *zap.Logger) ports.DocumentAnalyzer {
	return textract.NewAnalyzer(client, cfg.Pipeline(), logger)
}

// ProvideObjectStore creates the S3 object store
func ProvideObjectStore(client *awss3.Client, logger *zap.Logger) ports.ObjectStore {
	return s3.NewObjectStore(client, logger)
}

// ProvideNotificationPublisher creates the SNS notification publisher
func ProvideNotificationPublisher(client *awssns.Client, cfg *config.Config, logger *zap.Logger) ports.NotificationPublisher {
	return sns.NewNotificationPublisher(client, cfg.TopicARN, logger)
}

// ProvideEventBus creates the EventBridge event bus
func ProvideEventBus(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventBus {
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideEventPublisher exposes the event bus through the publisher port
func ProvideEventPublisher(eventBus ports.EventBus) ports.EventPublisher {
	return eventBus
}

// ProvideOutboxProcessor creates the outbox relay for unpublished events
func ProvideOutboxProcessor(store *dynamodb.DynamoDBEventStore, publisher ports.EventPublisher, logger *zap.Logger) *dynamodb.OutboxProcessor {
	return dynamodb.NewOutboxProcessor(store, publisher, logger)
}

// ProvideMetrics creates the CloudWatch metrics sink
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config) *observability.Metrics {
	namespace := fmt.Sprintf("InvoiceFlow/%s", cfg.Environment)
	return observability.NewMetrics(namespace, client)
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer() *observability.Tracer {
	return observability.NewTracer("invoiceflow")
}

// ProvideExtractor creates the invoice field extractor
func ProvideExtractor() *extraction.Extractor {
	return extraction.NewExtractor()
}

// ProvideExtractionService creates the synchronous extraction service
func ProvideExtractionService(extractor *extraction.Extractor, logger *zap.Logger) *services.ExtractionService {
	return services.NewExtractionService(extractor, logger)
}

// ProvideHookManager creates the pipeline hook manager
func ProvideHookManager() *extensions.HookManager {
	return extensions.NewHookManager()
}

// ProvideDistributedRateLimiter creates a table-backed API rate limiter
func ProvideDistributedRateLimiter(client *awsdynamodb.Client, cfg *config.Config) *auth.DistributedRateLimiter {
	return auth.NewDistributedIPRateLimiter(client, cfg.DynamoDBTable, 100)
}

// ProvideOrchestrator creates the document processing orchestrator
func ProvideOrchestrator(
	docRepo ports.DocumentRepository,
	invoiceRepo ports.InvoiceRepository,
	analyzer ports.DocumentAnalyzer,
	store ports.ObjectStore,
	notifier ports.NotificationPublisher,
	eventBus ports.EventBus,
	eventStore ports.EventStore,
	lock ports.ProcessingLock,
	extractor *extraction.Extractor,
	tracer *observability.Tracer,
	metrics *observability.Metrics,
	hooks *extensions.HookManager,
	cfg *config.Config,
	logger *zap.Logger,
) *commandhandlers.ProcessDocumentOrchestrator {
	return commandhandlers.NewProcessDocumentOrchestrator(
		docRepo,
		invoiceRepo,
		analyzer,
		store,
		notifier,
		eventBus,
		eventStore,
		lock,
		extractor,
		tracer,
		metrics,
		hooks,
		cfg.Pipeline(),
		logger,
	)
}

// CommandHandlerAdapter adapts typed command handlers to the bus interface
type CommandHandlerAdapter struct {
	handler func(context.Context, bus.Command) error
}

func (a *CommandHandlerAdapter) Handle(ctx context.Context, cmd bus.Command) error {
	return a.handler(ctx, cmd)
}

// ProvideCommandBus creates a command bus with all handlers registered
func ProvideCommandBus(
	orchestrator *commandhandlers.ProcessDocumentOrchestrator,
	docRepo ports.DocumentRepository,
	invoiceRepo ports.InvoiceRepository,
	store ports.ObjectStore,
	eventStore ports.EventStore,
	eventBus ports.EventBus,
	lock ports.ProcessingLock,
	logger *zap.Logger,
) *bus.CommandBus {
	commandBus := bus.NewCommandBus()

	commandBus.Register(commands.ProcessDocumentCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			processCmd, ok := cmd.(commands.ProcessDocumentCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			_, err := orchestrator.Handle(ctx, processCmd)
			return err
		},
	})

	commandBus.Register(commands.ReprocessDocumentCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			reprocessCmd, ok := cmd.(commands.ReprocessDocumentCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			_, err := orchestrator.HandleReprocess(ctx, reprocessCmd)
			return err
		},
	})

	deleteHandler := commandhandlers.NewDeleteInvoiceHandler(docRepo, invoiceRepo, store, eventStore, eventBus, logger)
	commandBus.Register(commands.DeleteInvoiceCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			deleteCmd, ok := cmd.(commands.DeleteInvoiceCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			return deleteHandler.Handle(ctx, deleteCmd)
		},
	})

	bulkDeleteHandler := commandhandlers.NewBulkDeleteInvoicesHandler(docRepo, invoiceRepo, eventStore, logger)
	commandBus.Register(commands.BulkDeleteInvoicesCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			bulkCmd, ok := cmd.(commands.BulkDeleteInvoicesCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			_, err := bulkDeleteHandler.Handle(ctx, bulkCmd)
			return err
		},
	})

	cleanupHandler := commands.NewCleanupStaleDocumentsHandler(docRepo, lock, logger)
	commandBus.Register(commands.CleanupStaleDocumentsCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			cleanupCmd, ok := cmd.(commands.CleanupStaleDocumentsCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			_, err := cleanupHandler.Handle(ctx, cleanupCmd)
			return err
		},
	})

	return commandBus
}

// QueryHandlerAdapter adapts typed query handlers to the bus interface
type QueryHandlerAdapter struct {
	handler func(context.Context, querybus.Query) (interface{}, error)
}

func (a *QueryHandlerAdapter) Handle(ctx context.Context, query querybus.Query) (interface{}, error) {
	return a.handler(ctx, query)
}

// ProvideQueryBus creates a query bus with all handlers registered
func ProvideQueryBus(
	docRepo ports.DocumentRepository,
	invoiceRepo ports.InvoiceRepository,
	logger *zap.Logger,
) *querybus.QueryBus {
	queryBus := querybus.NewQueryBus()

	getInvoiceHandler := queryhandlers.NewGetInvoiceHandler(docRepo, invoiceRepo, logger)
	queryBus.Register(queries.GetInvoiceQuery{}, &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			getQuery, ok := query.(queries.GetInvoiceQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return getInvoiceHandler.Handle(ctx, getQuery)
		},
	})

	statusHandler := queryhandlers.NewGetDocumentStatusHandler(docRepo, logger)
	queryBus.Register(queries.GetDocumentStatusQuery{}, &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			statusQuery, ok := query.(queries.GetDocumentStatusQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return statusHandler.Handle(ctx, statusQuery)
		},
	})

	listHandler := queryhandlers.NewListInvoicesHandler(invoiceRepo, logger)
	queryBus.Register(queries.ListInvoicesQuery{}, &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			listQuery, ok := query.(queries.ListInvoicesQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return listHandler.Handle(ctx, listQuery)
		},
	})

	return queryBus
}

// ProvideInMemoryCache creates a process-local cache for query results
func ProvideInMemoryCache() ports.Cache {
	return NewInMemoryCache()
}
