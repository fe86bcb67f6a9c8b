//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"invoiceflow/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideTextractClient,
	ProvideS3Client,
	ProvideSNSClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideDocumentRepository,
	ProvideInvoiceRepository,
	ProvideProcessingLock,
	ProvideEventStore,
	ProvideEventStorePort,
	ProvideAnalyzer,
	ProvideObjectStore,
	ProvideNotificationPublisher,
	ProvideEventBus,
	ProvideEventPublisher,
	ProvideOutboxProcessor,
	ProvideMetrics,
	ProvideTracer,
	ProvideExtractor,
	ProvideExtractionService,
	ProvideHookManager,
	ProvideDistributedRateLimiter,
	ProvideOrchestrator,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideInMemoryCache,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
