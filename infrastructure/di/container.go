package di

import (
	"go.uber.org/zap"

	"invoiceflow/application/commands/bus"
	commandhandlers "invoiceflow/application/commands/handlers"
	"invoiceflow/application/ports"
	querybus "invoiceflow/application/queries/bus"
	"invoiceflow/application/services"
	"invoiceflow/infrastructure/config"
	"invoiceflow/infrastructure/persistence/dynamodb"
	"invoiceflow/pkg/auth"
	"invoiceflow/pkg/extensions"
	"invoiceflow/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config            *config.Config
	Logger            *zap.Logger
	DocumentRepo      ports.DocumentRepository
	InvoiceRepo       ports.InvoiceRepository
	Analyzer          ports.DocumentAnalyzer
	ObjectStore       ports.ObjectStore
	Notifier          ports.NotificationPublisher
	EventBus          ports.EventBus
	EventStore        ports.EventStore
	ProcessingLock    ports.ProcessingLock
	Orchestrator      *commandhandlers.ProcessDocumentOrchestrator
	CommandBus        *bus.CommandBus
	QueryBus          *querybus.QueryBus
	ExtractionService *services.ExtractionService
	OutboxProcessor   *dynamodb.OutboxProcessor
	HookManager       *extensions.HookManager
	Cache             ports.Cache
	Metrics           *observability.Metrics
	Tracer            *observability.Tracer
	RateLimiter       *auth.DistributedRateLimiter
}
