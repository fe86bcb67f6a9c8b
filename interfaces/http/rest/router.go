package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"invoiceflow/application/commands/bus"
	querybus "invoiceflow/application/queries/bus"
	"invoiceflow/application/services"
	"invoiceflow/interfaces/http/rest/handlers"
	"invoiceflow/interfaces/http/rest/middleware"
)

// Router creates and configures the HTTP router
type Router struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	extraction *services.ExtractionService
	logger     *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	extraction *services.ExtractionService,
	logger *zap.Logger,
) *Router {
	return &Router{
		commandBus: commandBus,
		queryBus:   queryBus,
		extraction: extraction,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate())

		r.Route("/invoices", func(r chi.Router) {
			invoiceHandler := handlers.NewInvoiceHandler(rt.commandBus, rt.queryBus, rt.logger)
			r.Get("/", invoiceHandler.ListInvoices)
			r.Get("/{documentID}", invoiceHandler.GetInvoice)
			r.Get("/{documentID}/status", invoiceHandler.GetStatus)
			r.Post("/{documentID}/reprocess", invoiceHandler.Reprocess)
			r.Delete("/{documentID}", invoiceHandler.DeleteInvoice)
			r.Post("/bulk-delete", invoiceHandler.BulkDeleteInvoices)
		})

		extractHandler := handlers.NewExtractHandler(rt.extraction, rt.logger)
		r.Post("/extract", extractHandler.Extract)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
