package main

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"invoiceflow/infrastructure/config"
	"invoiceflow/infrastructure/di"
	"invoiceflow/interfaces/http/rest"
)

var (
	chiLambda *chiadapter.ChiLambdaV2
	container *di.Container

	coldStart     = true
	coldStartTime time.Time
)

// init runs during cold start
func init() {
	coldStartTime = time.Now()

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err = di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	router := rest.NewRouter(
		container.CommandBus,
		container.QueryBus,
		container.ExtractionService,
		container.Logger,
	)

	chiRouter, ok := router.Setup().(*chi.Mux)
	if !ok {
		log.Fatal("Failed to cast handler to chi.Mux")
	}
	chiLambda = chiadapter.NewV2(chiRouter)

	container.Logger.Info("lambda cold start completed",
		zap.Duration("duration", time.Since(coldStartTime)),
	)
}

// Handler proxies API Gateway V2 requests into the chi router. The JWT
// authorizer attached to the HTTP API has already validated the caller,
// so the authorizer claims are forwarded as trusted identity headers.
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	if req.Headers == nil {
		req.Headers = make(map[string]string)
	}

	if auth := req.RequestContext.Authorizer; auth != nil && auth.JWT != nil {
		req.Headers["X-API-Gateway-Authorized"] = "true"
		if sub, ok := auth.JWT.Claims["sub"]; ok {
			req.Headers["X-User-ID"] = sub
		}
		if email, ok := auth.JWT.Claims["email"]; ok {
			req.Headers["X-User-Email"] = email
		}
		if roles, ok := auth.JWT.Claims["roles"]; ok {
			req.Headers["X-User-Roles"] = roles
		}
	}

	if req.RequestContext.RequestID != "" {
		req.Headers["X-Request-ID"] = req.RequestContext.RequestID
	}

	resp, err := chiLambda.ProxyWithContextV2(ctx, req)

	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	if coldStart {
		resp.Headers["X-Cold-Start"] = "true"
		coldStart = false
	}

	if resp.StatusCode >= 500 {
		container.Logger.Error("request failed",
			zap.String("method", req.RequestContext.HTTP.Method),
			zap.String("path", req.RequestContext.HTTP.Path),
			zap.String("request_id", req.RequestContext.RequestID),
			zap.Int("status_code", resp.StatusCode),
		)
	}

	return resp, err
}

func main() {
	lambda.Start(Handler)
}
