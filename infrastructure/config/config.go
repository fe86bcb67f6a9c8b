package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	domainconfig "invoiceflow/domain/config"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// AWS configuration
	AWSRegion      string
	DynamoDBTable  string
	IndexName      string // GSI1 - location lookups and invoice listing
	GSI2IndexName  string // GSI2 - status scans
	DocumentBucket string
	TopicARN       string
	EventBusName   string

	// Analysis configuration
	AnalysisMaxAttempts int
	AnalysisRetryDelay  time.Duration
	AnalysisTimeout     time.Duration

	// Pipeline configuration
	LockTTL              time.Duration
	StaleAfter           time.Duration
	MaxDocumentSizeBytes int64

	// Lambda configuration
	IsLambda           bool
	LambdaFunctionName string

	// Logging
	LogLevel string

	// Authentication
	JWTSecret string
	JWTIssuer string

	// Feature flags
	EnableMetrics bool
	EnableTracing bool
	EnableCORS    bool
	EnableEvents  bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		AWSRegion:     getEnv("AWS_REGION", "us-east-1"),
		DynamoDBTable: getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", "invoiceflow")),
		IndexName:     getEnv("INDEX_NAME", "GSI1"),
		GSI2IndexName: getEnv("GSI2_INDEX_NAME", "GSI2"),

		DocumentBucket: getEnv("DOCUMENT_BUCKET", ""),
		TopicARN:       getEnv("NOTIFICATION_TOPIC_ARN", ""),
		EventBusName:   getEnv("EVENT_BUS_NAME", "invoiceflow-events"),

		// Analysis configuration
		AnalysisMaxAttempts: getEnvInt("ANALYSIS_MAX_ATTEMPTS", 3),
		AnalysisRetryDelay:  getEnvDuration("ANALYSIS_RETRY_DELAY", 2*time.Second),
		AnalysisTimeout:     getEnvDuration("ANALYSIS_TIMEOUT", 30*time.Second),

		// Pipeline configuration
		LockTTL:              getEnvDuration("PROCESSING_LOCK_TTL", 5*time.Minute),
		StaleAfter:           getEnvDuration("STALE_PROCESSING_AFTER", 30*time.Minute),
		MaxDocumentSizeBytes: int64(getEnvInt("MAX_DOCUMENT_SIZE_BYTES", 10*1024*1024)),

		// Lambda configuration
		IsLambda:           getEnvBool("IS_LAMBDA", false),
		LambdaFunctionName: getEnv("AWS_LAMBDA_FUNCTION_NAME", ""),

		// Authentication
		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "invoiceflow"),

		// Logging and features
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", false),
		EnableTracing: getEnvBool("ENABLE_TRACING", false),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
		EnableEvents:  getEnvBool("ENABLE_EVENTS", true),
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig for backwards compatibility
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.AnalysisMaxAttempts < 1 {
		return fmt.Errorf("ANALYSIS_MAX_ATTEMPTS must be at least 1")
	}
	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required")
		}
		if c.DocumentBucket == "" {
			return fmt.Errorf("DOCUMENT_BUCKET is required")
		}
		if c.TopicARN == "" {
			return fmt.Errorf("NOTIFICATION_TOPIC_ARN is required")
		}
	}

	return nil
}

// Pipeline returns the domain-level pipeline config derived from the
// environment
func (c *Config) Pipeline() domainconfig.PipelineConfig {
	cfg := domainconfig.DefaultPipelineConfig()
	cfg.MaxAnalysisAttempts = c.AnalysisMaxAttempts
	cfg.RetryBaseDelay = c.AnalysisRetryDelay
	cfg.AnalysisTimeout = c.AnalysisTimeout
	cfg.ProcessingLockTTL = c.LockTTL
	cfg.StaleProcessingThreshold = c.StaleAfter
	cfg.MaxDocumentSizeBytes = c.MaxDocumentSizeBytes
	cfg.PublishDomainEvents = c.EnableEvents
	return cfg
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
