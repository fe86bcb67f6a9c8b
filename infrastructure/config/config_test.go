package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "invoiceflow", cfg.DynamoDBTable)
	assert.Equal(t, "GSI1", cfg.IndexName)
	assert.Equal(t, "GSI2", cfg.GSI2IndexName)
	assert.Equal(t, "invoiceflow-events", cfg.EventBusName)
	assert.Equal(t, 3, cfg.AnalysisMaxAttempts)
	assert.Equal(t, 5*time.Minute, cfg.LockTTL)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxDocumentSizeBytes)
	assert.True(t, cfg.EnableEvents)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", ":9090")
	t.Setenv("TABLE_NAME", "invoices-prod")
	t.Setenv("ANALYSIS_MAX_ATTEMPTS", "5")
	t.Setenv("PROCESSING_LOCK_TTL", "90s")
	t.Setenv("ENABLE_EVENTS", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ServerAddress)
	assert.Equal(t, "invoices-prod", cfg.DynamoDBTable)
	assert.Equal(t, 5, cfg.AnalysisMaxAttempts)
	assert.Equal(t, 90*time.Second, cfg.LockTTL)
	assert.False(t, cfg.EnableEvents)
}

func TestLoadConfig_LegacyTableNameFallback(t *testing.T) {
	t.Setenv("DYNAMODB_TABLE", "legacy-table")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "legacy-table", cfg.DynamoDBTable)
}

func TestLoadConfig_MalformedNumericFallsBackToDefault(t *testing.T) {
	t.Setenv("ANALYSIS_MAX_ATTEMPTS", "lots")
	t.Setenv("ANALYSIS_RETRY_DELAY", "soon")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.AnalysisMaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.AnalysisRetryDelay)
}

func TestValidate_ProductionRequiresSecrets(t *testing.T) {
	cfg := &Config{
		Environment:         "production",
		AnalysisMaxAttempts: 3,
	}

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidate_ProductionComplete(t *testing.T) {
	cfg := &Config{
		Environment:         "production",
		AnalysisMaxAttempts: 3,
		JWTSecret:           "secret",
		DynamoDBTable:       "invoices",
		DocumentBucket:      "invoices-bucket",
		TopicARN:            "arn:aws:sns:us-east-1:123456789012:invoice-status",
	}

	assert.NoError(t, cfg.Validate())
}

func TestValidate_RejectsZeroAttempts(t *testing.T) {
	cfg := &Config{AnalysisMaxAttempts: 0}

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANALYSIS_MAX_ATTEMPTS")
}

func TestPipeline_DerivesFromEnvironmentConfig(t *testing.T) {
	cfg := &Config{
		AnalysisMaxAttempts:  4,
		AnalysisRetryDelay:   time.Second,
		AnalysisTimeout:      10 * time.Second,
		LockTTL:              time.Minute,
		StaleAfter:           15 * time.Minute,
		MaxDocumentSizeBytes: 1024,
		EnableEvents:         false,
	}

	pipeline := cfg.Pipeline()

	assert.Equal(t, 4, pipeline.MaxAnalysisAttempts)
	assert.Equal(t, time.Second, pipeline.RetryBaseDelay)
	assert.Equal(t, 10*time.Second, pipeline.AnalysisTimeout)
	assert.Equal(t, time.Minute, pipeline.ProcessingLockTTL)
	assert.Equal(t, 15*time.Minute, pipeline.StaleProcessingThreshold)
	assert.Equal(t, int64(1024), pipeline.MaxDocumentSizeBytes)
	assert.False(t, pipeline.PublishDomainEvents)
}
