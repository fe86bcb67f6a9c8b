package config

import "time"

// PipelineConfig holds domain-level tunables for the extraction
// pipeline. Infrastructure config may override these from the
// environment; these are the defaults the domain reasons about.
type PipelineConfig struct {
	// MaxAnalysisAttempts bounds how many times document analysis is
	// retried before the document is marked failed
	MaxAnalysisAttempts int

	// RetryBaseDelay is multiplied by the attempt number to produce
	// the wait before the next analysis attempt
	RetryBaseDelay time.Duration

	// AnalysisTimeout bounds each individual analysis attempt
	AnalysisTimeout time.Duration

	// ProcessingLockTTL bounds how long a pipeline worker may hold the
	// per-document lock before it expires
	ProcessingLockTTL time.Duration

	// StaleProcessingThreshold is how long a document may sit in the
	// processing state before cleanup considers it abandoned
	StaleProcessingThreshold time.Duration

	// MaxDocumentSizeBytes rejects oversized uploads before analysis
	MaxDocumentSizeBytes int64

	// PublishDomainEvents toggles publication of lifecycle events to
	// the event bus
	PublishDomainEvents bool
}

// DefaultPipelineConfig returns the production defaults
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		MaxAnalysisAttempts:      3,
		RetryBaseDelay:           2 * time.Second,
		AnalysisTimeout:          30 * time.Second,
		ProcessingLockTTL:        5 * time.Minute,
		StaleProcessingThreshold: 30 * time.Minute,
		MaxDocumentSizeBytes:     10 * 1024 * 1024,
		PublishDomainEvents:      true,
	}
}

// Validate checks the config for values that would break the pipeline
func (c PipelineConfig) Validate() error {
	if c.MaxAnalysisAttempts < 1 {
		return ErrInvalidAttempts
	}
	if c.AnalysisTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.ProcessingLockTTL <= 0 {
		return ErrInvalidLockTTL
	}
	return nil
}

// Sentinel errors for config validation
var (
	ErrInvalidAttempts = configError("max analysis attempts must be at least 1")
	ErrInvalidTimeout  = configError("analysis timeout must be positive")
	ErrInvalidLockTTL  = configError("processing lock TTL must be positive")
)

type configError string

func (e configError) Error() string { return string(e) }
