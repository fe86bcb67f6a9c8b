package textract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"invoiceflow/application/ports"
	"invoiceflow/domain/core/valueobjects"
	domainconfig "invoiceflow/domain/config"
	"invoiceflow/domain/ocr"
	appErrors "invoiceflow/pkg/errors"
)

// Analyzer runs synchronous document analysis against Textract and maps
// the response into domain OCR blocks.
type Analyzer struct {
	client      *textract.Client
	maxAttempts int
	retryDelay  time.Duration
	timeout     time.Duration
	logger      *zap.Logger
}

// NewAnalyzer creates a Textract-backed document analyzer
func NewAnalyzer(client *textract.Client, cfg domainconfig.PipelineConfig, logger *zap.Logger) ports.DocumentAnalyzer {
	return &Analyzer{
		client:      client,
		maxAttempts: cfg.MaxAnalysisAttempts,
		retryDelay:  cfg.RetryBaseDelay,
		timeout:     cfg.AnalysisTimeout,
		logger:      logger,
	}
}

// AnalyzeDocument analyzes the object at the given location with forms and
// tables detection. Failed attempts are retried with a linearly growing
// delay; the last attempt's error is returned.
func (a *Analyzer) AnalyzeDocument(ctx context.Context, location valueobjects.DocumentLocation) ([]ocr.Block, error) {
	input := &textract.AnalyzeDocumentInput{
		Document: &types.Document{
			S3Object: &types.S3Object{
				Bucket: aws.String(location.Bucket()),
				Name:   aws.String(location.Key()),
			},
		},
		FeatureTypes: []types.FeatureType{
			types.FeatureTypeForms,
			types.FeatureTypeTables,
		},
	}

	var lastErr error
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		if attempt > 1 {
			delay := time.Duration(attempt-1) * a.retryDelay
			a.logger.Warn("retrying document analysis",
				zap.String("location", location.String()),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		blocks, err := a.analyzeOnce(ctx, input)
		if err == nil {
			a.logger.Info("document analysis complete",
				zap.String("location", location.String()),
				zap.Int("block_count", len(blocks)),
				zap.Int("attempt", attempt))
			return blocks, nil
		}
		if !isRetryable(err) {
			return nil, a.wrapError(location, err)
		}
		lastErr = err
	}

	return nil, a.wrapError(location, lastErr)
}

func (a *Analyzer) analyzeOnce(ctx context.Context, input *textract.AnalyzeDocumentInput) ([]ocr.Block, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	output, err := a.client.AnalyzeDocument(attemptCtx, input)
	if err != nil {
		return nil, err
	}
	return convertBlocks(output.Blocks), nil
}

func (a *Analyzer) wrapError(location valueobjects.DocumentLocation, err error) error {
	return appErrors.NewExternalError("textract",
		fmt.Errorf("analysis of %s failed: %w", location.String(), err))
}

// convertBlocks maps Textract blocks onto the domain block shape. Fields
// the extractor does not read (geometry, page) are dropped.
func convertBlocks(in []types.Block) []ocr.Block {
	out := make([]ocr.Block, 0, len(in))
	for _, b := range in {
		block := ocr.Block{
			ID:         aws.ToString(b.Id),
			Type:       ocr.BlockType(b.BlockType),
			Text:       aws.ToString(b.Text),
			Confidence: float64(aws.ToFloat32(b.Confidence)),
		}
		for _, et := range b.EntityTypes {
			block.EntityTypes = append(block.EntityTypes, ocr.EntityType(et))
		}
		for _, rel := range b.Relationships {
			block.Relationships = append(block.Relationships, ocr.Relationship{
				Type: ocr.RelationshipType(rel.Type),
				IDs:  rel.Ids,
			})
		}
		out = append(out, block)
	}
	return out
}

// isRetryable reports whether a Textract failure is worth another attempt.
// Throttling, capacity and timeout errors are; malformed documents are not.
func isRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var throttle *types.ThrottlingException
	if errors.As(err, &throttle) {
		return true
	}
	var capacity *types.ProvisionedThroughputExceededException
	if errors.As(err, &capacity) {
		return true
	}
	var internal *types.InternalServerError
	if errors.As(err, &internal) {
		return true
	}

	var unsupported *types.UnsupportedDocumentException
	if errors.As(err, &unsupported) {
		return false
	}
	var badDoc *types.InvalidParameterException
	if errors.As(err, &badDoc) {
		return false
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorFault() == smithy.FaultServer
	}
	return true
}
