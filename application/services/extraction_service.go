package services

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"invoiceflow/domain/extraction"
	"invoiceflow/domain/invoice"
	"invoiceflow/domain/ocr"
	appErrors "invoiceflow/pkg/errors"
)

// ExtractionService runs field extraction directly on a caller-supplied
// block collection. It is used by the synchronous extract endpoint and
// by Lambda handlers that already hold analysis output, without the
// overhead of the command bus.
type ExtractionService struct {
	extractor *extraction.Extractor
	logger    *zap.Logger
}

// NewExtractionService creates a new extraction service
func NewExtractionService(extractor *extraction.Extractor, logger *zap.Logger) *ExtractionService {
	return &ExtractionService{
		extractor: extractor,
		logger:    logger,
	}
}

// ExtractFromBlocks runs extraction over an in-memory block collection
func (s *ExtractionService) ExtractFromBlocks(ctx context.Context, blocks []ocr.Block) (*invoice.Record, error) {
	record, err := s.extractor.Extract(blocks)
	if err != nil {
		s.logger.Warn("extraction rejected block collection", zap.Error(err))
		return nil, err
	}

	s.logger.Debug("extraction finished",
		zap.Int("blocks", len(blocks)),
		zap.Int("key_value_pairs", len(record.KeyValuePairs)),
		zap.Int("tables", len(record.Tables)),
		zap.Float64("confidence", record.Confidence.Overall),
	)

	return record, nil
}

// ExtractFromJSON decodes a JSON block array and runs extraction. The
// wire shape matches the analysis service output, so raw analysis
// payloads can be replayed through this path.
func (s *ExtractionService) ExtractFromJSON(ctx context.Context, payload []byte) (*invoice.Record, error) {
	var blocks []ocr.Block
	if err := json.Unmarshal(payload, &blocks); err != nil {
		return nil, appErrors.NewInvalidInputError(fmt.Sprintf("malformed block payload: %v", err))
	}
	return s.ExtractFromBlocks(ctx, blocks)
}
