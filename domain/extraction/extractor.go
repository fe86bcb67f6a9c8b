// Package extraction turns the OCR block collection returned by document
// analysis into a structured invoice record. It is a pure, single-pass,
// stateless transform: no I/O, no retained state, safe to call concurrently
// for independent documents.
package extraction

import (
	"strconv"
	"strings"

	"invoiceflow/domain/invoice"
	"invoiceflow/domain/ocr"
)

// Extractor applies the field rule tables to a block collection. The zero
// cost of construction means callers may share one instance or create one
// per call; both are safe.
type Extractor struct{}

// NewExtractor creates an extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract builds an invoice record from the given block collection.
//
// The only error it returns is an invalid-input error for a structurally
// malformed collection (nil, or a block without a type); in that case no
// partial record is produced. Every softer defect - dangling relationship
// ids, missing text, unmatched patterns - degrades to empty/null/zero
// fields instead of failing the extraction.
func (e *Extractor) Extract(blocks []ocr.Block) (*invoice.Record, error) {
	if err := ocr.ValidateCollection(blocks); err != nil {
		return nil, err
	}

	idx := ocr.NewIndex(blocks)
	rec := invoice.NewRecord()

	e.assembleRawText(blocks, rec)
	e.extractKeyValuePairs(blocks, idx, rec)
	e.summarizeTables(blocks, rec)
	e.matchInvoiceFields(rec)

	return rec, nil
}

// assembleRawText newline-joins the text of all LINE blocks in collection
// order (not reading order) and computes the overall confidence as the mean
// of LINE block confidences, 0 when there are none.
func (e *Extractor) assembleRawText(blocks []ocr.Block, rec *invoice.Record) {
	var lines []string
	var confidenceSum float64

	for _, b := range blocks {
		if b.Type != ocr.BlockTypeLine {
			continue
		}
		lines = append(lines, b.Text)
		confidenceSum += b.Confidence
	}

	rec.RawText = strings.Join(lines, "\n")
	if len(lines) > 0 {
		rec.Confidence.Overall = confidenceSum / float64(len(lines))
	}
}

// extractKeyValuePairs reconstructs form fields from KEY_VALUE_SET blocks.
// For each KEY block the key text comes from its CHILD words, the value
// block from the first resolvable id of its VALUE relationship. Keys whose
// VALUE relationship resolves to nothing contribute no pair. Duplicate
// normalized keys are last-write-wins in collection order.
func (e *Extractor) extractKeyValuePairs(blocks []ocr.Block, idx *ocr.Index, rec *invoice.Record) {
	for _, b := range blocks {
		if b.Type != ocr.BlockTypeKeyValueSet || !b.HasEntityType(ocr.EntityTypeKey) {
			continue
		}

		valueBlock, ok := e.resolveValueBlock(b, idx)
		if !ok {
			continue
		}

		keyText := e.childWordText(b, idx)
		valueText := e.childWordText(valueBlock, idx)

		confidence := b.Confidence
		if valueBlock.Confidence < confidence {
			confidence = valueBlock.Confidence
		}

		normalized := strings.TrimSpace(strings.ToLower(keyText))
		rec.KeyValuePairs[normalized] = invoice.KeyValuePair{
			Value:      valueText,
			Confidence: confidence,
		}
	}
}

// resolveValueBlock follows a KEY block's VALUE relationship and returns the
// first referenced block that exists in the index
func (e *Extractor) resolveValueBlock(key ocr.Block, idx *ocr.Index) (ocr.Block, bool) {
	rel, ok := key.Relationship(ocr.RelationshipValue)
	if !ok {
		return ocr.Block{}, false
	}
	for _, id := range rel.IDs {
		if b, found := idx.Lookup(id); found {
			return b, true
		}
	}
	return ocr.Block{}, false
}

// childWordText concatenates the text of the WORD blocks referenced by the
// block's CHILD relationship, space-joined in relationship-list order.
// Dangling ids and non-WORD children yield nothing.
func (e *Extractor) childWordText(b ocr.Block, idx *ocr.Index) string {
	rel, ok := b.Relationship(ocr.RelationshipChild)
	if !ok {
		return ""
	}

	var words []string
	for _, id := range rel.IDs {
		child, found := idx.Lookup(id)
		if !found || child.Type != ocr.BlockTypeWord {
			continue
		}
		words = append(words, child.Text)
	}
	return strings.Join(words, " ")
}

// summarizeTables emits one shallow summary per TABLE block: its 0-based
// index among TABLE blocks, its own confidence, and the size of its CHILD
// id list. Cell contents are not extracted.
func (e *Extractor) summarizeTables(blocks []ocr.Block, rec *invoice.Record) {
	tableIndex := 0
	for _, b := range blocks {
		if b.Type != ocr.BlockTypeTable {
			continue
		}

		cellCount := 0
		if rel, ok := b.Relationship(ocr.RelationshipChild); ok {
			cellCount = len(rel.IDs)
		}

		rec.Tables = append(rec.Tables, invoice.TableSummary{
			TableIndex: tableIndex,
			CellCount:  cellCount,
			Confidence: b.Confidence,
		})
		tableIndex++
	}
}

// matchInvoiceFields runs the per-field rule tables over the raw text.
// Each field takes the first matching rule in priority order, or stays null.
func (e *Extractor) matchInvoiceFields(rec *invoice.Record) {
	e.matchInvoiceNumber(rec)
	e.matchTotalAmount(rec)
	e.matchDates(rec)
	e.matchVendorName(rec)
}

func (e *Extractor) matchInvoiceNumber(rec *invoice.Record) {
	for _, rule := range invoiceNumberRules {
		m := rule.FindStringSubmatch(rec.RawText)
		if m == nil {
			continue
		}
		number := m[1]
		rec.InvoiceData.InvoiceNumber = &number
		rec.Confidence.InvoiceNumber = invoice.ConfidenceInvoiceNumber
		return
	}
}

func (e *Extractor) matchTotalAmount(rec *invoice.Record) {
	for _, rule := range totalAmountRules {
		m := rule.FindStringSubmatch(rec.RawText)
		if m == nil {
			continue
		}

		amount, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64)
		if err != nil {
			continue
		}

		rec.InvoiceData.TotalAmount = &amount
		rec.Confidence.TotalAmount = invoice.ConfidenceTotalAmount
		if m[1] != "" {
			rec.InvoiceData.Currency = strings.ToUpper(m[1])
		}
		return
	}
}

// matchDates scans the raw text with each date family in priority order.
// The first family producing any matches supplies the invoice date; a
// second match in the same family's result set becomes the due date.
// Family order, not position in the text, decides which format wins when a
// document mixes formats.
func (e *Extractor) matchDates(rec *invoice.Record) {
	for _, family := range dateFamilies {
		matches := family.FindAllString(rec.RawText, -1)
		if len(matches) == 0 {
			continue
		}

		rec.InvoiceData.InvoiceDate = &matches[0]
		if len(matches) > 1 {
			rec.InvoiceData.DueDate = &matches[1]
		}
		return
	}
}

// matchVendorName takes the first of the leading non-empty lines that is
// long enough and is not a document label
func (e *Extractor) matchVendorName(rec *invoice.Record) {
	var lines []string
	for _, line := range strings.Split(rec.RawText, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	limit := vendorScanLines
	if len(lines) < limit {
		limit = len(lines)
	}

	for i := 0; i < limit; i++ {
		line := lines[i]
		if len(line) < vendorMinLength || vendorExclude.MatchString(line) {
			continue
		}
		rec.InvoiceData.VendorName = &line
		rec.Confidence.VendorName = invoice.ConfidenceVendorName
		return
	}
}
