package extraction

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceflow/domain/invoice"
	"invoiceflow/domain/ocr"
)

func lineBlock(id, text string, confidence float64) ocr.Block {
	return ocr.Block{
		ID:         id,
		Type:       ocr.BlockTypeLine,
		Text:       text,
		Confidence: confidence,
	}
}

func wordBlock(id, text string) ocr.Block {
	return ocr.Block{
		ID:         id,
		Type:       ocr.BlockTypeWord,
		Text:       text,
		Confidence: 99.0,
	}
}

func keyBlock(id string, confidence float64, childIDs, valueIDs []string) ocr.Block {
	return ocr.Block{
		ID:          id,
		Type:        ocr.BlockTypeKeyValueSet,
		Confidence:  confidence,
		EntityTypes: []ocr.EntityType{ocr.EntityTypeKey},
		Relationships: []ocr.Relationship{
			{Type: ocr.RelationshipChild, IDs: childIDs},
			{Type: ocr.RelationshipValue, IDs: valueIDs},
		},
	}
}

func valueBlock(id string, confidence float64, childIDs []string) ocr.Block {
	return ocr.Block{
		ID:          id,
		Type:        ocr.BlockTypeKeyValueSet,
		Confidence:  confidence,
		EntityTypes: []ocr.EntityType{ocr.EntityTypeValue},
		Relationships: []ocr.Relationship{
			{Type: ocr.RelationshipChild, IDs: childIDs},
		},
	}
}

func linesFromText(text string, confidence float64) []ocr.Block {
	var blocks []ocr.Block
	for i, line := range strings.Split(text, "\n") {
		blocks = append(blocks, lineBlock("line-"+string(rune('a'+i)), line, confidence))
	}
	return blocks
}

func TestExtract_InvoiceNumber(t *testing.T) {
	extractor := NewExtractor()

	blocks := []ocr.Block{
		lineBlock("l1", "Invoice #: INV-2024-001", 95.0),
	}

	rec, err := extractor.Extract(blocks)
	require.NoError(t, err)

	require.NotNil(t, rec.InvoiceData.InvoiceNumber)
	assert.Equal(t, "INV-2024-001", *rec.InvoiceData.InvoiceNumber)
	assert.Equal(t, invoice.ConfidenceInvoiceNumber, rec.Confidence.InvoiceNumber)
}

func TestExtract_InvoiceNumberAlternateLabels(t *testing.T) {
	extractor := NewExtractor()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"inv label", "INV 2024-042", "2024-042"},
		{"bill label", "Bill # B-778/A", "B-778/A"},
		{"no separator", "Invoice ABC123", "ABC123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := extractor.Extract([]ocr.Block{lineBlock("l1", tt.text, 90.0)})
			require.NoError(t, err)
			require.NotNil(t, rec.InvoiceData.InvoiceNumber)
			assert.Equal(t, tt.want, *rec.InvoiceData.InvoiceNumber)
		})
	}
}

func TestExtract_TotalAmount(t *testing.T) {
	extractor := NewExtractor()

	rec, err := extractor.Extract([]ocr.Block{
		lineBlock("l1", "Total: $1,500.00", 92.0),
	})
	require.NoError(t, err)

	require.NotNil(t, rec.InvoiceData.TotalAmount)
	assert.Equal(t, 1500.00, *rec.InvoiceData.TotalAmount)
	assert.Equal(t, invoice.DefaultCurrency, rec.InvoiceData.Currency)
	assert.Equal(t, invoice.ConfidenceTotalAmount, rec.Confidence.TotalAmount)
}

func TestExtract_TotalAmountWithCurrencyCode(t *testing.T) {
	extractor := NewExtractor()

	rec, err := extractor.Extract([]ocr.Block{
		lineBlock("l1", "Amount Due: eur 249.99", 92.0),
	})
	require.NoError(t, err)

	require.NotNil(t, rec.InvoiceData.TotalAmount)
	assert.Equal(t, 249.99, *rec.InvoiceData.TotalAmount)
	assert.Equal(t, "EUR", rec.InvoiceData.Currency)
}

func TestExtract_DateFamilyPrecedence(t *testing.T) {
	extractor := NewExtractor()

	// The month-name date appears first on the page, but the numeric
	// day/month/year family has higher precedence and supplies the match.
	rec, err := extractor.Extract([]ocr.Block{
		lineBlock("l1", "Issued January 5, 2024", 90.0),
		lineBlock("l2", "Due 15/01/2024", 90.0),
	})
	require.NoError(t, err)

	require.NotNil(t, rec.InvoiceData.InvoiceDate)
	assert.Equal(t, "15/01/2024", *rec.InvoiceData.InvoiceDate)
	assert.Nil(t, rec.InvoiceData.DueDate)
}

func TestExtract_TwoDatesSameFamily(t *testing.T) {
	extractor := NewExtractor()

	rec, err := extractor.Extract([]ocr.Block{
		lineBlock("l1", "Date: 01/02/2024", 90.0),
		lineBlock("l2", "Due date: 15/03/2024", 90.0),
	})
	require.NoError(t, err)

	require.NotNil(t, rec.InvoiceData.InvoiceDate)
	assert.Equal(t, "01/02/2024", *rec.InvoiceData.InvoiceDate)
	require.NotNil(t, rec.InvoiceData.DueDate)
	assert.Equal(t, "15/03/2024", *rec.InvoiceData.DueDate)
}

func TestExtract_MonthNameDate(t *testing.T) {
	extractor := NewExtractor()

	rec, err := extractor.Extract([]ocr.Block{
		lineBlock("l1", "Issued March 3, 2024", 90.0),
	})
	require.NoError(t, err)

	require.NotNil(t, rec.InvoiceData.InvoiceDate)
	assert.Equal(t, "March 3, 2024", *rec.InvoiceData.InvoiceDate)
}

func TestExtract_VendorName(t *testing.T) {
	extractor := NewExtractor()

	rec, err := extractor.Extract([]ocr.Block{
		lineBlock("l1", "INVOICE", 90.0),
		lineBlock("l2", "Acme Supplies Ltd", 90.0),
		lineBlock("l3", "123 Main Street", 90.0),
	})
	require.NoError(t, err)

	require.NotNil(t, rec.InvoiceData.VendorName)
	assert.Equal(t, "Acme Supplies Ltd", *rec.InvoiceData.VendorName)
	assert.Equal(t, invoice.ConfidenceVendorName, rec.Confidence.VendorName)
}

func TestExtract_VendorNameSkipsShortAndLabelLines(t *testing.T) {
	extractor := NewExtractor()

	// "Co" is too short, "Monthly Statement" is a document label, and the
	// scan stops after the first three non-empty lines.
	rec, err := extractor.Extract([]ocr.Block{
		lineBlock("l1", "Co", 90.0),
		lineBlock("l2", "Monthly Statement", 90.0),
		lineBlock("l3", "", 90.0),
		lineBlock("l4", "Globex Corporation", 90.0),
		lineBlock("l5", "Another Candidate Inc", 90.0),
	})
	require.NoError(t, err)

	require.NotNil(t, rec.InvoiceData.VendorName)
	assert.Equal(t, "Globex Corporation", *rec.InvoiceData.VendorName)
}

func TestExtract_VendorNameNoCandidate(t *testing.T) {
	extractor := NewExtractor()

	rec, err := extractor.Extract([]ocr.Block{
		lineBlock("l1", "INVOICE", 90.0),
		lineBlock("l2", "Tax Statement", 90.0),
	})
	require.NoError(t, err)

	assert.Nil(t, rec.InvoiceData.VendorName)
	assert.Zero(t, rec.Confidence.VendorName)
}

func TestExtract_KeyValuePairs(t *testing.T) {
	extractor := NewExtractor()

	blocks := []ocr.Block{
		wordBlock("w1", "PO"),
		wordBlock("w2", "Number"),
		wordBlock("w3", "PO-5512"),
		keyBlock("k1", 90.0, []string{"w1", "w2"}, []string{"v1"}),
		valueBlock("v1", 70.0, []string{"w3"}),
	}

	rec, err := extractor.Extract(blocks)
	require.NoError(t, err)

	pair, ok := rec.KeyValuePairs["po number"]
	require.True(t, ok)
	assert.Equal(t, "PO-5512", pair.Value)
	// Pair confidence is the minimum of the key and value block scores
	assert.Equal(t, 70.0, pair.Confidence)
}

func TestExtract_KeyValuePairs_DuplicateKeyLastWriteWins(t *testing.T) {
	extractor := NewExtractor()

	blocks := []ocr.Block{
		wordBlock("w1", "Terms"),
		wordBlock("w2", "Net 30"),
		wordBlock("w3", "Net 60"),
		keyBlock("k1", 90.0, []string{"w1"}, []string{"v1"}),
		valueBlock("v1", 88.0, []string{"w2"}),
		keyBlock("k2", 91.0, []string{"w1"}, []string{"v2"}),
		valueBlock("v2", 89.0, []string{"w3"}),
	}

	rec, err := extractor.Extract(blocks)
	require.NoError(t, err)

	require.Len(t, rec.KeyValuePairs, 1)
	assert.Equal(t, "Net 60", rec.KeyValuePairs["terms"].Value)
}

func TestExtract_KeyValuePairs_UnresolvableValueSkipped(t *testing.T) {
	extractor := NewExtractor()

	blocks := []ocr.Block{
		wordBlock("w1", "Reference"),
		keyBlock("k1", 90.0, []string{"w1"}, []string{"missing-id"}),
	}

	rec, err := extractor.Extract(blocks)
	require.NoError(t, err)

	assert.Empty(t, rec.KeyValuePairs)
}

func TestExtract_KeyValuePairs_DanglingChildIDsTolerated(t *testing.T) {
	extractor := NewExtractor()

	blocks := []ocr.Block{
		wordBlock("w1", "Account"),
		wordBlock("w2", "42"),
		keyBlock("k1", 85.0, []string{"w1", "gone"}, []string{"v1"}),
		valueBlock("v1", 85.0, []string{"w2", "also-gone"}),
	}

	rec, err := extractor.Extract(blocks)
	require.NoError(t, err)

	pair, ok := rec.KeyValuePairs["account"]
	require.True(t, ok)
	assert.Equal(t, "42", pair.Value)
}

func TestExtract_TableSummaries(t *testing.T) {
	extractor := NewExtractor()

	blocks := []ocr.Block{
		{
			ID:         "t1",
			Type:       ocr.BlockTypeTable,
			Confidence: 96.5,
			Relationships: []ocr.Relationship{
				{Type: ocr.RelationshipChild, IDs: []string{"c1", "c2", "c3", "c4"}},
			},
		},
		{ID: "t2", Type: ocr.BlockTypeTable, Confidence: 88.0},
	}

	rec, err := extractor.Extract(blocks)
	require.NoError(t, err)

	require.Len(t, rec.Tables, 2)
	assert.Equal(t, 0, rec.Tables[0].TableIndex)
	assert.Equal(t, 4, rec.Tables[0].CellCount)
	assert.Equal(t, 96.5, rec.Tables[0].Confidence)
	assert.Equal(t, 1, rec.Tables[1].TableIndex)
	assert.Equal(t, 0, rec.Tables[1].CellCount)
}

func TestExtract_OverallConfidenceIsMeanOfLines(t *testing.T) {
	extractor := NewExtractor()

	rec, err := extractor.Extract([]ocr.Block{
		lineBlock("l1", "one", 80.0),
		lineBlock("l2", "two", 90.0),
		wordBlock("w1", "ignored"),
	})
	require.NoError(t, err)

	assert.InDelta(t, 85.0, rec.Confidence.Overall, 0.0001)
}

func TestExtract_RawTextJoinsLinesInCollectionOrder(t *testing.T) {
	extractor := NewExtractor()

	rec, err := extractor.Extract([]ocr.Block{
		lineBlock("l1", "first", 90.0),
		wordBlock("w1", "skipped"),
		lineBlock("l2", "second", 90.0),
	})
	require.NoError(t, err)

	assert.Equal(t, "first\nsecond", rec.RawText)
}

func TestExtract_EmptyCollection(t *testing.T) {
	extractor := NewExtractor()

	rec, err := extractor.Extract([]ocr.Block{})
	require.NoError(t, err)

	assert.Equal(t, "", rec.RawText)
	assert.Empty(t, rec.KeyValuePairs)
	assert.Empty(t, rec.Tables)
	assert.Nil(t, rec.InvoiceData.InvoiceNumber)
	assert.Nil(t, rec.InvoiceData.TotalAmount)
	assert.Nil(t, rec.InvoiceData.VendorName)
	assert.Equal(t, invoice.DefaultCurrency, rec.InvoiceData.Currency)
	assert.Zero(t, rec.Confidence.Overall)
}

func TestExtract_NilCollection(t *testing.T) {
	extractor := NewExtractor()

	rec, err := extractor.Extract(nil)
	assert.Error(t, err)
	assert.Nil(t, rec)
}

func TestExtract_BlockMissingType(t *testing.T) {
	extractor := NewExtractor()

	rec, err := extractor.Extract([]ocr.Block{
		lineBlock("l1", "fine", 90.0),
		{ID: "b2", Text: "no type"},
	})
	assert.Error(t, err)
	assert.Nil(t, rec)
}

func TestExtract_FullInvoice(t *testing.T) {
	extractor := NewExtractor()

	text := strings.Join([]string{
		"Acme Supplies Ltd",
		"Invoice #: INV-2024-001",
		"Date: 15/01/2024",
		"Due: 14/02/2024",
		"Total: $1,500.00",
	}, "\n")

	rec, err := extractor.Extract(linesFromText(text, 93.0))
	require.NoError(t, err)

	require.NotNil(t, rec.InvoiceData.InvoiceNumber)
	assert.Equal(t, "INV-2024-001", *rec.InvoiceData.InvoiceNumber)
	require.NotNil(t, rec.InvoiceData.InvoiceDate)
	assert.Equal(t, "15/01/2024", *rec.InvoiceData.InvoiceDate)
	require.NotNil(t, rec.InvoiceData.DueDate)
	assert.Equal(t, "14/02/2024", *rec.InvoiceData.DueDate)
	require.NotNil(t, rec.InvoiceData.TotalAmount)
	assert.Equal(t, 1500.00, *rec.InvoiceData.TotalAmount)
	require.NotNil(t, rec.InvoiceData.VendorName)
	assert.Equal(t, "Acme Supplies Ltd", *rec.InvoiceData.VendorName)
	assert.InDelta(t, 93.0, rec.Confidence.Overall, 0.0001)
}

func TestExtract_Idempotent(t *testing.T) {
	extractor := NewExtractor()
	blocks := linesFromText("Acme Supplies Ltd\nInvoice #: INV-77\nTotal: $42.00", 90.0)

	first, err := extractor.Extract(blocks)
	require.NoError(t, err)
	second, err := extractor.Extract(blocks)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestExtract_NoDateTokens(t *testing.T) {
	extractor := NewExtractor()

	rec, err := extractor.Extract(linesFromText("Acme Supplies Ltd\nInvoice #: INV-77", 90.0))
	require.NoError(t, err)

	assert.Nil(t, rec.InvoiceData.InvoiceDate)
	assert.Nil(t, rec.InvoiceData.DueDate)
}
