package invoice

// Heuristic confidence scores assigned to pattern-matched fields. These are
// fixed constants carried over from the original extraction rules, not a
// derived scoring model.
const (
	ConfidenceInvoiceNumber = 85.0
	ConfidenceTotalAmount   = 80.0
	ConfidenceVendorName    = 70.0
)

// DefaultCurrency is assumed when no currency code appears next to the total
const DefaultCurrency = "USD"

// KeyValuePair is one reconstructed form field. Confidence is the minimum of
// the key and value block confidences.
type KeyValuePair struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// TableSummary is a shallow per-table summary. Full cell contents are not
// extracted; only the cell count and the table block's own confidence.
type TableSummary struct {
	TableIndex int     `json:"tableIndex"`
	CellCount  int     `json:"cellCount"`
	Confidence float64 `json:"confidence"`
}

// Data holds the fixed invoice schema populated by pattern matching over the
// document's raw text. Every field is nullable: an unmatched pattern leaves
// its field nil rather than failing the extraction.
type Data struct {
	InvoiceNumber *string  `json:"invoiceNumber"`
	InvoiceDate   *string  `json:"invoiceDate"`
	DueDate       *string  `json:"dueDate"`
	TotalAmount   *float64 `json:"totalAmount"`
	Currency      string   `json:"currency"`
	VendorName    *string  `json:"vendorName"`
}

// FieldConfidence carries per-field heuristic scores. Overall is the mean of
// all LINE block confidences (0 when the document has none); the named fields
// hold their heuristic constant once matched, 0 otherwise.
type FieldConfidence struct {
	Overall       float64 `json:"overall"`
	InvoiceNumber float64 `json:"invoiceNumber"`
	TotalAmount   float64 `json:"totalAmount"`
	VendorName    float64 `json:"vendorName"`
}

// Record is the extracted invoice produced from one block collection. It is
// a pure value: constructed once per document, never mutated after being
// returned. The JSON field names are fixed for interoperability with the
// pipeline's existing downstream consumers.
type Record struct {
	RawText       string                  `json:"rawText"`
	KeyValuePairs map[string]KeyValuePair `json:"keyValuePairs"`
	Tables        []TableSummary          `json:"tables"`
	InvoiceData   Data                    `json:"invoiceData"`
	Confidence    FieldConfidence         `json:"confidence"`
}

// NewRecord returns an empty record with initialized containers and the
// default currency
func NewRecord() *Record {
	return &Record{
		KeyValuePairs: make(map[string]KeyValuePair),
		Tables:        []TableSummary{},
		InvoiceData:   Data{Currency: DefaultCurrency},
	}
}
