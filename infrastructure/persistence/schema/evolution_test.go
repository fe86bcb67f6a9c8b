package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceflow/domain/invoice"
)

func sampleRecord() *invoice.Record {
	record := invoice.NewRecord()
	number := "INV-2024-001"
	vendor := "Acme Supplies Ltd"
	amount := 1500.00
	record.RawText = "Acme Supplies Ltd\nInvoice #: INV-2024-001\nTotal: $1,500.00"
	record.InvoiceData.InvoiceNumber = &number
	record.InvoiceData.VendorName = &vendor
	record.InvoiceData.TotalAmount = &amount
	record.Confidence.InvoiceNumber = 85
	record.Confidence.TotalAmount = 80
	record.Confidence.VendorName = 70
	record.Confidence.Overall = 92.5
	record.KeyValuePairs["po number"] = invoice.KeyValuePair{Value: "PO-7788", Confidence: 88}
	record.Tables = append(record.Tables, invoice.TableSummary{TableIndex: 0, CellCount: 6, Confidence: 90})
	return record
}

func TestRecordCodec_RoundTrip(t *testing.T) {
	codec := NewRecordCodec()
	original := sampleRecord()

	payload, err := codec.Marshal(original)
	require.NoError(t, err)

	decoded, err := codec.Unmarshal(payload)
	require.NoError(t, err)

	assert.Equal(t, original, decoded)
}

func TestRecordCodec_MarshalWritesCurrentVersion(t *testing.T) {
	codec := NewRecordCodec()

	payload, err := codec.Marshal(sampleRecord())
	require.NoError(t, err)

	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(payload, &envelope))
	assert.JSONEq(t, "2", string(envelope["_schema_version"]))
	assert.Contains(t, envelope, "data")
}

func TestRecordCodec_BarePayloadTreatedAsVersionZero(t *testing.T) {
	codec := NewRecordCodec()

	// Pre-envelope shape: no currency, no containers, fractional confidence.
	payload := []byte(`{
		"rawText": "Invoice #: INV-001",
		"invoiceData": {"invoiceNumber": "INV-001"},
		"confidence": {"overall": 0.85, "invoiceNumber": 0.85}
	}`)

	record, err := codec.Unmarshal(payload)
	require.NoError(t, err)

	assert.Equal(t, invoice.DefaultCurrency, record.InvoiceData.Currency)
	assert.NotNil(t, record.KeyValuePairs)
	assert.NotNil(t, record.Tables)
	assert.InDelta(t, 85.0, record.Confidence.Overall, 0.001)
	assert.InDelta(t, 85.0, record.Confidence.InvoiceNumber, 0.001)
}

func TestRecordCodec_VersionOneConfidenceRescaled(t *testing.T) {
	codec := NewRecordCodec()

	payload := []byte(`{
		"_schema_version": 1,
		"data": {
			"rawText": "",
			"keyValuePairs": {},
			"tables": [],
			"invoiceData": {"currency": "EUR"},
			"confidence": {"overall": 0.9, "invoiceNumber": 0.85, "totalAmount": 0.8, "vendorName": 0.7}
		}
	}`)

	record, err := codec.Unmarshal(payload)
	require.NoError(t, err)

	assert.Equal(t, "EUR", record.InvoiceData.Currency)
	assert.InDelta(t, 90.0, record.Confidence.Overall, 0.001)
	assert.InDelta(t, 85.0, record.Confidence.InvoiceNumber, 0.001)
	assert.InDelta(t, 80.0, record.Confidence.TotalAmount, 0.001)
	assert.InDelta(t, 70.0, record.Confidence.VendorName, 0.001)
}

func TestRecordCodec_PercentageConfidenceNotRescaledTwice(t *testing.T) {
	codec := NewRecordCodec()

	payload := []byte(`{
		"_schema_version": 1,
		"data": {
			"invoiceData": {"currency": "USD"},
			"confidence": {"overall": 92.5, "invoiceNumber": 85}
		}
	}`)

	record, err := codec.Unmarshal(payload)
	require.NoError(t, err)

	assert.InDelta(t, 92.5, record.Confidence.Overall, 0.001)
	assert.InDelta(t, 85.0, record.Confidence.InvoiceNumber, 0.001)
}

func TestRecordCodec_CurrentVersionNeedsNoMigration(t *testing.T) {
	codec := NewRecordCodec()

	payload := []byte(`{
		"_schema_version": 2,
		"data": {
			"invoiceData": {"currency": "GBP"},
			"confidence": {"overall": 0.5}
		}
	}`)

	record, err := codec.Unmarshal(payload)
	require.NoError(t, err)

	// A genuine sub-1 percentage at the current version stays untouched.
	assert.InDelta(t, 0.5, record.Confidence.Overall, 0.001)
	assert.Equal(t, "GBP", record.InvoiceData.Currency)
}

func TestRecordCodec_MissingMigrationInChain(t *testing.T) {
	codec := &RecordCodec{}
	codec.Register(RecordMigration{
		FromVersion: 1,
		ToVersion:   2,
		Description: "partial chain",
		Upgrade:     func(*invoice.Record) error { return nil },
	})

	_, err := codec.Unmarshal([]byte(`{"invoiceData": {"currency": "USD"}}`))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no record migration from version 0")
}

func TestRecordCodec_MalformedPayload(t *testing.T) {
	codec := NewRecordCodec()

	_, err := codec.Unmarshal([]byte(`not json`))

	assert.Error(t, err)
}
