package schema

import (
	"encoding/json"
	"fmt"
	"sort"

	"invoiceflow/domain/invoice"
)

// CurrentRecordVersion is the envelope version written for new records
const CurrentRecordVersion = 2

// recordEnvelope wraps a stored record with its schema version so old
// items remain readable after the record shape changes
type recordEnvelope struct {
	SchemaVersion int             `json:"_schema_version"`
	Data          json.RawMessage `json:"data"`
}

// RecordMigration upgrades a decoded record from one version to the next
type RecordMigration struct {
	FromVersion int
	ToVersion   int
	Description string
	Upgrade     func(record *invoice.Record) error
}

// RecordCodec encodes and decodes stored invoice records, applying
// registered migrations on read
type RecordCodec struct {
	migrations []RecordMigration
}

// NewRecordCodec creates a codec with the standard migration chain
func NewRecordCodec() *RecordCodec {
	codec := &RecordCodec{}

	// v0: bare record JSON predating the envelope. Early records could
	// carry an empty currency and nil containers.
	codec.Register(RecordMigration{
		FromVersion: 0,
		ToVersion:   1,
		Description: "default missing currency and containers",
		Upgrade: func(record *invoice.Record) error {
			if record.InvoiceData.Currency == "" {
				record.InvoiceData.Currency = invoice.DefaultCurrency
			}
			if record.KeyValuePairs == nil {
				record.KeyValuePairs = make(map[string]invoice.KeyValuePair)
			}
			if record.Tables == nil {
				record.Tables = make([]invoice.TableSummary, 0)
			}
			return nil
		},
	})

	// v1 records stored confidence on a 0..1 scale; v2 stores 0..100
	codec.Register(RecordMigration{
		FromVersion: 1,
		ToVersion:   2,
		Description: "rescale confidence scores to percentages",
		Upgrade: func(record *invoice.Record) error {
			if record.Confidence.Overall <= 1.0 {
				record.Confidence.Overall *= 100
				record.Confidence.InvoiceNumber *= 100
				record.Confidence.TotalAmount *= 100
				record.Confidence.VendorName *= 100
			}
			return nil
		},
	})

	return codec
}

// Register adds a migration to the chain
func (c *RecordCodec) Register(m RecordMigration) {
	c.migrations = append(c.migrations, m)
	sort.Slice(c.migrations, func(i, j int) bool {
		return c.migrations[i].FromVersion < c.migrations[j].FromVersion
	})
}

// Marshal encodes a record with the current envelope version
func (c *RecordCodec) Marshal(record *invoice.Record) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return json.Marshal(recordEnvelope{
		SchemaVersion: CurrentRecordVersion,
		Data:          data,
	})
}

// Unmarshal decodes a stored record, upgrading legacy versions to the
// current shape. Payloads without an envelope are treated as version 0.
func (c *RecordCodec) Unmarshal(payload []byte) (*invoice.Record, error) {
	version := 0
	data := payload

	var envelope recordEnvelope
	if err := json.Unmarshal(payload, &envelope); err == nil && envelope.Data != nil {
		version = envelope.SchemaVersion
		data = envelope.Data
	}

	var record invoice.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}

	if err := c.upgrade(&record, version); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *RecordCodec) upgrade(record *invoice.Record, fromVersion int) error {
	version := fromVersion
	for version < CurrentRecordVersion {
		migration := c.find(version)
		if migration == nil {
			return fmt.Errorf("no record migration from version %d", version)
		}
		if err := migration.Upgrade(record); err != nil {
			return fmt.Errorf("record migration %d->%d failed: %w",
				migration.FromVersion, migration.ToVersion, err)
		}
		version = migration.ToVersion
	}
	return nil
}

func (c *RecordCodec) find(from int) *RecordMigration {
	for i := range c.migrations {
		if c.migrations[i].FromVersion == from {
			return &c.migrations[i]
		}
	}
	return nil
}
