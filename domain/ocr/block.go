package ocr

import (
	pkgerrors "invoiceflow/pkg/errors"
)

// BlockType identifies the kind of OCR block
type BlockType string

const (
	BlockTypeLine        BlockType = "LINE"
	BlockTypeWord        BlockType = "WORD"
	BlockTypeKeyValueSet BlockType = "KEY_VALUE_SET"
	BlockTypeTable       BlockType = "TABLE"
	BlockTypeCell        BlockType = "CELL"
)

// EntityType distinguishes the two halves of a key/value set
type EntityType string

const (
	EntityTypeKey   EntityType = "KEY"
	EntityTypeValue EntityType = "VALUE"
)

// RelationshipType identifies how a block links to other blocks
type RelationshipType string

const (
	// RelationshipChild links a block to its constituent blocks
	// (LINE to WORDs, KEY to WORDs, TABLE to CELLs)
	RelationshipChild RelationshipType = "CHILD"

	// RelationshipValue links a KEY block to its VALUE block
	RelationshipValue RelationshipType = "VALUE"
)

// Relationship is a typed, ordered link from one block to a list of block ids
type Relationship struct {
	Type RelationshipType `json:"Type"`
	IDs  []string         `json:"Ids"`
}

// Block is a unit of OCR output as returned by the document analysis
// service. Text is present for LINE and WORD blocks; EntityTypes only for
// KEY_VALUE_SET blocks. Confidence is a 0-100 score. The JSON field names
// mirror the analysis service's wire format so raw responses can be fed
// straight into the extractor.
type Block struct {
	ID            string         `json:"Id"`
	Type          BlockType      `json:"BlockType"`
	Text          string         `json:"Text,omitempty"`
	Confidence    float64        `json:"Confidence,omitempty"`
	EntityTypes   []EntityType   `json:"EntityTypes,omitempty"`
	Relationships []Relationship `json:"Relationships,omitempty"`
}

// HasEntityType reports whether the block carries the given entity type
func (b Block) HasEntityType(et EntityType) bool {
	for _, t := range b.EntityTypes {
		if t == et {
			return true
		}
	}
	return false
}

// Relationship returns the first relationship of the given type, if any
func (b Block) Relationship(rt RelationshipType) (Relationship, bool) {
	for _, rel := range b.Relationships {
		if rel.Type == rt {
			return rel, true
		}
	}
	return Relationship{}, false
}

// Index is an id-to-block lookup built once per extraction call. Blocks are
// read-only for the duration of a call, so the index holds plain copies.
type Index struct {
	byID map[string]Block
}

// NewIndex builds an index over the given block collection
func NewIndex(blocks []Block) *Index {
	idx := &Index{byID: make(map[string]Block, len(blocks))}
	for _, b := range blocks {
		idx.byID[b.ID] = b
	}
	return idx
}

// Lookup resolves a block id. A dangling reference returns ok=false; callers
// treat that as empty text rather than an error.
func (idx *Index) Lookup(id string) (Block, bool) {
	b, ok := idx.byID[id]
	return b, ok
}

// ValidateCollection checks the structural contract on a block collection:
// it must be a real (non-nil) list, and every block must carry a type.
// Anything softer than that - dangling relationship ids, missing text,
// missing confidence - is tolerated downstream and never an error here.
func ValidateCollection(blocks []Block) error {
	if blocks == nil {
		return pkgerrors.NewInvalidInputError("block collection must be a list")
	}
	for i, b := range blocks {
		if b.Type == "" {
			return pkgerrors.NewInvalidInputError("block is missing required field 'type'").
				WithDetails(map[string]interface{}{"index": i, "id": b.ID})
		}
	}
	return nil
}
