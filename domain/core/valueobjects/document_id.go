package valueobjects

import (
	"errors"

	"github.com/google/uuid"
)

// DocumentID is a value object identifying one document moving through the
// pipeline. Value objects are immutable and have no identity beyond their
// value.
type DocumentID struct {
	value string
}

// NewDocumentID creates a new random DocumentID
func NewDocumentID() DocumentID {
	return DocumentID{value: uuid.New().String()}
}

// NewDocumentIDFromString creates a DocumentID from an existing string
func NewDocumentIDFromString(id string) (DocumentID, error) {
	if id == "" {
		return DocumentID{}, errors.New("document ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return DocumentID{}, errors.New("document ID must be a valid UUID")
	}
	return DocumentID{value: id}, nil
}

// String returns the string representation of the DocumentID
func (id DocumentID) String() string {
	return id.value
}

// Equals checks if two DocumentIDs are equal
func (id DocumentID) Equals(other DocumentID) bool {
	return id.value == other.value
}

// IsZero checks if the DocumentID is the zero value
func (id DocumentID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id DocumentID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *DocumentID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("DocumentID must be a string")
	}
	id.value = string(data[1 : len(data)-1])
	return nil
}
