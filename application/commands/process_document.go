package commands

import (
	"errors"
	"strings"
)

// ProcessDocumentCommand requests the full extraction pipeline for a
// document sitting in object storage. It is normally raised by a
// storage event notification but can also come from the REST API.
type ProcessDocumentCommand struct {
	Bucket      string `json:"bucket" validate:"required"`
	Key         string `json:"key" validate:"required"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	RequestID   string `json:"request_id"`
}

// Validate validates the command
func (cmd ProcessDocumentCommand) Validate() error {
	if strings.TrimSpace(cmd.Bucket) == "" {
		return errors.New("bucket is required")
	}
	if strings.TrimSpace(cmd.Key) == "" {
		return errors.New("object key is required")
	}
	if cmd.SizeBytes < 0 {
		return errors.New("size must not be negative")
	}
	return nil
}

// ReprocessDocumentCommand re-runs extraction for a document that
// previously failed
type ReprocessDocumentCommand struct {
	DocumentID string `json:"document_id" validate:"required,uuid"`
	RequestID  string `json:"request_id"`
}

// Validate validates the command
func (cmd ReprocessDocumentCommand) Validate() error {
	if strings.TrimSpace(cmd.DocumentID) == "" {
		return errors.New("document ID is required")
	}
	return nil
}
