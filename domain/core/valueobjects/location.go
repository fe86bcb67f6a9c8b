package valueobjects

import (
	"errors"
	"path"
	"strings"
)

// supported document extensions for the analysis service
var supportedExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tiff": true,
	".tif":  true,
}

// DocumentLocation is a value object pointing at a document in object
// storage: a bucket-like container id plus an object key.
type DocumentLocation struct {
	bucket string
	key    string
}

// NewDocumentLocation creates a validated document location
func NewDocumentLocation(bucket, key string) (DocumentLocation, error) {
	if bucket == "" {
		return DocumentLocation{}, errors.New("bucket cannot be empty")
	}
	if key == "" {
		return DocumentLocation{}, errors.New("object key cannot be empty")
	}
	if strings.Contains(key, "..") {
		return DocumentLocation{}, errors.New("object key cannot contain path traversal")
	}
	return DocumentLocation{bucket: bucket, key: key}, nil
}

// Bucket returns the container id
func (l DocumentLocation) Bucket() string {
	return l.bucket
}

// Key returns the object key
func (l DocumentLocation) Key() string {
	return l.key
}

// Filename returns the final path element of the key
func (l DocumentLocation) Filename() string {
	return path.Base(l.key)
}

// IsSupportedType reports whether the object's extension is one the
// analysis service accepts
func (l DocumentLocation) IsSupportedType() bool {
	return supportedExtensions[strings.ToLower(path.Ext(l.key))]
}

// String returns the location in bucket/key form
func (l DocumentLocation) String() string {
	return l.bucket + "/" + l.key
}

// IsZero checks if the location is the zero value
func (l DocumentLocation) IsZero() bool {
	return l.bucket == "" && l.key == ""
}
