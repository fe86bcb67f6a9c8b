package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"invoiceflow/application/ports"
	"invoiceflow/domain/core/valueobjects"
	appErrors "invoiceflow/pkg/errors"
)

// ObjectStore is the S3-backed implementation of ports.ObjectStore
type ObjectStore struct {
	client *s3.Client
	logger *zap.Logger
}

// NewObjectStore creates an S3 object store
func NewObjectStore(client *s3.Client, logger *zap.Logger) ports.ObjectStore {
	return &ObjectStore{client: client, logger: logger}
}

// Head returns metadata for a stored object
func (s *ObjectStore) Head(ctx context.Context, location valueobjects.DocumentLocation) (ports.ObjectInfo, error) {
	output, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(location.Bucket()),
		Key:    aws.String(location.Key()),
	})
	if err != nil {
		if isNotFound(err) {
			return ports.ObjectInfo{}, appErrors.NewNotFoundError("object " + location.String())
		}
		return ports.ObjectInfo{}, appErrors.NewExternalError("s3",
			fmt.Errorf("head %s: %w", location.String(), err))
	}

	return ports.ObjectInfo{
		ContentType: aws.ToString(output.ContentType),
		SizeBytes:   aws.ToInt64(output.ContentLength),
		ETag:        aws.ToString(output.ETag),
	}, nil
}

// Get retrieves the object body
func (s *ObjectStore) Get(ctx context.Context, location valueobjects.DocumentLocation) ([]byte, error) {
	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(location.Bucket()),
		Key:    aws.String(location.Key()),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, appErrors.NewNotFoundError("object " + location.String())
		}
		return nil, appErrors.NewExternalError("s3",
			fmt.Errorf("get %s: %w", location.String(), err))
	}
	defer output.Body.Close()

	body, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, appErrors.NewExternalError("s3",
			fmt.Errorf("read %s: %w", location.String(), err))
	}
	return body, nil
}

// Delete removes an object. Deleting a missing object is not an error.
func (s *ObjectStore) Delete(ctx context.Context, location valueobjects.DocumentLocation) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(location.Bucket()),
		Key:    aws.String(location.Key()),
	})
	if err != nil {
		return appErrors.NewExternalError("s3",
			fmt.Errorf("delete %s: %w", location.String(), err))
	}

	s.logger.Debug("object deleted", zap.String("location", location.String()))
	return nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound"
}
