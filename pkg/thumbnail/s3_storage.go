package thumbnail

import (
	"context"
	"errors"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Client is the subset of the S3 API the storage uses.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Storage serves images from an S3 bucket.
type S3Storage struct {
	client S3Client
	bucket string
	prefix string
}

// NewS3Storage creates an S3-backed image storage
func NewS3Storage(client S3Client, bucket, prefix string) *S3Storage {
	return &S3Storage{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// Open fetches an image object. Only the base name of the request is used.
func (s *S3Storage) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key := path.Base(name)
	if s.prefix != "" {
		key = path.Join(s.prefix, key)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}
	return out.Body, nil
}
