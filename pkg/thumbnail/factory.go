package thumbnail

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// StorageConfig contains configuration for creating an image storage
type StorageConfig struct {
	// PhotoDir is required for local storage
	PhotoDir string
	// Bucket is required for S3 storage
	Bucket string
	// Prefix is an optional key prefix for S3 storage
	Prefix string
}

// NewStorage creates an image storage based on the storage type
func NewStorage(ctx context.Context, storageType string, config StorageConfig) (Storage, error) {
	switch storageType {
	case "local", "file":
		if config.PhotoDir == "" {
			return nil, fmt.Errorf("photo dir required for local storage")
		}
		return NewLocalStorage(config.PhotoDir), nil
	case "s3":
		if config.Bucket == "" {
			return nil, fmt.Errorf("bucket required for s3 storage")
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load aws config: %w", err)
		}
		return NewS3Storage(s3.NewFromConfig(awsCfg), config.Bucket, config.Prefix), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s (supported: local, s3)", storageType)
	}
}
