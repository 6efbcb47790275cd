package s3

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/jollyrancherman/frauc-app-sub001/internal/platform/logger"
)

// PhotoStorage stores listing photos in a MinIO/S3 bucket and returns their
// public URLs.
type PhotoStorage struct {
	client *minio.Client
	bucket string
	logger *logger.Logger
}

func NewPhotoStorage(endpoint, accessKey, secretKey, bucketName string, useSSL bool, log *logger.Logger) (*PhotoStorage, error) {
	log.Info("Initializing MinIO photo storage",
		zap.String("endpoint", endpoint),
		zap.String("bucket", bucketName),
		zap.Bool("use_ssl", useSSL))

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", endpoint, err)
	}

	if err := client.MakeBucket(context.Background(), bucketName, minio.MakeBucketOptions{}); err != nil {
		exists, existsErr := client.BucketExists(context.Background(), bucketName)
		if existsErr != nil || !exists {
			return nil, fmt.Errorf("failed to make/verify bucket %s: (make: %v / exists_check: %v)", bucketName, err, existsErr)
		}
		log.Info("Photo bucket already exists", zap.String("bucket", bucketName))
	}

	return &PhotoStorage{
		client: client,
		bucket: bucketName,
		logger: log.Named("PhotoStorage"),
	}, nil
}

// Upload stores the photo under a generated key, keeping the original file
// extension, and returns the object URL.
func (s *PhotoStorage) Upload(ctx context.Context, originalFileName string, data []byte) (string, error) {
	ext := filepath.Ext(originalFileName)
	objectKey := fmt.Sprintf("photos/%s%s", uuid.New().String(), ext)

	s.logger.Debug("Uploading photo",
		zap.String("bucket", s.bucket),
		zap.String("object_key", objectKey),
		zap.Int("size_bytes", len(data)))

	info, err := s.client.PutObject(ctx, s.bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	if err != nil {
		s.logger.Error("PutObject failed", zap.String("bucket", s.bucket), zap.String("key", objectKey), zap.Error(err))
		return "", fmt.Errorf("failed to upload object %s to bucket %s: %w", objectKey, s.bucket, err)
	}

	fileURL := fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucket, objectKey)
	s.logger.Info("Photo uploaded",
		zap.String("key", info.Key),
		zap.String("etag", info.ETag),
		zap.String("url", fileURL))
	return fileURL, nil
}
