package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/we-kode/mml.media/config"
	"github.com/we-kode/mml.media/logger"
)

// minioStore keeps objects in a MinIO bucket, named by checksum.
type minioStore struct {
	client *minio.Client
	bucket string
}

func newMinioStore(cfg *config.Config) (Store, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("Created records bucket", logger.String("bucket", cfg.MinioBucket))
	}

	return &minioStore{client: client, bucket: cfg.MinioBucket}, nil
}

func (s *minioStore) Put(ctx context.Context, checksum, sourcePath string) error {
	_, err := s.client.FPutObject(ctx, s.bucket, checksum, sourcePath, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", checksum, err)
	}
	return nil
}

func (s *minioStore) Open(ctx context.Context, checksum string) (io.ReadSeekCloser, int64, error) {
	object, err := s.client.GetObject(ctx, s.bucket, checksum, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open stored object %s: %w", checksum, err)
	}
	info, err := object.Stat()
	if err != nil {
		object.Close()
		return nil, 0, fmt.Errorf("failed to stat stored object %s: %w", checksum, err)
	}
	return object, info.Size, nil
}

func (s *minioStore) Delete(ctx context.Context, checksum string) error {
	err := s.client.RemoveObject(ctx, s.bucket, checksum, minio.RemoveObjectOptions{})
	if err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return nil
		}
		return fmt.Errorf("failed to delete stored object %s: %w", checksum, err)
	}
	return nil
}

func (s *minioStore) Exists(ctx context.Context, checksum string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, checksum, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	var resp minio.ErrorResponse
	if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
		return false, nil
	}
	return false, err
}

func (s *minioStore) Location() string {
	return s.bucket
}
