package blobstore

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"

	"dataset-hub-service/internal/config"
	output "dataset-hub-service/internal/core/ports/output"
)

// MinIOStore keeps dataset archives in an S3-compatible bucket.
type MinIOStore struct {
	client         *minio.Client
	bucket         string
	publicEndpoint string
}

var _ output.BlobStore = (*MinIOStore)(nil)

// NewMinIOStore creates the client and makes sure the bucket exists.
func NewMinIOStore(ctx context.Context, cfg *config.StorageConfig) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	s := &MinIOStore{
		client:         client,
		bucket:         cfg.Bucket,
		publicEndpoint: publicEndpoint(cfg),
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		log.WithError(err).WithField("bucket", cfg.Bucket).Warn("failed to check bucket, continuing")
	} else if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		log.WithField("bucket", cfg.Bucket).Info("bucket created")
	}

	log.WithFields(log.Fields{
		"endpoint":        cfg.Endpoint,
		"public_endpoint": s.publicEndpoint,
		"bucket":          cfg.Bucket,
	}).Info("blob storage initialized")
	return s, nil
}

func publicEndpoint(cfg *config.StorageConfig) string {
	ep := strings.TrimSuffix(strings.TrimSpace(cfg.PublicEndpoint), "/")
	if ep == "" {
		ep = cfg.Endpoint
	}
	if strings.Contains(ep, "://") {
		return ep
	}
	if cfg.UseSSL {
		return "https://" + ep
	}
	return "http://" + ep
}

// URL is the public address of key.
func (s *MinIOStore) URL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicEndpoint, s.bucket, key)
}

func (s *MinIOStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	url := s.URL(key)
	log.WithFields(log.Fields{"key": key, "size": size}).Debug("object stored")
	return url, nil
}

// DeletePrefix removes every object stored under prefix + "/".
func (s *MinIOStore) DeletePrefix(ctx context.Context, prefix string) error {
	// Cancelling stops the listing goroutine on early return.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    strings.TrimSuffix(prefix, "/") + "/",
		Recursive: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			return fmt.Errorf("list objects under %s: %w", prefix, obj.Err)
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("remove object %s: %w", obj.Key, err)
		}
	}
	return nil
}

// Ping verifies the bucket is reachable.
func (s *MinIOStore) Ping(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("blob storage health check: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %q does not exist", s.bucket)
	}
	return nil
}
