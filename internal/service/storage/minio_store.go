package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// MinIOStore implements FileStore against an S3-compatible object store.
// A "folder" is a key prefix; find-or-create materializes the prefix with a
// zero-byte marker object so that empty folders are still listable. The
// folder id returned to callers is the prefix itself.
type MinIOStore struct {
	client *minio.Client
	bucket string
	region string
	logger zerolog.Logger

	ensureMu      sync.Mutex
	bucketEnsured bool
}

const folderMarker = ".folder"

func NewMinIOStore(endpoint, accessKey, secretKey, bucket, region string, useSSL bool, connectTimeout time.Duration, logger zerolog.Logger) (*MinIOStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	store := &MinIOStore{
		client: client,
		bucket: bucket,
		region: region,
		logger: logger,
	}

	// Best-effort bootstrap: mirroring is a non-fatal side channel, so the
	// portal keeps running even when the store is not reachable at startup.
	if connectTimeout <= 0 {
		connectTimeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := store.ensureBucket(ctx); err != nil {
		logger.Error().Err(err).
			Str("endpoint", endpoint).
			Str("bucket", bucket).
			Msg("Object store not ready during startup; mirroring will retry on demand")
	} else {
		logger.Info().
			Str("endpoint", endpoint).
			Str("bucket", bucket).
			Bool("ssl", useSSL).
			Msg("Connected to object store")
	}

	return store, nil
}

func (s *MinIOStore) ensureBucket(ctx context.Context) error {
	s.ensureMu.Lock()
	defer s.ensureMu.Unlock()
	if s.bucketEnsured {
		return nil
	}

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		s.logger.Info().Str("bucket", s.bucket).Msg("Created new bucket")
	}

	s.bucketEnsured = true
	return nil
}

// FindOrCreateFolder is idempotent by name within a parent: an existing
// prefix is returned as-is, otherwise its marker object is written.
func (s *MinIOStore) FindOrCreateFolder(ctx context.Context, parentID, name string) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}

	folderID := path.Join(parentID, name)
	markerKey := folderID + "/" + folderMarker

	_, err := s.client.StatObject(ctx, s.bucket, markerKey, minio.StatObjectOptions{})
	if err == nil {
		return folderID, nil
	}
	if minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return "", fmt.Errorf("failed to stat folder marker: %w", err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, markerKey, bytes.NewReader(nil), 0, minio.PutObjectOptions{
		ContentType: "application/x-directory",
	})
	if err != nil {
		return "", fmt.Errorf("failed to create folder: %w", err)
	}

	s.logger.Debug().
		Str("bucket", s.bucket).
		Str("folder", folderID).
		Msg("Folder created")

	return folderID, nil
}

func (s *MinIOStore) UploadFile(ctx context.Context, folderID, fileName string, content []byte, mimeType string) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}

	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	key := strings.TrimSuffix(folderID, "/") + "/" + fileName
	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: mimeType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	s.logger.Debug().
		Str("bucket", s.bucket).
		Str("key", key).
		Str("etag", info.ETag).
		Int("size", len(content)).
		Msg("File uploaded")

	return key, nil
}
