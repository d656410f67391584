package storage

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"frameline/config"
	"frameline/core/timeline"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Object metadata keys written by the upload/transcode pipeline.
const (
	metaMediaType  = "X-Amz-Meta-Media-Type"
	metaDurationMs = "X-Amz-Meta-Duration-Ms"
)

// presignExpiry is how long resolved media URLs stay valid. Long enough for
// an editing session, short enough that links do not outlive the project.
const presignExpiry = 12 * time.Hour

// MediaStore resolves media references against a MinIO bucket: the object
// name is the media ID, the intrinsic duration and media type come from
// object metadata, and the URL is a presigned GET.
type MediaStore struct {
	client *minio.Client
	bucket string
}

// NewMediaStore connects to MinIO and verifies the bucket exists.
func NewMediaStore(cfg *config.Config) (*MediaStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check media bucket: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("media bucket %q does not exist", cfg.MinioBucket)
	}
	return &MediaStore{client: client, bucket: cfg.MinioBucket}, nil
}

// ResolveMedia implements timeline.MediaResolver.
func (s *MediaStore) ResolveMedia(ctx context.Context, mediaID string) (*timeline.Media, error) {
	stat, err := s.client.StatObject(ctx, s.bucket, mediaID, minio.StatObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to stat media %s: %w", mediaID, err)
	}

	media := &timeline.Media{
		ID:        mediaID,
		MediaType: stat.Metadata.Get(metaMediaType),
	}
	if raw := stat.Metadata.Get(metaDurationMs); raw != "" {
		if d, err := strconv.ParseInt(raw, 10, 64); err == nil && d > 0 {
			media.DurationMs = d
		}
	}

	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, mediaID, presignExpiry, url.Values{})
	if err != nil {
		return nil, fmt.Errorf("failed to presign media %s: %w", mediaID, err)
	}
	media.URL = presigned.String()
	return media, nil
}
