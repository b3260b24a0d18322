package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"instagramclone/internal/config"
	"instagramclone/internal/models"
)

const publicReadPolicy = `{
	"Version": "2012-10-17",
	"Statement": [{
		"Effect": "Allow",
		"Principal": {"AWS": ["*"]},
		"Action": ["s3:GetObject"],
		"Resource": ["arn:aws:s3:::%s/*"]
	}]
}`

type MinIOClient struct {
	client      *minio.Client
	bucket      string
	publicBase  string
	bucketReady atomic.Bool
}

func NewMinIOClient(cfg config.MinIO) (*MinIOClient, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	publicBase := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if publicBase == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicBase = scheme + "://" + cfg.Endpoint
	}

	return &MinIOClient{
		client:     client,
		bucket:     cfg.BucketName,
		publicBase: publicBase,
	}, nil
}

// ensureBucket creates the bucket on first use and opens it for anonymous
// reads so the returned URLs resolve in a browser.
func (m *MinIOClient) ensureBucket(ctx context.Context) error {
	if m.bucketReady.Load() {
		return nil
	}

	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", m.bucket, err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			// another upload may have created it in the meantime
			if ok, checkErr := m.client.BucketExists(ctx, m.bucket); checkErr != nil || !ok {
				return fmt.Errorf("create bucket %s: %w", m.bucket, err)
			}
		}
	}

	if err := m.client.SetBucketPolicy(ctx, m.bucket, fmt.Sprintf(publicReadPolicy, m.bucket)); err != nil {
		return fmt.Errorf("set policy on %s: %w", m.bucket, err)
	}

	m.bucketReady.Store(true)
	return nil
}

func (m *MinIOClient) Store(ctx context.Context, data []byte, suggestedName, mimeType string) (string, error) {
	if err := m.ensureBucket(ctx); err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrStorageUnavailable, err)
	}

	objectName := objectKey(time.Now(), suggestedName)

	_, err := m.client.PutObject(ctx, m.bucket, objectName, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{
			ContentType: contentTypeOrDefault(mimeType),
			UserMetadata: map[string]string{
				"original-filename": SanitizeName(suggestedName),
			},
		})
	if err != nil {
		return "", fmt.Errorf("%w: upload to minio: %w", models.ErrStorageUnavailable, err)
	}

	return fmt.Sprintf("%s/%s/%s", m.publicBase, m.bucket, objectName), nil
}

func (m *MinIOClient) Delete(ctx context.Context, locator string) error {
	objectName, ok := strings.CutPrefix(locator, fmt.Sprintf("%s/%s/", m.publicBase, m.bucket))
	if !ok || objectName == "" {
		return fmt.Errorf("locator %q is not in bucket %s", locator, m.bucket)
	}

	// RemoveObject succeeds for keys that do not exist
	if err := m.client.RemoveObject(ctx, m.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%w: remove from minio: %w", models.ErrStorageUnavailable, err)
	}
	return nil
}

// objectKey spreads objects by month and keeps the original extension.
func objectKey(now time.Time, suggestedName string) string {
	ext := strings.ToLower(filepath.Ext(SanitizeName(suggestedName)))
	return fmt.Sprintf("posts/%d/%02d/%s%s", now.Year(), now.Month(), uuid.NewString(), ext)
}

func contentTypeOrDefault(mimeType string) string {
	if mimeType == "" {
		return "application/octet-stream"
	}
	return mimeType
}
