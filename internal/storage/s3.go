package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"instagramclone/internal/config"
	"instagramclone/internal/models"
)

const credentialsTimeout = 5 * time.Second

// S3Store uploads to an S3 compatible bucket. Credentials come from the
// default AWS chain (env, shared config, instance role).
type S3Store struct {
	client      *s3.Client
	uploader    *manager.Uploader
	bucket      string
	region      string
	publicBase  string
	bucketReady atomic.Bool
}

func NewS3Store(ctx context.Context, cfg config.S3) (*S3Store, error) {
	awsConfig, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	// resolve credentials now so a missing identity shows up at startup
	if awsConfig.Credentials == nil {
		return nil, errors.New("resolve aws credentials: no credential provider configured")
	}
	credCtx, cancel := context.WithTimeout(ctx, credentialsTimeout)
	defer cancel()
	if _, err := awsConfig.Credentials.Retrieve(credCtx); err != nil {
		return nil, fmt.Errorf("resolve aws credentials: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicBase := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if publicBase == "" {
		if cfg.Endpoint != "" {
			publicBase = strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}

	return &S3Store{
		client:     client,
		uploader:   manager.NewUploader(client),
		bucket:     cfg.Bucket,
		region:     cfg.Region,
		publicBase: publicBase,
	}, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	if s.bucketReady.Load() {
		return nil
	}

	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err == nil {
		s.bucketReady.Store(true)
		return nil
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}
	if s.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}

	if _, err := s.client.CreateBucket(ctx, input); err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if !errors.As(err, &owned) {
			return fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
	}

	s.bucketReady.Store(true)
	return nil
}

func (s *S3Store) Store(ctx context.Context, data []byte, suggestedName, mimeType string) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrStorageUnavailable, err)
	}

	key := objectKey(time.Now(), suggestedName)

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentTypeOrDefault(mimeType)),
	})
	if err != nil {
		return "", fmt.Errorf("%w: upload to s3: %w", models.ErrStorageUnavailable, err)
	}

	return s.publicBase + "/" + key, nil
}

func (s *S3Store) Delete(ctx context.Context, locator string) error {
	key, ok := strings.CutPrefix(locator, s.publicBase+"/")
	if !ok || key == "" {
		return fmt.Errorf("locator %q is not in bucket %s", locator, s.bucket)
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("%w: delete from s3: %w", models.ErrStorageUnavailable, err)
	}
	return nil
}
