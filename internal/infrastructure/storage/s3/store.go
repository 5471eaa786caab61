// Package s3 stores avatar and cover images in an S3-compatible bucket.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/mediahub/account-service/internal/pkg/metrics"
	"github.com/mediahub/account-service/internal/core/domain"
	"github.com/mediahub/account-service/internal/core/ports"
)

const defaultTimeout = 15 * time.Second

// Config captures the bucket location and credentials.
type Config struct {
	Endpoint      string // empty for AWS proper
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string // prefix of the URLs stored on users; derived when empty
	UsePathStyle  bool
	Timeout       time.Duration
}

// objectAPI is the subset of *s3.Client the store calls.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

var _ ports.AssetStore = (*Store)(nil)

// Store implements ports.AssetStore.
type Store struct {
	client     objectAPI
	bucket     string
	publicBase string
	timeout    time.Duration
	newID      func() string
}

// New builds an S3 client from static credentials and returns a Store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("s3: load config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return NewWithClient(client, cfg), nil
}

// NewWithClient returns a Store over an existing client.
func NewWithClient(client objectAPI, cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Store{
		client:     client,
		bucket:     cfg.Bucket,
		publicBase: publicBaseURL(cfg),
		timeout:    timeout,
		newID:      uuid.NewString,
	}
}

// Upload writes the object under a fresh key and returns its public reference.
func (s *Store) Upload(ctx context.Context, kind domain.AssetKind, up ports.AssetUpload) (ref domain.AssetReference, err error) {
	start := time.Now()
	defer func() { observe("upload", start, err) }()

	key := s.objectKey(kind, up.ContentType)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(up.Data),
		ContentType:   aws.String(up.ContentType),
		ContentLength: aws.Int64(int64(len(up.Data))),
	})
	if err != nil {
		return domain.AssetReference{}, classify(err, fmt.Sprintf("%s upload failed", kind))
	}

	return domain.AssetReference{
		URL:         s.publicBase + "/" + key,
		Key:         key,
		ContentType: up.ContentType,
		Size:        int64(len(up.Data)),
	}, nil
}

// Delete removes an object. Deleting a missing key succeeds.
func (s *Store) Delete(ctx context.Context, key string) (err error) {
	start := time.Now()
	defer func() { observe("delete", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil
		}
		return classify(err, "asset delete failed")
	}
	return nil
}

// KeyFromURL strips the public base from a stored URL.
func (s *Store) KeyFromURL(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, s.publicBase+"/")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

// Ping checks that the bucket is reachable with the configured credentials.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}

func (s *Store) objectKey(kind domain.AssetKind, contentType string) string {
	prefix := "avatars"
	if kind == domain.AssetCoverImage {
		prefix = "covers"
	}
	ext := ""
	if mt := mimetype.Lookup(contentType); mt != nil {
		ext = mt.Extension()
	}
	return prefix + "/" + s.newID() + ext
}

// classify separates "the store answered no" from "the store did not answer".
func classify(err error, message string) error {
	var apiErr smithy.APIError
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return domain.Wrap(domain.ErrAssetStoreUnavailable, err, "asset store timed out")
	case errors.As(err, &apiErr):
		return domain.Wrap(domain.ErrUploadFailed, err, fmt.Sprintf("%s (%s)", message, apiErr.ErrorCode()))
	}
	return domain.Wrap(domain.ErrAssetStoreUnavailable, err, "asset store unreachable")
}

func observe(op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.AssetOperationsTotal.WithLabelValues(op, result).Inc()
	metrics.AssetOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func publicBaseURL(cfg Config) string {
	switch {
	case cfg.PublicBaseURL != "":
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
}
