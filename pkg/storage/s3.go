package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	pkglogger "github.com/huddlechat/huddle-backend/pkg/logger"
)

// S3Client wraps the AWS S3 client for S3/R2/MinIO compatible storage
type S3Client struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	cdnURL    string // optional public base URL; when set, reads skip presigning
	basePath  string // prefix for all objects (e.g. "uploads/")
	urlTTL    time.Duration
}

// S3Config holds S3-compatible storage configuration
type S3Config struct {
	Endpoint        string // e.g. https://xxx.r2.cloudflarestorage.com
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	CDNURL          string
	BasePath        string
	ForcePathStyle  bool // true for MinIO/R2
	URLTTL          time.Duration
}

// NewS3Client creates a new S3-compatible storage client
func NewS3Client(cfg S3Config) (*S3Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3: bucket is required")
	}
	opts := func(o *s3.Options) {
		o.Region = cfg.Region
		o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	}

	client := s3.New(s3.Options{}, opts)

	ttl := cfg.URLTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	pkglogger.GetLogger().Info().
		Str("bucket", cfg.Bucket).
		Str("endpoint", cfg.Endpoint).
		Msg("S3 storage client initialized")

	return &S3Client{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		cdnURL:    strings.TrimRight(cfg.CDNURL, "/"),
		basePath:  cfg.BasePath,
		urlTTL:    ttl,
	}, nil
}

// PresignUpload returns a fresh object key and a pre-signed PUT URL for it.
// The key is relative to the base path and is what callers store.
func (c *S3Client) PresignUpload(ctx context.Context, prefix, contentType string) (key, uploadURL string, err error) {
	key = GenerateKey(prefix)

	input := &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.objectKey(key)),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	result, err := c.presigner.PresignPutObject(ctx, input, s3.WithPresignExpires(c.urlTTL))
	if err != nil {
		return "", "", fmt.Errorf("presign upload failed: %w", err)
	}
	return key, result.URL, nil
}

// URL resolves a stored key to a fetchable URL
func (c *S3Client) URL(ctx context.Context, key string) (string, error) {
	if c.cdnURL != "" {
		return c.cdnURL + "/" + c.objectKey(key), nil
	}

	input := &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.objectKey(key)),
	}

	result, err := c.presigner.PresignGetObject(ctx, input, s3.WithPresignExpires(c.urlTTL))
	if err != nil {
		return "", fmt.Errorf("presign failed: %w", err)
	}
	return result.URL, nil
}

// Delete removes a file from storage
func (c *S3Client) Delete(ctx context.Context, key string) error {
	input := &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.objectKey(key)),
	}

	if _, err := c.client.DeleteObject(ctx, input); err != nil {
		return fmt.Errorf("s3 delete failed: %w", err)
	}
	return nil
}

func (c *S3Client) objectKey(key string) string {
	return c.basePath + key
}

// GenerateKey creates a unique storage key with a date prefix
func GenerateKey(prefix string) string {
	now := time.Now().UTC()
	return path.Join(prefix, fmt.Sprintf("%d/%02d/%02d", now.Year(), now.Month(), now.Day()), uuid.NewString())
}
