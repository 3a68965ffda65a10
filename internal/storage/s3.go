// Package storage uploads user avatars to an S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Uploader stores a file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
}

// S3Store uploads objects via the AWS SDK. Works against AWS or any
// S3-compatible endpoint (e.g. MinIO) when Endpoint is set.
type S3Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// S3Options configure the store.
type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	// PublicURL is the base URL objects are served from; defaults to the
	// bucket's virtual-hosted AWS URL.
	PublicURL string
}

// NewS3Store builds the S3 client from explicit options.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := opts.PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
	}

	return &S3Store{
		client:    client,
		bucket:    opts.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Upload puts the object under avatars/<unix-nano>.<ext> and returns its
// public URL.
func (s *S3Store) Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	ext := strings.TrimPrefix(path.Ext(filename), ".")
	if ext == "" {
		ext = "bin"
	}
	key := fmt.Sprintf("avatars/%d.%s", time.Now().UnixNano(), ext)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	return s.publicURL + "/" + key, nil
}
