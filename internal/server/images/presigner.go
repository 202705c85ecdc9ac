// Package images turns profile image storage keys into short-lived
// presigned S3 GET URLs.
package images

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/studymatch/internal/server/config"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

var ErrNotConfigured = errors.New("object storage is not configured")

// Presigner signs GET requests for objects in a single bucket.
type Presigner struct {
	client   *s3.PresignClient
	bucket   string
	validity time.Duration
}

// NewPresigner builds an S3 presign client from the server config. The
// endpoint may point at any S3-compatible store (MinIO in development).
func NewPresigner(ctx context.Context, cfg *sc.Config) (*Presigner, error) {
	if cfg.S3Bucket == "" {
		return nil, ErrNotConfigured
	}

	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	validity := cfg.ImageURLValidity
	if validity <= 0 {
		validity = 15 * time.Minute
	}

	return &Presigner{
		client:   newS3PresignClient(client),
		bucket:   cfg.S3Bucket,
		validity: validity,
	}, nil
}

// PresignGet returns an empty string for an empty key.
func (p *Presigner) PresignGet(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}

	bucket := p.bucket
	req, err := presignGetObject(p.client, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(p.validity))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
