package storage

import (
	"context"
	"fmt"
	"time"

	"nodal/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Storage hands out presigned PUT URLs against an S3 (or S3-compatible) bucket.
type S3Storage struct {
	client        *s3.Client
	presign       *s3.PresignClient
	bucket        string
	region        string
	endpoint      string
	publicBaseURL string
	ttl           time.Duration
}

func NewS3Storage(ctx context.Context, cfg config.StorageConfig, ttl time.Duration) (*S3Storage, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3.Region)}
	if cfg.S3.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
		}
		o.UsePathStyle = cfg.S3.UsePathStyle
	})

	return &S3Storage{
		client:        client,
		presign:       s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		region:        cfg.S3.Region,
		endpoint:      cfg.S3.Endpoint,
		publicBaseURL: cfg.PublicBaseURL,
		ttl:           ttl,
	}, nil
}

func (s *S3Storage) Name() string {
	return "s3"
}

func (s *S3Storage) UploadURL(ctx context.Context, objectPath, fileType string) (UploadTarget, error) {
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectPath),
		ContentType: aws.String(fileType),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return UploadTarget{}, fmt.Errorf("presigning %s: %w", objectPath, err)
	}

	headers := map[string]string{"Content-Type": fileType}
	for k, v := range req.SignedHeader {
		if k == "Host" || len(v) == 0 {
			continue
		}
		headers[k] = v[0]
	}

	return UploadTarget{URL: req.URL, Headers: headers}, nil
}

// PublicURL prefers the configured CDN base, then the custom endpoint, then
// the virtual-hosted AWS URL.
func (s *S3Storage) PublicURL(objectPath string) string {
	switch {
	case s.publicBaseURL != "":
		return joinURL(s.publicBaseURL, objectPath)
	case s.endpoint != "":
		return joinURL(s.endpoint+"/"+s.bucket, objectPath)
	default:
		return joinURL(fmt.Sprintf("https://%s.s3.%s.amazonaws.com", s.bucket, s.region), objectPath)
	}
}

func (s *S3Storage) Delete(ctx context.Context, objectPath string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectPath),
	})
	return err
}
