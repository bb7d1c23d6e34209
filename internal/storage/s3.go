package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds the export bucket settings.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // S3-compatible endpoint, path-style addressing
	AccessKeyID     string
	SecretAccessKey string
	// Prefix is prepended to every exported key.
	Prefix string
}

// S3Storage is LocalStorage that also exports downloads to S3.
type S3Storage struct {
	*LocalStorage
	client *s3.Client
	cfg    S3Config
}

// NewS3Storage wraps local with an S3 client built from cfg. Static
// credentials are used when both keys are set, otherwise the default AWS
// chain applies.
func NewS3Storage(ctx context.Context, local *LocalStorage, cfg S3Config) (*S3Storage, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Storage{
		LocalStorage: local,
		client:       s3.NewFromConfig(awsCfg, clientOpts...),
		cfg:          cfg,
	}, nil
}

// Export implements Storage.
func (s *S3Storage) Export(ctx context.Context, key string, data io.Reader) (string, error) {
	key = path.Join(s.cfg.Prefix, key)

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
		Body:   data,
	}
	if ct := contentType(key); ct != "" {
		input.ContentType = aws.String(ct)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("storage: export %s: %w", key, err)
	}

	if s.cfg.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.cfg.Endpoint, s.cfg.Bucket, key), nil
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key), nil
}

func contentType(key string) string {
	switch ext := path.Ext(key); ext {
	case ".wav":
		return "audio/wav"
	case ".mp4":
		return "video/mp4"
	case ".png":
		return "image/png"
	default:
		return mime.TypeByExtension(ext)
	}
}

var _ Storage = (*S3Storage)(nil)
