package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3Config struct {
	Endpoint       string
	PublicEndpoint string // base of the URLs stored on challenges
	AccessKey      string
	SecretKey      string
	Region         string
	Bucket         string
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func NewS3ConfigFromEnv() *S3Config {
	endpoint := getenvDefault("S3_ENDPOINT", "http://localhost:9000")
	return &S3Config{
		Endpoint:       endpoint,
		PublicEndpoint: getenvDefault("S3_PUBLIC_ENDPOINT", endpoint),
		AccessKey:      getenvDefault("S3_ACCESS_KEY", "minioadmin"),
		SecretKey:      getenvDefault("S3_SECRET_KEY", "minioadmin"),
		Region:         getenvDefault("S3_REGION", "us-east-1"),
		Bucket:         getenvDefault("S3_BUCKET", "challenge-images"),
	}
}

type S3ImageStorage struct {
	client *s3.Client
	cfg    *S3Config
}

func NewS3ImageStorage(ctx context.Context, cfg *S3Config) (*S3ImageStorage, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &S3ImageStorage{client: client, cfg: cfg}, nil
}

func (s *S3ImageStorage) Upload(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	key := ObjectKey(filename, contentType)
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	return publicURL(s.cfg.PublicEndpoint, s.cfg.Bucket, key), nil
}

func (s *S3ImageStorage) Delete(ctx context.Context, imageURL string) error {
	key, err := keyFromURL(s.cfg.PublicEndpoint, s.cfg.Bucket, imageURL)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
