package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	appconfig "github.com/giacomoverdi/voice-notes-transcriber/internal/config"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/utils"
)

// S3 stores objects in an S3-compatible bucket. Locators look like
// s3://<bucket>/<key>.
type S3 struct {
	client *s3.Client
	bucket string
}

// NewS3 builds the client once at startup. A custom endpoint supports
// minio-style deployments.
func NewS3(ctx context.Context, cfg *appconfig.Config) (*S3, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3{client: client, bucket: cfg.S3Bucket}, nil
}

func (s *S3) key(locator string) (string, error) {
	prefix := "s3://" + s.bucket + "/"
	if !strings.HasPrefix(locator, prefix) {
		return "", fmt.Errorf("invalid locator %q", locator)
	}
	return strings.TrimPrefix(locator, prefix), nil
}

func (s *S3) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	key = "audio/" + utils.SanitizeFilename(key)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

func (s *S3) Get(ctx context.Context, locator string) (io.ReadCloser, int64, error) {
	key, err := s.key(locator)
	if err != nil {
		return nil, 0, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get object: %w", err)
	}
	return out.Body, aws.ToInt64(out.ContentLength), nil
}

func (s *S3) GetRange(ctx context.Context, locator string, start, end int64) (io.ReadCloser, error) {
	key, err := s.key(locator)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", start, end)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object range: %w", err)
	}
	return out.Body, nil
}

func (s *S3) Delete(ctx context.Context, locator string) {
	key, err := s.key(locator)
	if err != nil {
		slog.Warn("Skipping delete of invalid locator", "locator", locator)
		return
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		slog.Error("Failed to delete audio object", "locator", locator, "error", err)
	}
}

func (s *S3) DownloadToScratch(ctx context.Context, locator string) (string, error) {
	src, _, err := s.Get(ctx, locator)
	if err != nil {
		return "", err
	}
	defer src.Close()

	scratch := filepath.Join(os.TempDir(), uuid.New().String()+".audio")
	dst, err := os.Create(scratch)
	if err != nil {
		return "", fmt.Errorf("failed to create scratch file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(scratch)
		return "", fmt.Errorf("failed to copy to scratch: %w", err)
	}
	return scratch, nil
}
