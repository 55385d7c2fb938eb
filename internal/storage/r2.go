// Package storage uploads database backups to Cloudflare R2.
package storage

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/lbryio/comment-server/internal/config"
)

// BackupFolder is the key prefix of uploaded backups.
const BackupFolder = "backups"

const contentTypeSQLite = "application/vnd.sqlite3"

// BackupUploader pushes backup files to an S3-compatible bucket.
type BackupUploader struct {
	s3Client *s3.Client
	bucket   string
}

// NewBackupUploader constructs an S3-compatible client for Cloudflare R2.
func NewBackupUploader(ctx context.Context, cfg *config.Config) (*BackupUploader, error) {
	if !cfg.BackupUploadEnabled() {
		return nil, fmt.Errorf("missing Cloudflare R2 configuration")
	}
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	return newBackupUploader(ctx, endpoint, cfg.R2AccessKeyID, cfg.R2SecretAccessKey, cfg.R2BucketName)
}

func newBackupUploader(ctx context.Context, endpoint, accessKeyID, secretAccessKey, bucket string) (*BackupUploader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for R2: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &BackupUploader{s3Client: s3Client, bucket: bucket}, nil
}

// ObjectKey returns backups/<date>/<uuid>-<file name>.
func ObjectKey(path string, now time.Time) string {
	return fmt.Sprintf("%s/%s/%s-%s", BackupFolder, now.UTC().Format("2006-01-02"), uuid.NewString(), filepath.Base(path))
}

// Upload sends the file at path and returns its object key.
func (u *BackupUploader) Upload(ctx context.Context, path string) (string, error) {
	startTime := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open backup: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat backup: %w", err)
	}

	key := ObjectKey(path, startTime)
	_, err = u.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(contentTypeSQLite),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload backup: %w", err)
	}

	log.Printf("[Storage] Upload OK: key=%s bytes=%d duration=%v", key, info.Size(), time.Since(startTime))
	return key, nil
}
