package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/johnquangdev/dubbing-service/internal/domain/entities"
	"github.com/johnquangdev/dubbing-service/pkg/config"
)

const dubbedAudioName = "dubbed.wav"

// MinIOClient wraps MinIO operations
type MinIOClient struct {
	client        *minio.Client
	bucket        string
	publicURL     string // Public URL for generating accessible URLs (e.g., https://minio.example.com)
	presignExpiry time.Duration
}

// NewMinIOClient creates a new MinIO client
func NewMinIOClient(cfg *config.StorageConfig) (*MinIOClient, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	client := &MinIOClient{
		client:        minioClient,
		bucket:        cfg.BucketName,
		publicURL:     cfg.PublicURL,
		presignExpiry: cfg.PresignExpiry,
	}
	if client.presignExpiry <= 0 {
		client.presignExpiry = time.Hour
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := client.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}

	return client, nil
}

// ensureBucket creates the bucket if missing. A public read policy is only set when
// media is served through a public URL.
func (m *MinIOClient) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	if m.publicURL == "" {
		return nil
	}

	policy := fmt.Sprintf(`{
		"Version": "2012-10-17",
		"Statement": [
			{
				"Effect": "Allow",
				"Principal": {"AWS": ["*"]},
				"Action": ["s3:GetObject"],
				"Resource": ["arn:aws:s3:::%s/*"]
			}
		]
	}`, m.bucket)

	if err := m.client.SetBucketPolicy(ctx, m.bucket, policy); err != nil {
		return fmt.Errorf("failed to set bucket policy: %w", err)
	}
	return nil
}

// VideoObjectName returns the storage path of an uploaded video
func VideoObjectName(userID string, videoID uuid.UUID, filename string) string {
	return path.Join("videos", userID, videoID.String(), path.Base(filename))
}

// JobPrefix returns the storage prefix holding a job's generated media
func JobPrefix(jobID uuid.UUID) string {
	return path.Join("jobs", jobID.String()) + "/"
}

// UploadFile uploads a file to MinIO
func (m *MinIOClient) UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}
	return nil
}

// OpenFile streams an object
func (m *MinIOClient) OpenFile(ctx context.Context, objectName string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	// GetObject is lazy, Stat surfaces missing objects
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return obj, nil
}

// DeleteFile removes an object. Missing objects are not an error.
func (m *MinIOClient) DeleteFile(ctx context.Context, objectName string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// DeletePrefix removes every object under prefix
func (m *MinIOClient) DeletePrefix(ctx context.Context, prefix string) error {
	files, err := m.ListFiles(ctx, prefix)
	if err != nil {
		return err
	}
	for _, name := range files {
		if err := m.DeleteFile(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// GetFileURL gets a presigned URL for accessing a file
func (m *MinIOClient) GetFileURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, m.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	// Behind a reverse proxy, swap the internal endpoint for the public one
	// Original: http://minio:9000/bucket/path?query
	// Replace with: https://media.example.com/bucket/path?query
	if m.publicURL != "" {
		urlStr := url.String()
		bucketPos := len(url.Scheme) + 3 + len(url.Host) // "https://" + host
		if bucketPos < len(urlStr) {
			return m.publicURL + urlStr[bucketPos:], nil
		}
	}
	return url.String(), nil
}

// ListFiles lists all files in the bucket under prefix
func (m *MinIOClient) ListFiles(ctx context.Context, prefix string) ([]string, error) {
	var files []string

	objectCh := m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for object := range objectCh {
		if object.Err != nil {
			return nil, fmt.Errorf("error listing objects: %w", object.Err)
		}
		files = append(files, object.Key)
	}
	return files, nil
}

// Ping checks the bucket is reachable
func (m *MinIOClient) Ping(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", m.bucket)
	}
	return nil
}

// SourceAudioURL returns a URL an AI provider can download the video from.
// Without a public URL the store is assumed unreachable from outside and "" is returned.
func (m *MinIOClient) SourceAudioURL(ctx context.Context, video *entities.Video) (string, error) {
	if m.publicURL == "" {
		return "", nil
	}
	return m.GetFileURL(ctx, video.StoragePath, m.presignExpiry)
}

// FetchSourceAudio streams the uploaded video
func (m *MinIOClient) FetchSourceAudio(ctx context.Context, video *entities.Video) (io.ReadCloser, error) {
	return m.OpenFile(ctx, video.StoragePath)
}

// StoreDubbedAudio uploads the dubbed track of a job and returns its path
func (m *MinIOClient) StoreDubbedAudio(ctx context.Context, jobID uuid.UUID, wav []byte) (string, error) {
	objectName := JobPrefix(jobID) + dubbedAudioName
	if err := m.UploadFile(ctx, objectName, bytes.NewReader(wav), int64(len(wav)), "audio/wav"); err != nil {
		return "", err
	}
	return objectName, nil
}
