// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package publish

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/pdiddy/docbatch/pkg/types"
)

// objectPutter is the slice of the minio client the publisher needs.
type objectPutter interface {
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// S3Publisher uploads artifacts to an S3-compatible bucket under
// prefix/jobID/filename.
type S3Publisher struct {
	client objectPutter
	bucket string
	prefix string
	host   string
}

// NewS3Publisher connects to the bucket described by cfg.
func NewS3Publisher(cfg types.S3Config) (*S3Publisher, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 endpoint and bucket must be set")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("s3 credentials are not set")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: !cfg.Insecure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init S3 client: %w", err)
	}
	return newS3Publisher(client, cfg), nil
}

func newS3Publisher(client objectPutter, cfg types.S3Config) *S3Publisher {
	scheme := "https"
	if cfg.Insecure {
		scheme = "http"
	}
	return &S3Publisher{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		host:   fmt.Sprintf("%s://%s", scheme, cfg.Endpoint),
	}
}

// Key returns the object key for an artifact of jobID.
func (p *S3Publisher) Key(jobID, filename string) string {
	return path.Join(p.prefix, jobID, filename)
}

// Publish uploads a and returns its URL.
func (p *S3Publisher) Publish(ctx context.Context, jobID string, a types.OutputArtifact) (string, error) {
	if a.Filename == "" {
		return "", fmt.Errorf("artifact has no filename")
	}
	key := p.Key(jobID, a.Filename)

	_, err := p.client.PutObject(ctx, p.bucket, key, bytes.NewReader(a.Payload), int64(len(a.Payload)), minio.PutObjectOptions{
		ContentType:  a.MIMEType,
		UserMetadata: map[string]string{"job-id": jobID},
	})
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	return fmt.Sprintf("%s/%s/%s", p.host, p.bucket, (&url.URL{Path: key}).EscapedPath()), nil
}
