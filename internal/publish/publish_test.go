// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package publish

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docbatch/pkg/types"
)

func TestDirPublisher(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := NewDirPublisher(fs, "/out")

	a := types.OutputArtifact{Filename: "merged.pdf", MIMEType: types.MIMEPDF, Payload: []byte("%PDF-1.7")}
	got, err := p.Publish(context.Background(), "job-1", a)
	require.NoError(t, err)
	assert.Equal(t, "/out/merged.pdf", got)

	data, err := afero.ReadFile(fs, got)
	require.NoError(t, err)
	assert.Equal(t, a.Payload, data)

	a.Payload = []byte("%PDF-2.0")
	_, err = p.Publish(context.Background(), "job-2", a)
	require.NoError(t, err)
	data, err = afero.ReadFile(fs, got)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-2.0"), data, "same name replaces the file")
}

func TestDirPublisher_Rejects(t *testing.T) {
	p := NewDirPublisher(afero.NewMemMapFs(), "/out")

	for _, name := range []string{"", "../escape.pdf", "sub/dir.pdf"} {
		_, err := p.Publish(context.Background(), "job", types.OutputArtifact{Filename: name})
		assert.Error(t, err, name)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Publish(ctx, "job", types.OutputArtifact{Filename: "a.pdf"})
	assert.ErrorIs(t, err, context.Canceled)
}

type fakePutter struct {
	bucket, key string
	body        []byte
	opts        minio.PutObjectOptions
	err         error
}

func (f *fakePutter) PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.err != nil {
		return minio.UploadInfo{}, f.err
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.bucket, f.key, f.body, f.opts = bucket, key, body, opts
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: size}, nil
}

func TestS3Publisher(t *testing.T) {
	putter := &fakePutter{}
	p := newS3Publisher(putter, types.S3Config{Endpoint: "s3.local:9000", Bucket: "docs", Prefix: "batches"})

	a := types.OutputArtifact{Filename: "converted images.zip", MIMEType: types.MIMEZip, Payload: []byte("PK")}
	url, err := p.Publish(context.Background(), "job-1", a)
	require.NoError(t, err)

	assert.Equal(t, "docs", putter.bucket)
	assert.Equal(t, "batches/job-1/converted images.zip", putter.key)
	assert.Equal(t, []byte("PK"), putter.body)
	assert.Equal(t, types.MIMEZip, putter.opts.ContentType)
	assert.Equal(t, "job-1", putter.opts.UserMetadata["job-id"])
	assert.Equal(t, "https://s3.local:9000/docs/batches/job-1/converted%20images.zip", url)
}

func TestS3Publisher_Insecure(t *testing.T) {
	p := newS3Publisher(&fakePutter{}, types.S3Config{Endpoint: "localhost:9000", Bucket: "b", Insecure: true})
	url, err := p.Publish(context.Background(), "j", types.OutputArtifact{Filename: "merged.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/b/j/merged.pdf", url)
}

func TestS3Publisher_Errors(t *testing.T) {
	p := newS3Publisher(&fakePutter{err: errors.New("access denied")}, types.S3Config{Endpoint: "e", Bucket: "b"})
	_, err := p.Publish(context.Background(), "j", types.OutputArtifact{Filename: "merged.pdf"})
	assert.ErrorContains(t, err, "access denied")

	_, err = p.Publish(context.Background(), "j", types.OutputArtifact{})
	assert.Error(t, err)
}

func TestNewS3Publisher_Validates(t *testing.T) {
	tests := []struct {
		name string
		cfg  types.S3Config
	}{
		{name: "no endpoint", cfg: types.S3Config{Bucket: "b", AccessKey: "a", SecretKey: "s"}},
		{name: "no bucket", cfg: types.S3Config{Endpoint: "e", AccessKey: "a", SecretKey: "s"}},
		{name: "no credentials", cfg: types.S3Config{Endpoint: "e", Bucket: "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewS3Publisher(tt.cfg)
			assert.Error(t, err)
		})
	}

	p, err := NewS3Publisher(types.S3Config{Endpoint: "localhost:9000", Bucket: "b", AccessKey: "a", SecretKey: "s"})
	require.NoError(t, err)
	assert.Equal(t, "b/j/x.pdf", "b/"+p.Key("j", "x.pdf"))
}
