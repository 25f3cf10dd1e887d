// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package publish delivers a finished output artifact to its destination:
// a local directory or an S3-compatible bucket.
package publish

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/pdiddy/docbatch/pkg/types"
)

// Publisher stores an artifact and returns where it went.
type Publisher interface {
	Publish(ctx context.Context, jobID string, a types.OutputArtifact) (string, error)
}

// DirPublisher writes artifacts into a directory, replacing any file of the
// same name.
type DirPublisher struct {
	fs  afero.Fs
	dir string
}

// NewDirPublisher returns a publisher writing into dir on fs.
func NewDirPublisher(fs afero.Fs, dir string) *DirPublisher {
	return &DirPublisher{fs: fs, dir: dir}
}

// Publish writes a to dir/a.Filename and returns the path.
func (p *DirPublisher) Publish(ctx context.Context, jobID string, a types.OutputArtifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if a.Filename == "" || filepath.Base(a.Filename) != a.Filename {
		return "", fmt.Errorf("invalid artifact filename %q", a.Filename)
	}
	if err := p.fs.MkdirAll(p.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory %s: %w", p.dir, err)
	}

	path := filepath.Join(p.dir, a.Filename)
	if err := afero.WriteFile(p.fs, path, a.Payload, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
