// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bundle

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/pdiddy/docbatch/pkg/types"
)

// ArchiveBundler packs independent output files into a zip archive. A
// single page is returned unwrapped, named after the archive with the
// page's extension.
type ArchiveBundler struct {
	filename   string
	singleBase string
	// modified pins entry timestamps so equal pages give equal archives.
	modified time.Time
}

// NewArchiveBundler returns a bundler producing a zip archive named filename.
func NewArchiveBundler(filename string) *ArchiveBundler {
	base := strings.TrimSuffix(filename, path.Ext(filename))
	if filename == DefaultArchiveName || base == "" {
		base = defaultSingleBase
	}
	return &ArchiveBundler{
		filename:   filename,
		singleBase: base,
		modified:   time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// EntryName returns the archive entry name for the page with ordinal.
func EntryName(ordinal int, mimeType string) string {
	return fmt.Sprintf("page-%d.%s", ordinal+1, extension(mimeType))
}

// Bundle writes one page-N.ext entry per page, or returns the only page as
// <base>.ext: converted.jpg by default, scans.jpg for an archive named
// scans.zip.
func (b *ArchiveBundler) Bundle(ctx context.Context, pages []types.PageArtifact) (types.OutputArtifact, error) {
	if err := checkOrdinals(pages); err != nil {
		return types.OutputArtifact{}, err
	}

	if len(pages) == 1 {
		p := pages[0]
		return types.OutputArtifact{
			Filename: b.singleBase + "." + extension(p.MIMEType),
			MIMEType: p.MIMEType,
			Payload:  bytes.Clone(p.Payload),
		}, nil
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return types.OutputArtifact{}, err
		}
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     EntryName(p.Ordinal, p.MIMEType),
			Method:   zip.Deflate,
			Modified: b.modified,
		})
		if err != nil {
			return types.OutputArtifact{}, fmt.Errorf("adding page %d: %w", p.Ordinal+1, err)
		}
		if _, err := w.Write(p.Payload); err != nil {
			return types.OutputArtifact{}, fmt.Errorf("writing page %d: %w", p.Ordinal+1, err)
		}
	}
	if err := zw.Close(); err != nil {
		return types.OutputArtifact{}, fmt.Errorf("closing archive: %w", err)
	}

	return types.OutputArtifact{
		Filename: b.filename,
		MIMEType: types.MIMEZip,
		Payload:  buf.Bytes(),
	}, nil
}
