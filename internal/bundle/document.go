// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bundle

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pdiddy/docbatch/internal/pdfdoc"
	"github.com/pdiddy/docbatch/pkg/types"
)

// DocumentBundler concatenates single-page PDFs into one document.
type DocumentBundler struct {
	filename string
}

// NewDocumentBundler returns a bundler producing a PDF named filename.
func NewDocumentBundler(filename string) *DocumentBundler {
	return &DocumentBundler{filename: filename}
}

// Bundle merges pages in ordinal order. A single page is returned as-is.
// Equal pages always merge to equal bytes.
func (b *DocumentBundler) Bundle(ctx context.Context, pages []types.PageArtifact) (types.OutputArtifact, error) {
	if err := checkOrdinals(pages); err != nil {
		return types.OutputArtifact{}, err
	}
	for _, p := range pages {
		if p.MIMEType != types.MIMEPDF {
			return types.OutputArtifact{}, fmt.Errorf("page %d is %s, want %s", p.Ordinal+1, p.MIMEType, types.MIMEPDF)
		}
	}
	if err := ctx.Err(); err != nil {
		return types.OutputArtifact{}, err
	}

	if len(pages) == 1 {
		return types.OutputArtifact{
			Filename: b.filename,
			MIMEType: types.MIMEPDF,
			Payload:  bytes.Clone(pages[0].Payload),
		}, nil
	}

	docs := make([][]byte, len(pages))
	for i, p := range pages {
		docs[i] = p.Payload
	}

	merged, err := pdfdoc.Merge(docs)
	if err != nil {
		return types.OutputArtifact{}, fmt.Errorf("failed to save the merged PDF: %w", err)
	}

	return types.OutputArtifact{
		Filename: b.filename,
		MIMEType: types.MIMEPDF,
		Payload:  merged,
	}, nil
}
