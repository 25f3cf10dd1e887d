// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"

	"github.com/pdiddy/docbatch/internal/pdfdoc"
	"github.com/pdiddy/docbatch/pkg/types"
)

// PageExtractor splits a PDF into single-page PDFs, keeping the existing
// page order. Appending the output of successive items yields file order,
// then page order within each file.
type PageExtractor struct{}

// NewPageExtractor returns a PageExtractor.
func NewPageExtractor() *PageExtractor {
	return &PageExtractor{}
}

// Convert emits one application/pdf artifact per source page.
func (e *PageExtractor) Convert(ctx context.Context, item types.InputItem) ([]types.PageArtifact, error) {
	data, err := readItem(ctx, item)
	if err != nil {
		return nil, err
	}
	n, err := pdfdoc.PageCount(data)
	if err != nil {
		return nil, decodeFailed(fmt.Errorf("failed to load PDF %q, it may be corrupted or not a valid PDF file: %w", item.Name, err))
	}
	if n == 0 {
		return nil, decodeFailed(fmt.Errorf("PDF %q has no pages", item.Name))
	}

	split, err := pdfdoc.Split(data)
	if err != nil {
		return nil, renderFailed(0, fmt.Errorf("failed to extract pages from %q: %w", item.Name, err))
	}
	if len(split) != n {
		return nil, renderFailed(0, fmt.Errorf("extracted %d of %d pages from %q", len(split), n, item.Name))
	}

	pages := make([]types.PageArtifact, n)
	for i, b := range split {
		pages[i] = types.PageArtifact{
			Payload:  b,
			MIMEType: types.MIMEPDF,
			Ordinal:  i,
		}
	}
	return pages, nil
}
