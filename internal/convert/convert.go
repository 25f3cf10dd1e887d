// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert implements the per-item transformations of a batch job
// behind a single Converter interface. Each tool selects one backend:
// rasterizing PDF pages to JPEG, placing an image on a document page, or
// extracting the pages of a PDF for merging.
package convert

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/docbatch/pkg/types"
)

// Converter transforms one input item into one or more page artifacts, in
// page order. Implementations must not mutate the item and must return the
// same output for the same input. Ordinals on the returned artifacts are
// local to the item (0..n-1); the job renumbers them.
type Converter interface {
	Convert(ctx context.Context, item types.InputItem) ([]types.PageArtifact, error)
}

// Error is a failed conversion. Kind is one of ReadFailed, DecodeFailed or
// RenderFailed.
type Error struct {
	Kind types.ErrorKind
	// Page is the 1-based page that failed, or 0 when the whole item failed.
	Page int
	Err  error
}

func (e *Error) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("failed to convert page %d: %v", e.Page, e.Err)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func readFailed(err error) error   { return &Error{Kind: types.KindReadFailed, Err: err} }
func decodeFailed(err error) error { return &Error{Kind: types.KindDecodeFailed, Err: err} }

func renderFailed(page int, err error) error {
	return &Error{Kind: types.KindRenderFailed, Page: page, Err: err}
}

// readItem loads the item bytes through its lazy source. Only one item is
// resident at a time; the caller drops the slice after converting.
func readItem(ctx context.Context, item types.InputItem) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, readFailed(err)
	}
	if item.Source == nil {
		return nil, readFailed(fmt.Errorf("%s has no source", item.Name))
	}

	rc, err := item.Source.Open()
	if err != nil {
		return nil, readFailed(fmt.Errorf("failed to read file %q: %w", item.Name, err))
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, readFailed(fmt.Errorf("failed to read file %q: %w", item.Name, err))
	}
	return data, nil
}

// New returns the converter for tool. backend only matters for
// pdf-to-images; an empty backend selects fitz.
func New(tool types.Tool, backend types.RasterBackend) (Converter, error) {
	switch tool {
	case types.ToolImagesToPDF:
		return NewImagePager(), nil
	case types.ToolMerge:
		return NewPageExtractor(), nil
	case types.ToolPDFToImages:
		switch backend {
		case "", types.BackendFitz:
			return NewRasterizer(), nil
		case types.BackendPoppler:
			return NewPopplerRasterizer()
		default:
			return nil, fmt.Errorf("unknown raster backend %q (want fitz or poppler)", backend)
		}
	default:
		return nil, fmt.Errorf("unknown tool %q", tool)
	}
}
