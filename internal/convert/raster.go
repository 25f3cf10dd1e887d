// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"fmt"

	"github.com/gen2brain/go-fitz"

	"github.com/pdiddy/docbatch/pkg/types"
)

// Rasterizer renders every page of a PDF to a JPEG using MuPDF (go-fitz).
type Rasterizer struct {
	dpi     float64
	quality int
}

// NewRasterizer returns a Rasterizer rendering at twice the native page size.
func NewRasterizer() *Rasterizer {
	return &Rasterizer{dpi: renderDPI, quality: jpegQuality}
}

// Convert emits one image/jpeg artifact per page, in page order.
func (r *Rasterizer) Convert(ctx context.Context, item types.InputItem) ([]types.PageArtifact, error) {
	data, err := readItem(ctx, item)
	if err != nil {
		return nil, err
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, decodeFailed(fmt.Errorf("failed to load PDF %q: %w", item.Name, err))
	}
	defer doc.Close()

	n := doc.NumPage()
	if n == 0 {
		return nil, decodeFailed(errors.New("document has no pages"))
	}

	pages := make([]types.PageArtifact, 0, n)
	for i := 0; i < n; i++ {
		img, err := doc.ImageDPI(i, r.dpi)
		if err != nil {
			return nil, renderFailed(i+1, err)
		}
		b, err := encodeJPEG(img, r.quality)
		if err != nil {
			return nil, renderFailed(i+1, err)
		}
		pages = append(pages, types.PageArtifact{
			Payload:  b,
			MIMEType: types.MIMEJPEG,
			Ordinal:  i,
		})
	}
	return pages, nil
}
