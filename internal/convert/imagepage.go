// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/pdiddy/docbatch/pkg/types"
)

// pageWidthMM is the fixed document page width (A4 portrait).
const pageWidthMM = 210.0

// ImagePager places one image on one document page. The page is pageWidthMM
// wide and as tall as the image's aspect ratio requires.
type ImagePager struct {
	width float64
	// created pins the PDF creation date so equal input yields equal bytes.
	created time.Time
}

// NewImagePager returns an ImagePager with the A4 page width.
func NewImagePager() *ImagePager {
	return &ImagePager{
		width:   pageWidthMM,
		created: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// PageHeight returns the page height for an image of w×h pixels placed on a
// page width units wide.
func PageHeight(w, h int, width float64) float64 {
	return float64(h) * width / float64(w)
}

// Convert emits a single-page PDF artifact holding the image.
func (p *ImagePager) Convert(ctx context.Context, item types.InputItem) ([]types.PageArtifact, error) {
	data, err := readItem(ctx, item)
	if err != nil {
		return nil, err
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, decodeFailed(fmt.Errorf("failed to load image %s: %w", item.Name, err))
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, decodeFailed(fmt.Errorf("failed to load image %s: empty dimensions", item.Name))
	}

	var imageType string
	switch format {
	case "jpeg":
		imageType = "JPG"
	case "png":
		imageType = "PNG"
	default:
		return nil, decodeFailed(fmt.Errorf("failed to load image %s: unsupported format %q", item.Name, format))
	}

	height := PageHeight(cfg.Width, cfg.Height, p.width)

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: p.width, Ht: height},
	})
	pdf.SetCreationDate(p.created)
	pdf.SetCatalogSort(true)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := gofpdf.ImageOptions{ImageType: imageType}
	pdf.RegisterImageOptionsReader(item.Name, opts, bytes.NewReader(data))
	pdf.ImageOptions(item.Name, 0, 0, p.width, height, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, renderFailed(0, fmt.Errorf("error adding image %s to PDF: %w", item.Name, err))
	}
	if buf.Len() == 0 {
		return nil, renderFailed(0, errors.New("empty PDF output"))
	}

	return []types.PageArtifact{{
		Payload:  buf.Bytes(),
		MIMEType: types.MIMEPDF,
		Ordinal:  0,
	}}, nil
}
