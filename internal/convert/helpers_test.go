// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/jung-kurt/gofpdf"

	"github.com/pdiddy/docbatch/internal/source"
	"github.com/pdiddy/docbatch/pkg/types"
)

// makePDF builds an A4 document with the given number of pages, each
// labelled with its page number.
func makePDF(t *testing.T, pages int) []byte {
	t.Helper()
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 14)
	for i := 1; i <= pages; i++ {
		pdf.AddPage()
		pdf.Cell(40, 10, fmt.Sprintf("page %d", i))
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("building test PDF: %v", err)
	}
	return buf.Bytes()
}

// makePNG builds a solid w×h PNG.
func makePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test PNG: %v", err)
	}
	return buf.Bytes()
}

func memItem(name, mimeType string, data []byte) types.InputItem {
	return types.InputItem{
		Name:      name,
		SizeBytes: uint64(len(data)),
		MIMEType:  mimeType,
		Source:    source.Bytes(data),
	}
}

// failingSource always fails to open.
type failingSource struct{}

func (failingSource) Open() (io.ReadCloser, error) {
	return nil, errors.New("permission denied")
}
