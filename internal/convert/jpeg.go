// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"image"
	"image/jpeg"
)

const (
	// nativeDPI is the resolution of PDF user space.
	nativeDPI = 72
	// renderScale upscales pages for better image quality.
	renderScale = 2
	// jpegQuality matches the default quality of browser canvas exports.
	jpegQuality = 92
)

// renderDPI is the resolution pages are rasterized at.
const renderDPI = nativeDPI * renderScale

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
