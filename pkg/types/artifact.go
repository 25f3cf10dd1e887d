// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// PageArtifact is the smallest ordered unit of output: one raster image or
// one single-page document.
type PageArtifact struct {
	Payload  []byte `json:"-" yaml:"-"`
	MIMEType string `json:"mime_type" yaml:"mime_type"`

	// Ordinal is the position in the final output. Across a job the
	// ordinals are exactly 0..n-1.
	Ordinal int `json:"ordinal" yaml:"ordinal"`
}

// OutputArtifact is the terminal value of a completed job: a single file or
// a container holding several named entries.
type OutputArtifact struct {
	Filename string `json:"filename" yaml:"filename"`
	MIMEType string `json:"mime_type" yaml:"mime_type"`
	Payload  []byte `json:"-" yaml:"-"`
}

// Well-known MIME types handled by the pipeline.
const (
	MIMEPDF  = "application/pdf"
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
	MIMEZip  = "application/zip"
)
