// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "io"

// Source opens the bytes of an input item on demand. Implementations must
// return a fresh reader on every call so an item can be converted more
// than once.
type Source interface {
	Open() (io.ReadCloser, error)
}

// InputItem is one user-submitted file. The pipeline borrows it for
// validation and conversion and never mutates it.
type InputItem struct {
	// Name is the display name of the file (e.g. "scan-01.jpg").
	Name string `json:"name" yaml:"name"`

	// SizeBytes is the size reported by the caller, used for validation
	// before any bytes are read.
	SizeBytes uint64 `json:"size_bytes" yaml:"size_bytes"`

	// MIMEType is the detected content type (e.g. "application/pdf").
	MIMEType string `json:"mime_type" yaml:"mime_type"`

	// Source yields the item bytes lazily.
	Source Source `json:"-" yaml:"-"`
}

// TotalSize returns the sum of SizeBytes over items.
func TotalSize(items []InputItem) uint64 {
	var total uint64
	for _, it := range items {
		total += it.SizeBytes
	}
	return total
}
