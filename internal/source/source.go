// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source turns files into lazily-read InputItems and applies the
// caller-side MIME allow-list of each tool.
package source

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"github.com/pdiddy/docbatch/pkg/types"
)

// sniffLen is the number of leading bytes inspected when the extension does
// not identify the content type.
const sniffLen = 512

// File is a Source backed by a path on an afero filesystem. Each Open
// returns a new handle; nothing is read until the caller reads it.
type File struct {
	fs   afero.Fs
	path string
}

// NewFile returns a Source for path on fs.
func NewFile(fs afero.Fs, path string) *File {
	return &File{fs: fs, path: path}
}

// Open opens the underlying file for reading.
func (f *File) Open() (io.ReadCloser, error) {
	file, err := f.fs.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.path, err)
	}
	return file, nil
}

// Bytes is an in-memory Source.
type Bytes []byte

// Open returns a reader over the byte slice.
func (b Bytes) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b)), nil
}

// FromPaths builds one InputItem per path, preserving argument order. Sizes
// come from Stat; content is not read except for MIME sniffing when the
// extension is unknown.
func FromPaths(fs afero.Fs, paths []string) ([]types.InputItem, error) {
	items := make([]types.InputItem, 0, len(paths))
	for _, p := range paths {
		info, err := fs.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory", p)
		}

		mimeType, err := DetectMIME(fs, p)
		if err != nil {
			return nil, err
		}

		items = append(items, types.InputItem{
			Name:      filepath.Base(p),
			SizeBytes: uint64(info.Size()),
			MIMEType:  mimeType,
			Source:    NewFile(fs, p),
		})
	}
	return items, nil
}

// DetectMIME returns the media type of the file at path, using the file
// extension first and content sniffing as a fallback.
func DetectMIME(fs afero.Fs, path string) (string, error) {
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); byExt != "" {
		if mt, _, err := mime.ParseMediaType(byExt); err == nil {
			return mt, nil
		}
	}

	f, err := fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("sniffing %s: %w", path, err)
	}
	mt, _, err := mime.ParseMediaType(http.DetectContentType(head[:n]))
	if err != nil {
		return "application/octet-stream", nil
	}
	return mt, nil
}

// Filter splits items into those whose MIME type the tool accepts and the
// names of those it drops. Order is preserved in both results.
func Filter(items []types.InputItem, tool types.Tool) (accepted []types.InputItem, dropped []string) {
	allowed := tool.AcceptedMIME()
	for _, it := range items {
		if slices.Contains(allowed, it.MIMEType) {
			accepted = append(accepted, it)
			continue
		}
		dropped = append(dropped, it.Name)
	}
	return accepted, dropped
}
