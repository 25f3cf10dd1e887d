// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bundle assembles the ordered page artifacts of a job into the
// single output artifact handed to the caller.
package bundle

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/docbatch/pkg/types"
)

// ErrNoPages is returned when a bundler is given nothing to assemble.
var ErrNoPages = errors.New("no pages to bundle")

// Bundler assembles pages, already in ordinal order, into one artifact.
// A Bundler never writes partial output: it either returns a complete
// artifact or an error.
type Bundler interface {
	Bundle(ctx context.Context, pages []types.PageArtifact) (types.OutputArtifact, error)
}

// Default artifact names.
const (
	DefaultDocumentName = "converted.pdf"
	DefaultMergedName   = "merged.pdf"
	DefaultArchiveName  = "converted-images.zip"
	defaultSingleBase   = "converted"
)

// ForTool returns the bundler matching the tool's output policy. outputName
// overrides the default filename when non-empty; for pdf-to-images it names
// the archive.
func ForTool(tool types.Tool, outputName string) (Bundler, error) {
	switch tool {
	case types.ToolImagesToPDF:
		return NewDocumentBundler(orDefault(outputName, DefaultDocumentName)), nil
	case types.ToolMerge:
		return NewDocumentBundler(orDefault(outputName, DefaultMergedName)), nil
	case types.ToolPDFToImages:
		return NewArchiveBundler(orDefault(outputName, DefaultArchiveName)), nil
	default:
		return nil, fmt.Errorf("unknown tool %q", tool)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// checkOrdinals verifies pages carry ordinals exactly 0..n-1 in order.
func checkOrdinals(pages []types.PageArtifact) error {
	if len(pages) == 0 {
		return ErrNoPages
	}
	for i, p := range pages {
		if p.Ordinal != i {
			return fmt.Errorf("page at position %d has ordinal %d", i, p.Ordinal)
		}
	}
	return nil
}

// extension maps an artifact MIME type to a file extension.
func extension(mimeType string) string {
	switch mimeType {
	case types.MIMEJPEG:
		return "jpg"
	case types.MIMEPNG:
		return "png"
	case types.MIMEPDF:
		return "pdf"
	default:
		return "bin"
	}
}
