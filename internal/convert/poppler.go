// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/docbatch/pkg/types"
)

const binPdftoppm = "pdftoppm"

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args ...string) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// PopplerRasterizer renders PDF pages with the pdftoppm binary. It produces
// the same artifacts as Rasterizer for hosts without MuPDF.
type PopplerRasterizer struct {
	exec    executor
	dpi     int
	quality int
}

// NewPopplerRasterizer verifies pdftoppm is on PATH and returns a
// rasterizer using it.
func NewPopplerRasterizer() (*PopplerRasterizer, error) {
	return newPopplerRasterizer(&osExecutor{})
}

func newPopplerRasterizer(exec executor) (*PopplerRasterizer, error) {
	if _, err := exec.LookPath(binPdftoppm); err != nil {
		return nil, fmt.Errorf("%s not available: %w", binPdftoppm, err)
	}
	return &PopplerRasterizer{exec: exec, dpi: renderDPI, quality: jpegQuality}, nil
}

// Convert writes the item to a scratch directory, runs pdftoppm on it and
// collects the numbered page images in page order.
func (p *PopplerRasterizer) Convert(ctx context.Context, item types.InputItem) ([]types.PageArtifact, error) {
	data, err := readItem(ctx, item)
	if err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp("", "docbatch-poppler-*")
	if err != nil {
		return nil, readFailed(fmt.Errorf("creating scratch directory: %w", err))
	}
	defer os.RemoveAll(tmpDir)

	input := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(input, data, 0o600); err != nil {
		return nil, readFailed(fmt.Errorf("writing scratch input: %w", err))
	}

	outBase := filepath.Join(tmpDir, "page")
	args := []string{
		"-jpeg",
		"-jpegopt", "quality=" + strconv.Itoa(p.quality),
		"-r", strconv.Itoa(p.dpi),
		input, outBase,
	}
	if err := p.exec.Run(ctx, binPdftoppm, args...); err != nil {
		return nil, decodeFailed(fmt.Errorf("failed to load PDF %q: %w", item.Name, err))
	}

	files, err := pageFiles(outBase)
	if err != nil {
		return nil, renderFailed(0, err)
	}
	if len(files) == 0 {
		return nil, decodeFailed(fmt.Errorf("%s produced no pages for %q", binPdftoppm, item.Name))
	}

	pages := make([]types.PageArtifact, 0, len(files))
	for i, f := range files {
		b, err := os.ReadFile(f)
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

// pageFiles lists outBase-N.jpg files sorted by N. pdftoppm zero-pads N to
// the width of the page count, so lexical order is not enough.
func pageFiles(outBase string) ([]string, error) {
	matches, err := filepath.Glob(outBase + "-*.jpg")
	if err != nil {
		return nil, err
	}

	type numbered struct {
		n    int
		path string
	}
	var found []numbered
	prefix := outBase + "-"
	for _, m := range matches {
		num := strings.TrimSuffix(strings.TrimPrefix(m, prefix), ".jpg")
		n, err := strconv.Atoi(num)
		if err != nil {
			continue
		}
		found = append(found, numbered{n: n, path: m})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })

	out := make([]string, len(found))
	for i, f := range found {
		out[i] = f.path
	}
	return out, nil
}
