// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/docbatch/internal/bundle"
	"github.com/pdiddy/docbatch/internal/convert"
	"github.com/pdiddy/docbatch/internal/progress"
	"github.com/pdiddy/docbatch/internal/source"
	"github.com/pdiddy/docbatch/pkg/types"
)

const mib = 1024 * 1024

var testConstraints = types.Constraints{
	MaxItemSizeBytes:       50 * mib,
	MaxAggregateSizeBytes:  100 * mib,
	WarnAggregateSizeBytes: 20 * mib,
}

// fakeConverter emits pages named "<item>#<page>" so ordering is visible in
// the payloads. Items listed in errs fail with the given error.
type fakeConverter struct {
	mu       sync.Mutex
	pages    map[string]int
	mimeType string
	errs     map[string]error
	calls    []string
	// during runs inside Convert, before the result is returned.
	during func(item types.InputItem)
}

func (f *fakeConverter) Convert(ctx context.Context, item types.InputItem) ([]types.PageArtifact, error) {
	f.mu.Lock()
	f.calls = append(f.calls, item.Name)
	f.mu.Unlock()

	if f.during != nil {
		f.during(item)
	}
	if err, ok := f.errs[item.Name]; ok {
		return nil, err
	}

	n, ok := f.pages[item.Name]
	if !ok {
		n = 1
	}
	mt := f.mimeType
	if mt == "" {
		mt = types.MIMEJPEG
	}
	out := make([]types.PageArtifact, n)
	for i := range out {
		out[i] = types.PageArtifact{
			Payload:  []byte(fmt.Sprintf("%s#%d", item.Name, i+1)),
			MIMEType: mt,
			Ordinal:  i,
		}
	}
	return out, nil
}

func (f *fakeConverter) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// failingBundler always fails.
type failingBundler struct{}

func (failingBundler) Bundle(ctx context.Context, pages []types.PageArtifact) (types.OutputArtifact, error) {
	return types.OutputArtifact{}, errors.New("disk full")
}

func items(names ...string) []types.InputItem {
	out := make([]types.InputItem, len(names))
	for i, n := range names {
		out[i] = types.InputItem{
			Name:      n,
			SizeBytes: 1024,
			MIMEType:  types.MIMEPDF,
			Source:    source.Bytes(n),
		}
	}
	return out
}

func payloads(pages []types.PageArtifact) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = string(p.Payload)
	}
	return out
}

func ordinals(pages []types.PageArtifact) []int {
	out := make([]int, len(pages))
	for i, p := range pages {
		out[i] = p.Ordinal
	}
	return out
}

func TestStart_Success(t *testing.T) {
	orch := New(testConstraints, nil)
	conv := &fakeConverter{pages: map[string]int{"a.pdf": 2, "b.pdf": 1}}
	var rec progress.Recorder

	job := NewJob(types.ToolPDFToImages, items("a.pdf", "b.pdf"))
	out, err := orch.Start(context.Background(), job, conv, bundle.NewArchiveBundler("out.zip"), &rec)
	require.NoError(t, err)

	assert.Equal(t, "out.zip", out.Filename)
	assert.Equal(t, StateCompleted, job.State())
	assert.Equal(t, 2, job.CurrentIndex())
	assert.Nil(t, job.Err())
	require.NotNil(t, job.Artifact())
	assert.Equal(t, out.Payload, job.Artifact().Payload)

	assert.Equal(t, []progress.Stage{
		progress.StageValidating,
		progress.StageConverting,
		progress.StageConverting,
		progress.StageBundlingStarted,
		progress.StageCompleted,
	}, rec.Stages())

	events := rec.Events()
	assert.Equal(t, 0, events[1].Index)
	assert.Equal(t, 2, events[1].Total)
	assert.Equal(t, "a.pdf", events[1].Label)
	assert.Equal(t, 1, events[2].Index)
	assert.Equal(t, "b.pdf", events[2].Label)
	assert.Equal(t, 3, events[3].Total)
	require.NotNil(t, events[4].Artifact)
	assert.Equal(t, "out.zip", events[4].Artifact.Filename)
	for _, e := range events {
		assert.Equal(t, job.ID(), e.JobID)
		assert.Equal(t, types.ToolPDFToImages, e.Tool)
	}
	assert.Nil(t, orch.Active())
}

func TestStart_MergeOrdering(t *testing.T) {
	tests := []struct {
		name  string
		order []string
		want  []string
	}{
		{
			name:  "A then B",
			order: []string{"A", "B"},
			want:  []string{"A#1", "A#2", "A#3", "B#1", "B#2"},
		},
		{
			name:  "B then A",
			order: []string{"B", "A"},
			want:  []string{"B#1", "B#2", "A#1", "A#2", "A#3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orch := New(testConstraints, nil)
			conv := &fakeConverter{pages: map[string]int{"A": 3, "B": 2}}
			job := NewJob(types.ToolMerge, items(tt.order...))

			_, err := orch.Start(context.Background(), job, conv, bundle.NewArchiveBundler("x.zip"), nil)
			require.NoError(t, err)

			pages := job.Pages()
			assert.Equal(t, tt.want, payloads(pages))
			assert.Equal(t, []int{0, 1, 2, 3, 4}, ordinals(pages))
		})
	}
}

func TestStart_FailFast(t *testing.T) {
	orch := New(testConstraints, nil)
	conv := &fakeConverter{errs: map[string]error{
		"second.pdf": &convert.Error{Kind: types.KindDecodeFailed, Err: errors.New("not a PDF")},
	}}
	var rec progress.Recorder

	job := NewJob(types.ToolMerge, items("first.pdf", "second.pdf", "third.pdf"))
	out, err := orch.Start(context.Background(), job, conv, bundle.NewArchiveBundler("x.zip"), &rec)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecodeFailed)
	assert.Empty(t, out.Payload)

	var jerr *JobError
	require.True(t, errors.As(err, &jerr))
	assert.Equal(t, 1, jerr.ItemIndex)
	assert.Equal(t, "second.pdf", jerr.ItemName)
	assert.Contains(t, err.Error(), "item 2 (second.pdf)")

	assert.Equal(t, StateFailed, job.State())
	assert.Empty(t, job.Pages())
	assert.Equal(t, 1, job.CurrentIndex())
	assert.Equal(t, []string{"first.pdf", "second.pdf"}, conv.Calls(), "third item must never be converted")

	terminal := rec.Terminal()
	require.Len(t, terminal, 1)
	assert.Equal(t, progress.StageFailed, terminal[0].Stage)
	assert.Equal(t, types.KindDecodeFailed, terminal[0].Kind)
	assert.Equal(t, 1, terminal[0].ItemIndex)
	assert.Equal(t, "not a PDF", terminal[0].Message)
	assert.NotContains(t, rec.Stages(), progress.StageBundlingStarted)
}

func TestStart_UnclassifiedConverterError(t *testing.T) {
	orch := New(testConstraints, nil)
	conv := &fakeConverter{errs: map[string]error{"a.pdf": errors.New("boom")}}

	_, err := orch.Start(context.Background(), NewJob(types.ToolMerge, items("a.pdf")), conv, bundle.NewArchiveBundler("x.zip"), nil)
	assert.ErrorIs(t, err, ErrRenderFailed)
}

func TestStart_ValidationRejected(t *testing.T) {
	big := items("huge.pdf", "ok.pdf")
	big[0].SizeBytes = 50*mib + 1

	tests := []struct {
		name  string
		items []types.InputItem
		want  error
	}{
		{name: "empty", items: nil, want: ErrEmptySelection},
		{name: "item too large", items: big, want: ErrItemTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orch := New(testConstraints, nil)
			conv := &fakeConverter{}
			var rec progress.Recorder
			job := NewJob(types.ToolMerge, tt.items)

			_, err := orch.Start(context.Background(), job, conv, bundle.NewArchiveBundler("x.zip"), &rec)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, StateFailed, job.State())
			assert.Empty(t, conv.Calls(), "no item may be touched")
			assert.Equal(t, []progress.Stage{progress.StageValidating, progress.StageFailed}, rec.Stages())
			assert.False(t, job.Outcome().Accepted)
		})
	}
}

func TestStart_ValidationWarning(t *testing.T) {
	orch := New(testConstraints, nil)
	batch := items("a.pdf", "b.pdf")
	batch[0].SizeBytes = 15 * mib
	batch[1].SizeBytes = 15 * mib
	var rec progress.Recorder
	job := NewJob(types.ToolMerge, batch)

	_, err := orch.Start(context.Background(), job, &fakeConverter{}, bundle.NewArchiveBundler("x.zip"), &rec)
	require.NoError(t, err)
	assert.NotEmpty(t, job.Outcome().Warning)
	assert.Contains(t, rec.Events()[0].Warning, "30 MiB")
}

func TestStart_BundleFailed(t *testing.T) {
	orch := New(testConstraints, nil)
	var rec progress.Recorder
	job := NewJob(types.ToolMerge, items("a.pdf", "b.pdf"))

	_, err := orch.Start(context.Background(), job, &fakeConverter{}, failingBundler{}, &rec)
	assert.ErrorIs(t, err, ErrBundleFailed)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, StateFailed, job.State())
	assert.Empty(t, job.Pages())
	assert.Nil(t, job.Artifact())
	require.Len(t, rec.Terminal(), 1)
	assert.Equal(t, -1, rec.Terminal()[0].ItemIndex)
}

func TestCancel_MidBatch(t *testing.T) {
	orch := New(testConstraints, nil)
	var job *Job
	conv := &fakeConverter{}
	conv.during = func(item types.InputItem) {
		if item.Name == "1.pdf" {
			require.NoError(t, orch.Cancel(job))
		}
	}
	var rec progress.Recorder
	job = NewJob(types.ToolMerge, items("1.pdf", "2.pdf", "3.pdf"))

	_, err := orch.Start(context.Background(), job, conv, bundle.NewArchiveBundler("x.zip"), &rec)

	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, []string{"1.pdf"}, conv.Calls(), "item in flight finishes, the next is never started")
	assert.Equal(t, StateFailed, job.State())
	assert.Equal(t, 1, job.CurrentIndex())
	assert.Empty(t, job.Pages())
	require.Len(t, rec.Terminal(), 1)
	assert.Equal(t, types.KindCancelled, rec.Terminal()[0].Kind)
}

func TestCancel_ContextDone(t *testing.T) {
	orch := New(testConstraints, nil)
	ctx, cancel := context.WithCancel(context.Background())
	conv := &fakeConverter{during: func(types.InputItem) { cancel() }}

	_, err := orch.Start(ctx, NewJob(types.ToolMerge, items("1.pdf", "2.pdf")), conv, bundle.NewArchiveBundler("x.zip"), nil)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"1.pdf"}, conv.Calls())
}

func TestCancel_NotConverting(t *testing.T) {
	orch := New(testConstraints, nil)
	job := NewJob(types.ToolMerge, items("a.pdf"))
	assert.ErrorIs(t, orch.Cancel(job), ErrInvalidState)

	_, err := orch.Start(context.Background(), job, &fakeConverter{}, bundle.NewArchiveBundler("x.zip"), nil)
	require.NoError(t, err)
	assert.ErrorIs(t, orch.Cancel(job), ErrInvalidState)
}

func TestStart_WhileConverting(t *testing.T) {
	orch := New(testConstraints, nil)
	var job *Job
	var secondErr, otherErr error
	other := NewJob(types.ToolMerge, items("x.pdf"))
	conv := &fakeConverter{}
	conv.during = func(item types.InputItem) {
		if item.Name != "1.pdf" {
			return
		}
		_, secondErr = orch.Start(context.Background(), job, conv, bundle.NewArchiveBundler("x.zip"), nil)
		_, otherErr = orch.Start(context.Background(), other, conv, bundle.NewArchiveBundler("x.zip"), nil)
		assert.Equal(t, StateConverting, job.State())
		assert.Equal(t, 0, job.CurrentIndex())
	}
	var rec progress.Recorder
	job = NewJob(types.ToolMerge, items("1.pdf", "2.pdf"))

	_, err := orch.Start(context.Background(), job, conv, bundle.NewArchiveBundler("x.zip"), &rec)
	require.NoError(t, err)

	assert.ErrorIs(t, secondErr, ErrInvalidState)
	assert.ErrorIs(t, otherErr, ErrInvalidState)
	assert.Equal(t, StateIdle, other.State())
	assert.Equal(t, []string{"1.pdf", "2.pdf"}, conv.Calls())
	assert.Len(t, rec.Terminal(), 1)
}

func TestStart_NotIdle(t *testing.T) {
	orch := New(testConstraints, nil)
	job := NewJob(types.ToolMerge, items("a.pdf"))
	_, err := orch.Start(context.Background(), job, &fakeConverter{}, bundle.NewArchiveBundler("x.zip"), nil)
	require.NoError(t, err)

	var rec progress.Recorder
	_, err = orch.Start(context.Background(), job, &fakeConverter{}, bundle.NewArchiveBundler("x.zip"), &rec)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, StateCompleted, job.State())
	assert.Empty(t, rec.Events(), "a rejected start emits nothing")
}

func TestReset_Idempotent(t *testing.T) {
	for _, failFirst := range []bool{false, true} {
		t.Run(fmt.Sprintf("after failure=%v", failFirst), func(t *testing.T) {
			orch := New(testConstraints, nil)
			conv := &fakeConverter{pages: map[string]int{"a.pdf": 2, "b.pdf": 3}}
			b := bundle.NewArchiveBundler("x.zip")
			job := NewJob(types.ToolPDFToImages, items("a.pdf", "b.pdf"))

			first, err := orch.Start(context.Background(), job, conv, b, nil)
			require.NoError(t, err)

			if failFirst {
				orch.Reset(job)
				_, err = orch.Start(context.Background(), job, conv, failingBundler{}, nil)
				require.Error(t, err)
				require.Equal(t, StateFailed, job.State())
			}

			oldID := job.ID()
			orch.Reset(job)
			assert.Equal(t, StateIdle, job.State())
			assert.Equal(t, 0, job.CurrentIndex())
			assert.Empty(t, job.Pages())
			assert.Nil(t, job.Err())
			assert.NotEqual(t, oldID, job.ID())

			second, err := orch.Start(context.Background(), job, conv, b, nil)
			require.NoError(t, err)
			assert.Equal(t, first.Filename, second.Filename)
			assert.Equal(t, first.Payload, second.Payload)
		})
	}
}

func pngItem(t *testing.T, name string, w, h int, c color.Color) types.InputItem {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return types.InputItem{Name: name, SizeBytes: uint64(buf.Len()), MIMEType: types.MIMEPNG, Source: source.Bytes(buf.Bytes())}
}

func pdfItem(t *testing.T, name string, pages int) types.InputItem {
	t.Helper()
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 14)
	for i := 1; i <= pages; i++ {
		pdf.AddPage()
		pdf.Cell(40, 10, fmt.Sprintf("%s page %d", name, i))
	}
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return types.InputItem{Name: name, SizeBytes: uint64(buf.Len()), MIMEType: types.MIMEPDF, Source: source.Bytes(buf.Bytes())}
}

func TestReset_RerunSameDocument(t *testing.T) {
	tests := []struct {
		name  string
		tool  types.Tool
		conv  convert.Converter
		items func(t *testing.T) []types.InputItem
	}{
		{
			name: "images to pdf",
			tool: types.ToolImagesToPDF,
			conv: convert.NewImagePager(),
			items: func(t *testing.T) []types.InputItem {
				return []types.InputItem{
					pngItem(t, "red.png", 40, 20, color.RGBA{R: 200, A: 255}),
					pngItem(t, "blue.png", 20, 40, color.RGBA{B: 200, A: 255}),
				}
			},
		},
		{
			name: "merge",
			tool: types.ToolMerge,
			conv: convert.NewPageExtractor(),
			items: func(t *testing.T) []types.InputItem {
				return []types.InputItem{pdfItem(t, "a.pdf", 2), pdfItem(t, "b.pdf", 3)}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orch := New(testConstraints, nil)
			b := bundle.NewDocumentBundler("out.pdf")
			job := NewJob(tt.tool, tt.items(t))

			first, err := orch.Start(context.Background(), job, tt.conv, b, nil)
			require.NoError(t, err)

			for run := 2; run <= 3; run++ {
				orch.Reset(job)
				again, err := orch.Start(context.Background(), job, tt.conv, b, nil)
				require.NoError(t, err)
				assert.Equal(t, first.Payload, again.Payload, "run %d", run)
			}
		})
	}
}

func TestReset_WhileRunning(t *testing.T) {
	orch := New(testConstraints, nil)
	var job *Job
	conv := &fakeConverter{}
	conv.during = func(item types.InputItem) {
		if item.Name == "1.pdf" {
			orch.Reset(job)
		}
	}
	var rec progress.Recorder
	job = NewJob(types.ToolMerge, items("1.pdf", "2.pdf"))

	_, err := orch.Start(context.Background(), job, conv, bundle.NewArchiveBundler("x.zip"), &rec)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, StateIdle, job.State())
	assert.Equal(t, 0, job.CurrentIndex())
	assert.Equal(t, []string{"1.pdf"}, conv.Calls())
	assert.Len(t, rec.Terminal(), 1)
}

func TestTransitions(t *testing.T) {
	legal := map[State][]State{
		StateIdle:       {StateValidating},
		StateValidating: {StateConverting, StateFailed},
		StateConverting: {StateBundling, StateFailed},
		StateBundling:   {StateCompleted, StateFailed},
		StateCompleted:  {StateIdle},
		StateFailed:     {StateIdle},
	}
	all := []State{StateIdle, StateValidating, StateConverting, StateBundling, StateCompleted, StateFailed}
	for _, from := range all {
		for _, to := range all {
			want := false
			for _, l := range legal[from] {
				if l == to {
					want = true
				}
			}
			assert.Equal(t, want, isAllowedTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestStart_Logs(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	orch := New(testConstraints, zap.New(core))
	conv := &fakeConverter{errs: map[string]error{"a.pdf": errors.New("boom")}}

	_, err := orch.Start(context.Background(), NewJob(types.ToolMerge, items("a.pdf")), conv, bundle.NewArchiveBundler("x.zip"), nil)
	require.Error(t, err)

	assert.Equal(t, 1, logs.FilterMessage("job started").Len())
	failed := logs.FilterMessage("job failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, string(types.KindRenderFailed), failed[0].ContextMap()["kind"])
	assert.NotEmpty(t, failed[0].ContextMap()["job_id"])
}
