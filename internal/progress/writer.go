// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package progress

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/pdiddy/docbatch/pkg/types"
)

// WriterSink prints one human-readable status line per event.
type WriterSink struct {
	w io.Writer
}

// NewWriterSink returns a sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Emit writes the status line for e.
func (s *WriterSink) Emit(e Event) {
	switch e.Stage {
	case StageValidating:
		if e.Warning != "" {
			fmt.Fprintf(s.w, "warning: %s\n", e.Warning)
		}
		fmt.Fprintln(s.w, "Preparing files...")
	case StageConverting:
		fmt.Fprintln(s.w, convertingLine(e))
	case StageBundlingStarted:
		fmt.Fprintf(s.w, "Bundling %d page(s)...\n", e.Total)
	case StageCompleted:
		if e.Artifact != nil {
			fmt.Fprintf(s.w, "converted: %s (%s)\n", e.Artifact.Filename,
				humanize.IBytes(uint64(len(e.Artifact.Payload))))
		}
	case StageFailed:
		if e.ItemIndex >= 0 {
			fmt.Fprintf(s.w, "failed:  item %d: %s\n", e.ItemIndex+1, e.Message)
			return
		}
		fmt.Fprintf(s.w, "failed:  %s\n", e.Message)
	}
}

func convertingLine(e Event) string {
	switch e.Tool {
	case types.ToolMerge:
		return fmt.Sprintf("Merging file %d of %d (%s)...", e.Index+1, e.Total, e.Label)
	case types.ToolImagesToPDF:
		return fmt.Sprintf("Converting page %d of %d...", e.Index+1, e.Total)
	default:
		return fmt.Sprintf("Converting file %d of %d (%s)...", e.Index+1, e.Total, e.Label)
	}
}
