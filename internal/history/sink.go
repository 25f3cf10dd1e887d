// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/docbatch/internal/progress"
)

// Sink is a progress.Sink that records each job into a Store when its
// terminal event arrives. Recording failures are logged, never returned to
// the job.
type Sink struct {
	store *Store
	log   *zap.Logger
	now   func() time.Time

	mu   sync.Mutex
	open map[string]*Entry
}

// NewSink returns a Sink writing to store. A nil logger discards.
func NewSink(store *Store, log *zap.Logger) *Sink {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sink{store: store, log: log, now: time.Now, open: make(map[string]*Entry)}
}

// Emit implements progress.Sink.
func (s *Sink) Emit(e progress.Event) {
	s.mu.Lock()
	entry, ok := s.open[e.JobID]
	if !ok {
		entry = &Entry{ID: e.JobID, Tool: e.Tool, ItemIndex: -1, StartedAt: s.now()}
		s.open[e.JobID] = entry
	}

	switch e.Stage {
	case progress.StageConverting:
		entry.Items = e.Total
	case progress.StageBundlingStarted:
		entry.Pages = e.Total
	case progress.StageCompleted:
		entry.State = "completed"
		if e.Artifact != nil {
			entry.Filename = e.Artifact.Filename
			entry.Bytes = int64(len(e.Artifact.Payload))
		}
	case progress.StageFailed:
		entry.State = "failed"
		entry.Kind = e.Kind
		entry.Message = e.Message
		entry.ItemIndex = e.ItemIndex
	}

	if !e.Terminal() {
		s.mu.Unlock()
		return
	}
	entry.FinishedAt = s.now()
	delete(s.open, e.JobID)
	done := *entry
	s.mu.Unlock()

	if err := s.store.Record(context.Background(), done); err != nil {
		s.log.Warn("recording job history failed", zap.String("job_id", done.ID), zap.Error(err))
	}
}
