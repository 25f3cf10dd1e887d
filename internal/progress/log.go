// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package progress

import "go.uber.org/zap"

// LogSink records events as structured log entries.
type LogSink struct {
	log *zap.Logger
}

// NewLogSink returns a sink logging to l. A nil logger discards.
func NewLogSink(l *zap.Logger) *LogSink {
	if l == nil {
		l = zap.NewNop()
	}
	return &LogSink{log: l}
}

// Emit logs e. Failures are logged at error level, everything else at
// debug except the terminal success.
func (s *LogSink) Emit(e Event) {
	fields := []zap.Field{
		zap.String("job_id", e.JobID),
		zap.String("tool", string(e.Tool)),
		zap.String("stage", string(e.Stage)),
	}

	switch e.Stage {
	case StageValidating:
		if e.Warning != "" {
			s.log.Warn("batch validated with warning", append(fields, zap.String("warning", e.Warning))...)
			return
		}
		s.log.Debug("validating batch", fields...)
	case StageConverting:
		s.log.Debug("converting item", append(fields,
			zap.Int("index", e.Index),
			zap.Int("total", e.Total),
			zap.String("label", e.Label))...)
	case StageBundlingStarted:
		s.log.Debug("bundling pages", append(fields, zap.Int("pages", e.Total))...)
	case StageCompleted:
		if e.Artifact != nil {
			fields = append(fields,
				zap.String("filename", e.Artifact.Filename),
				zap.Int("bytes", len(e.Artifact.Payload)))
		}
		s.log.Info("job completed", fields...)
	case StageFailed:
		s.log.Error("job failed", append(fields,
			zap.String("kind", string(e.Kind)),
			zap.String("message", e.Message),
			zap.Int("item_index", e.ItemIndex))...)
	}
}
