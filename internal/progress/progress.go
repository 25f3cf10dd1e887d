// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package progress defines the event stream a conversion job emits and a
// few sinks that consume it. Events are delivered synchronously, in order,
// on the goroutine running the job.
package progress

import (
	"github.com/pdiddy/docbatch/pkg/types"
)

// Stage discriminates progress events.
type Stage string

const (
	StageValidating      Stage = "validating"
	StageConverting      Stage = "converting"
	StageBundlingStarted Stage = "bundling_started"
	StageCompleted       Stage = "completed"
	StageFailed          Stage = "failed"
)

// Event is one progress notification. Which fields are set depends on
// Stage:
//
//	Validating       Warning (optional)
//	Converting       Index, Total, Label
//	BundlingStarted  Total (number of page artifacts)
//	Completed        Artifact
//	Failed           Kind, Message, ItemIndex (-1 when no item is involved)
type Event struct {
	JobID string
	Tool  types.Tool
	Stage Stage

	Index int
	Total int
	Label string

	Warning string

	Artifact *types.OutputArtifact

	Kind      types.ErrorKind
	Message   string
	ItemIndex int
}

// Terminal reports whether e ends a job. Exactly one terminal event is
// emitted per job.
func (e Event) Terminal() bool {
	return e.Stage == StageCompleted || e.Stage == StageFailed
}

// Sink receives progress events.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Multi fans events out to every sink in order.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(e Event) {
		for _, s := range sinks {
			if s != nil {
				s.Emit(e)
			}
		}
	})
}
