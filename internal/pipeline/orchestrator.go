// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs batch conversion jobs: validate the items, convert
// them one at a time in submission order, bundle the pages and report
// progress. The first failure ends the job and no partial output is ever
// produced.
package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/pdiddy/docbatch/internal/bundle"
	"github.com/pdiddy/docbatch/internal/convert"
	"github.com/pdiddy/docbatch/internal/progress"
	"github.com/pdiddy/docbatch/internal/validate"
	"github.com/pdiddy/docbatch/pkg/types"
)

// Orchestrator drives jobs through the state machine. At most one job runs
// per Orchestrator; starting another while one is active fails with
// InvalidState.
type Orchestrator struct {
	constraints types.Constraints
	log         *zap.Logger

	mu     sync.Mutex
	active *Job
}

// New returns an Orchestrator validating against c. A nil logger discards.
func New(c types.Constraints, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{constraints: c, log: log}
}

// Start runs job to completion and returns its output artifact. Items are
// converted strictly in order; progress events go to sink synchronously.
// Start on a job that is not Idle, or while another job is active, returns
// ErrInvalidState and leaves every job untouched.
func (o *Orchestrator) Start(ctx context.Context, job *Job, conv convert.Converter, b bundle.Bundler, sink progress.Sink) (types.OutputArtifact, error) {
	if sink == nil {
		sink = progress.Discard
	}
	if err := o.acquire(job); err != nil {
		return types.OutputArtifact{}, err
	}
	defer o.release(job)

	tool, items := job.Tool(), job.Items()
	log := o.log.With(zap.String("job_id", job.ID()), zap.String("tool", string(tool)))
	emit := func(e progress.Event) {
		e.JobID = job.ID()
		e.Tool = tool
		sink.Emit(e)
	}

	log.Info("job started", zap.Int("items", len(items)))

	outcome := validate.Validate(items, o.constraints)
	job.mu.Lock()
	job.outcome = outcome
	job.mu.Unlock()

	emit(progress.Event{Stage: progress.StageValidating, Warning: outcome.Warning, ItemIndex: -1})
	if !outcome.Accepted {
		return o.fail(log, job, emit, &JobError{Kind: outcome.Reason, Msg: outcome.Message, ItemIndex: -1})
	}
	if outcome.Warning != "" {
		log.Warn("batch accepted with warning", zap.String("warning", outcome.Warning))
	}

	if err := o.advance(job, StateConverting); err != nil {
		return o.fail(log, job, emit, err)
	}

	total := len(items)
	for i, item := range items {
		if err := o.checkCancel(ctx, job); err != nil {
			return o.fail(log, job, emit, err)
		}

		emit(progress.Event{Stage: progress.StageConverting, Index: i, Total: total, Label: item.Name, ItemIndex: i})
		log.Debug("converting item", zap.Int("index", i), zap.String("name", item.Name))

		pages, err := conv.Convert(ctx, item)
		if err != nil {
			return o.fail(log, job, emit, itemError(ctx, i, item, err))
		}
		job.appendPages(pages)
	}

	if err := o.checkCancel(ctx, job); err != nil {
		return o.fail(log, job, emit, err)
	}
	if err := o.advance(job, StateBundling); err != nil {
		return o.fail(log, job, emit, err)
	}

	pages := job.Pages()
	emit(progress.Event{Stage: progress.StageBundlingStarted, Total: len(pages), ItemIndex: -1})

	artifact, err := b.Bundle(ctx, pages)
	if err != nil {
		return o.fail(log, job, emit, bundleError(ctx, err))
	}

	job.mu.Lock()
	if err := job.transition(StateCompleted); err != nil {
		job.mu.Unlock()
		return o.fail(log, job, emit, invalidState("%v", err))
	}
	job.artifact = &artifact
	job.mu.Unlock()

	emit(progress.Event{Stage: progress.StageCompleted, Artifact: &artifact, ItemIndex: -1})
	log.Info("job completed",
		zap.String("filename", artifact.Filename),
		zap.Int("pages", len(pages)),
		zap.Int("bytes", len(artifact.Payload)))
	return artifact, nil
}

// Cancel asks a Converting job to stop. The item being converted finishes;
// the next one is never started and the job fails with Cancelled.
func (o *Orchestrator) Cancel(job *Job) error {
	job.mu.Lock()
	defer job.mu.Unlock()
	if job.state != StateConverting {
		return invalidState("cannot cancel job %s in state %s", job.id, job.state)
	}
	job.cancelRequested = true
	return nil
}

// Reset clears the run state of job and returns it to Idle so it can be
// started again. On a running job the reset is applied once the run
// unwinds; the run itself is cancelled at its next check point.
func (o *Orchestrator) Reset(job *Job) {
	job.mu.Lock()
	defer job.mu.Unlock()
	if job.running {
		job.cancelRequested = true
		job.resetRequested = true
		return
	}
	job.resetLocked()
}

// Active returns the job currently running, or nil.
func (o *Orchestrator) Active() *Job {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

func (o *Orchestrator) acquire(job *Job) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active != nil {
		return invalidState("job %s is already running", o.active.ID())
	}

	job.mu.Lock()
	defer job.mu.Unlock()
	if job.state != StateIdle {
		return invalidState("cannot start job %s in state %s", job.id, job.state)
	}
	if err := job.transition(StateValidating); err != nil {
		return invalidState("%v", err)
	}
	job.running = true
	o.active = job
	return nil
}

func (o *Orchestrator) release(job *Job) {
	o.mu.Lock()
	if o.active == job {
		o.active = nil
	}
	o.mu.Unlock()

	job.mu.Lock()
	defer job.mu.Unlock()
	job.running = false
	if job.resetRequested {
		job.resetLocked()
	}
}

func (o *Orchestrator) advance(job *Job, to State) *JobError {
	job.mu.Lock()
	defer job.mu.Unlock()
	if err := job.transition(to); err != nil {
		return invalidState("%v", err)
	}
	return nil
}

// checkCancel is the cooperative cancellation point between items.
func (o *Orchestrator) checkCancel(ctx context.Context, job *Job) *JobError {
	job.mu.Lock()
	defer job.mu.Unlock()
	if job.cancelRequested {
		return &JobError{Kind: types.KindCancelled, Msg: "job cancelled", ItemIndex: -1}
	}
	if err := ctx.Err(); err != nil {
		return &JobError{Kind: types.KindCancelled, Msg: "job cancelled", ItemIndex: -1, Err: err}
	}
	return nil
}

// fail moves job to Failed, discards its pages and emits the terminal
// failure event.
func (o *Orchestrator) fail(log *zap.Logger, job *Job, emit func(progress.Event), jerr *JobError) (types.OutputArtifact, error) {
	job.mu.Lock()
	job.pages = nil
	job.state = StateFailed
	job.err = jerr
	job.mu.Unlock()

	emit(progress.Event{
		Stage:     progress.StageFailed,
		Kind:      jerr.Kind,
		Message:   jerr.message(),
		ItemIndex: jerr.ItemIndex,
	})
	log.Warn("job failed",
		zap.String("kind", string(jerr.Kind)),
		zap.Int("item_index", jerr.ItemIndex),
		zap.Error(jerr))
	return types.OutputArtifact{}, jerr
}
