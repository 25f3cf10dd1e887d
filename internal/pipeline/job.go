// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/pdiddy/docbatch/pkg/types"
)

// Job is one batch submission. Its fields are owned by the Orchestrator
// running it; callers observe them through the accessor methods, which are
// safe to call while the job runs.
type Job struct {
	mu sync.Mutex

	id    string
	tool  types.Tool
	items []types.InputItem

	state    State
	pages    []types.PageArtifact
	current  int
	err      *JobError
	outcome  types.ValidationOutcome
	artifact *types.OutputArtifact

	running         bool
	cancelRequested bool
	resetRequested  bool
}

// NewJob returns an Idle job over a copy of items. Item order determines
// output order.
func NewJob(tool types.Tool, items []types.InputItem) *Job {
	return &Job{
		id:    uuid.NewString(),
		tool:  tool,
		items: slices.Clone(items),
		state: StateIdle,
	}
}

// ID returns the job identifier. It changes on Reset.
func (j *Job) ID() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.id
}

// Tool returns the conversion direction the job was built for.
func (j *Job) Tool() types.Tool { return j.tool }

// Items returns a copy of the submitted items.
func (j *Job) Items() []types.InputItem { return slices.Clone(j.items) }

// State returns the current state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// CurrentIndex returns the number of items converted so far.
func (j *Job) CurrentIndex() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.current
}

// Pages returns a copy of the page artifacts accumulated so far.
func (j *Job) Pages() []types.PageArtifact {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.pages)
}

// Err returns the terminal error of a Failed job, or nil.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err == nil {
		return nil
	}
	return j.err
}

// Outcome returns the validation outcome of the current run.
func (j *Job) Outcome() types.ValidationOutcome {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.outcome
}

// Artifact returns the output of a Completed job, or nil.
func (j *Job) Artifact() *types.OutputArtifact {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.artifact
}

// appendPages adds the pages of one converted item, renumbering ordinals to
// continue the job-wide sequence, and advances the cursor.
func (j *Job) appendPages(pages []types.PageArtifact) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, p := range pages {
		p.Ordinal = len(j.pages)
		j.pages = append(j.pages, p)
	}
	j.current++
}

// resetLocked returns the job to Idle with no run state. The caller holds
// j.mu.
func (j *Job) resetLocked() {
	j.id = uuid.NewString()
	j.state = StateIdle
	j.pages = nil
	j.current = 0
	j.err = nil
	j.outcome = types.ValidationOutcome{}
	j.artifact = nil
	j.cancelRequested = false
	j.resetRequested = false
}
