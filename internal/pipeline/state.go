// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import "fmt"

// State is the lifecycle state of a Job.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateConverting State = "converting"
	StateBundling   State = "bundling"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// IsTerminal reports whether s ends a run.
func IsTerminal(s State) bool {
	return s == StateCompleted || s == StateFailed
}

// isAllowedTransition encodes the job state machine. Reset bypasses it and
// may return a job to Idle from anywhere.
func isAllowedTransition(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StateValidating
	case StateValidating:
		return to == StateConverting || to == StateFailed
	case StateConverting:
		return to == StateBundling || to == StateFailed
	case StateBundling:
		return to == StateCompleted || to == StateFailed
	case StateCompleted, StateFailed:
		return to == StateIdle
	default:
		return false
	}
}

// transition moves j to state to. The caller holds j.mu.
func (j *Job) transition(to State) error {
	if !isAllowedTransition(j.state, to) {
		return fmt.Errorf("disallowed transition for job %s: %s -> %s", j.id, j.state, to)
	}
	j.state = to
	return nil
}
