// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package progress

import "sync"

// Recorder keeps every event it receives. It is safe for concurrent use so
// tests can inspect it while a job runs.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit appends e.
func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Stages returns the stage of each recorded event in order.
func (r *Recorder) Stages() []Stage {
	events := r.Events()
	out := make([]Stage, len(events))
	for i, e := range events {
		out[i] = e.Stage
	}
	return out
}

// Terminal returns the terminal events recorded so far.
func (r *Recorder) Terminal() []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Terminal() {
			out = append(out, e)
		}
	}
	return out
}
