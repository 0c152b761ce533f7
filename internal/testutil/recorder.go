package testutil

import (
	"sync"

	"github.com/PraverBajaj/doobie/internal/exec"
)

// Recorder is a LogHandler capturing every emitted event in order.
type Recorder struct {
	mu     sync.Mutex
	events []exec.Event

	// Fail, when non-nil, is returned by Handle after recording. Used to
	// test the sink-failure precedence policy.
	Fail error
}

// Handle records ev. Install with exec.WithHandler(r.Handle).
func (r *Recorder) Handle(ev exec.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.Fail
}

// Events returns a snapshot of the recorded events.
func (r *Recorder) Events() []exec.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]exec.Event, len(r.events))
	copy(out, r.events)
	return out
}

