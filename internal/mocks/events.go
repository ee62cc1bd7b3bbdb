package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/yomu-api/internal/events"
)

// RecordingEmitter implements events.EventEmitter and keeps every event.
// Err, when set, is returned from every EmitEvent call.
type RecordingEmitter struct {
	mu     sync.Mutex
	events []*events.Event
	Err    error
}

// EmitEvent implements events.EventEmitter.
func (r *RecordingEmitter) EmitEvent(_ context.Context, event *events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.Err
}

// Events returns a copy of the events emitted so far.
func (r *RecordingEmitter) Events() []*events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*events.Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the emitted events with the given type.
func (r *RecordingEmitter) OfType(eventType string) []*events.Event {
	var out []*events.Event
	for _, e := range r.Events() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

var _ events.EventEmitter = (*RecordingEmitter)(nil)
