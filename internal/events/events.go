// Package events defines the execution event protocol emitted around every
// action invocation. The event stream is the audit trail a later validation
// stage inspects to confirm tab-isolation compliance, so ordering is a
// correctness invariant here, not a logging convenience.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Actor identifies the role that emitted an event.
type Actor string

// ActorNavigator is the navigator/action-executor role. Every event produced
// by the action layer carries this actor.
const ActorNavigator Actor = "navigator"

// Phase is the lifecycle phase of an action invocation.
type Phase string

const (
	PhaseActStart Phase = "ACT_START"
	PhaseActOK    Phase = "ACT_OK"
	PhaseActFail  Phase = "ACT_FAIL"
)

// Terminal reports whether the phase ends an invocation.
func (p Phase) Terminal() bool {
	return p == PhaseActOK || p == PhaseActFail
}

// ExecutionEvent is one entry of the audit trail.
type ExecutionEvent struct {
	ID        string    `json:"id"`
	Actor     Actor     `json:"actor"`
	Phase     Phase     `json:"phase"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Emitter is the outbound event sink used by action handlers. Emission is
// fire-and-forget: no error is returned and no backpressure is applied to the
// caller.
type Emitter interface {
	Emit(ctx context.Context, actor Actor, phase Phase, message string)
}

// -- In-Memory Audit Log --

// Log is an append-only, in-memory event log. It is the default Emitter and
// the reference implementation of the audit trail consumed by compliance
// checks. Safe for concurrent use.
type Log struct {
	mu     sync.RWMutex
	events []ExecutionEvent
}

// NewLog creates an empty event log.
func NewLog() *Log {
	return &Log{}
}

// Emit appends one event, enriching it with an ID and timestamp.
func (l *Log) Emit(_ context.Context, actor Actor, phase Phase, message string) {
	ev := ExecutionEvent{
		ID:        uuid.NewString(),
		Actor:     actor,
		Phase:     phase,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

// Events returns a snapshot copy of the log in append order.
func (l *Log) Events() []ExecutionEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]ExecutionEvent, len(l.events))
	copy(out, l.events)
	return out
}

// Len returns the number of recorded events.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// VerifyPairing checks the start/terminal invariant over a recorded event
// stream: every ACT_START is followed by exactly one terminal phase before the
// next ACT_START, no terminal phase appears without a preceding ACT_START, and
// no invocation is left open at the end of the stream.
func VerifyPairing(evs []ExecutionEvent) error {
	open := false
	for i, ev := range evs {
		switch {
		case ev.Phase == PhaseActStart:
			if open {
				return fmt.Errorf("event %d: %s while a previous invocation is still open", i, ev.Phase)
			}
			open = true
		case ev.Phase.Terminal():
			if !open {
				return fmt.Errorf("event %d: terminal %s without a preceding %s", i, ev.Phase, PhaseActStart)
			}
			open = false
		default:
			return fmt.Errorf("event %d: unknown phase %q", i, ev.Phase)
		}
	}
	if open {
		return fmt.Errorf("event stream ends with an unterminated invocation")
	}
	return nil
}
