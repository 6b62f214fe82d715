package processor

import (
	"context"

	"github.com/kingrea/flowbench/internal/feature"
)

// Processor executes one feature against its resolved inputs.
type Processor interface {
	Run(ctx context.Context, inputs map[string]any) (Result, error)
}

// Func adapts an ordinary function to the Processor interface.
type Func func(ctx context.Context, inputs map[string]any) (Result, error)

// Run calls f.
func (f Func) Run(ctx context.Context, inputs map[string]any) (Result, error) {
	return f(ctx, inputs)
}

// Simple wraps a function that always completes with a plain value.
func Simple(fn func(ctx context.Context, inputs map[string]any) (any, error)) Processor {
	return Func(func(ctx context.Context, inputs map[string]any) (Result, error) {
		value, err := fn(ctx, inputs)
		if err != nil {
			return Result{}, err
		}
		return Completed(value), nil
	})
}

// Pause describes a sub-workflow that suspended inside a processor.
type Pause struct {
	// SessionID is the nested session the processor started.
	SessionID string
	// WaitingSessionID and NodeID locate the session and node actually
	// waiting for input. They differ from SessionID when pauses nest more
	// than one level deep.
	WaitingSessionID string
	NodeID           string
	RequiredInput    feature.Port
}

// Waiting returns the deepest session id, defaulting to SessionID.
func (p Pause) Waiting() string {
	if p.WaitingSessionID != "" {
		return p.WaitingSessionID
	}
	return p.SessionID
}

// Result is the tagged outcome of Processor.Run: either a completed value or
// a bubbled pause.
type Result struct {
	value any
	pause *Pause
}

// Completed returns a result carrying value.
func Completed(value any) Result {
	return Result{value: value}
}

// Paused returns a result reporting a suspended sub-workflow.
func Paused(p Pause) Result {
	return Result{pause: &p}
}

// Value returns the completed value. It is nil for paused results.
func (r Result) Value() any {
	return r.value
}

// Pause returns the pause details when the result is paused.
func (r Result) Pause() (Pause, bool) {
	if r.pause == nil {
		return Pause{}, false
	}
	return *r.pause, true
}

// IsPaused reports whether the result is a bubbled pause.
func (r Result) IsPaused() bool {
	return r.pause != nil
}
