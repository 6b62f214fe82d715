package engine

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound reports an unknown, finished or cancelled session id.
var ErrSessionNotFound = errors.New("engine: session not found")

func sessionNotFound(id string) error {
	return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
}

// ProcessorError wraps a failure raised while running a node's processor.
type ProcessorError struct {
	NodeID  string
	Feature string
	Err     error
}

func (e *ProcessorError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("Error in %s", e.Feature)
	}
	return fmt.Sprintf("Error in %s: %v", e.Feature, e.Err)
}

func (e *ProcessorError) Unwrap() error { return e.Err }
