package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidGraph = errors.New("graph: invalid workflow graph")
	ErrCycle        = errors.New("graph: cycle detected in workflow graph")
)

// CyclicGraphError reports a graph that has no topological ordering. Nodes
// lists the ids left unordered once every acyclic prefix was removed.
type CyclicGraphError struct {
	Nodes []string
}

func (e *CyclicGraphError) Error() string {
	if e == nil || len(e.Nodes) == 0 {
		return ErrCycle.Error()
	}
	return fmt.Sprintf("%s: %s", ErrCycle.Error(), strings.Join(e.Nodes, ", "))
}

func (e *CyclicGraphError) Unwrap() error { return ErrCycle }

// InvalidGraphError wraps structural validation failures.
type InvalidGraphError struct {
	Msg string
}

func (e *InvalidGraphError) Error() string {
	if e == nil || e.Msg == "" {
		return ErrInvalidGraph.Error()
	}
	return fmt.Sprintf("%s: %s", ErrInvalidGraph.Error(), e.Msg)
}

func (e *InvalidGraphError) Unwrap() error { return ErrInvalidGraph }

func invalidf(format string, args ...any) error {
	return &InvalidGraphError{Msg: fmt.Sprintf(format, args...)}
}
