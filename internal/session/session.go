package session

import (
	"sync"
	"time"

	"github.com/kingrea/flowbench/internal/graph"
)

// Status enumerates the phases of a session.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusPaused    Status = "PAUSED"
	StatusCompleted Status = "COMPLETED"
	StatusError     Status = "ERROR"
)

// Terminal reports whether the status ends a session.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Session is one execution of a graph. Callers must hold Lock while reading
// or mutating any field other than ID.
type Session struct {
	mu sync.Mutex

	ID           string
	Nodes        map[string]graph.Node
	Edges        []graph.Edge
	Order        []string
	Context      map[string]any
	ManualInputs map[string]map[string]any
	Status       Status

	// PendingInputName and PendingNodeID are set while waiting for a single
	// missing input. PendingSubSessionID is set while a nested session spawned
	// by PendingNodeID is paused.
	PendingInputName    string
	PendingNodeID       string
	PendingSubSessionID string

	// Nested marks sessions started by a sub-workflow invocation.
	Nested bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func newSession(id string, g graph.Graph, order []string, now time.Time) *Session {
	nodes := make(map[string]graph.Node, len(g.Nodes))
	for _, node := range g.Nodes {
		nodes[node.ID] = node.Clone()
	}
	return &Session{
		ID:           id,
		Nodes:        nodes,
		Edges:        g.Clone().Edges,
		Order:        append([]string(nil), order...),
		Context:      map[string]any{},
		ManualInputs: map[string]map[string]any{},
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Lock acquires the session's lock.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session's lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// HasRun reports whether nodeID already has an entry in Context.
func (s *Session) HasRun(nodeID string) bool {
	_, ok := s.Context[nodeID]
	return ok
}

// Finished reports whether every node in Order has run.
func (s *Session) Finished() bool {
	for _, id := range s.Order {
		if !s.HasRun(id) {
			return false
		}
	}
	return true
}

// ManualInput returns the override recorded for nodeID's input name.
func (s *Session) ManualInput(nodeID, name string) (any, bool) {
	inputs, ok := s.ManualInputs[nodeID]
	if !ok {
		return nil, false
	}
	value, ok := inputs[name]
	return value, ok
}

// SetManualInput records an override for nodeID's input name.
func (s *Session) SetManualInput(nodeID, name string, value any) {
	inputs, ok := s.ManualInputs[nodeID]
	if !ok {
		inputs = map[string]any{}
		s.ManualInputs[nodeID] = inputs
	}
	inputs[name] = value
}

// WaitForInput marks the session paused on a missing input.
func (s *Session) WaitForInput(nodeID, name string) {
	s.Status = StatusPaused
	s.PendingNodeID = nodeID
	s.PendingInputName = name
	s.PendingSubSessionID = ""
}

// WaitForSession marks the session paused on a nested session spawned by nodeID.
func (s *Session) WaitForSession(nodeID, childID string) {
	s.Status = StatusPaused
	s.PendingNodeID = nodeID
	s.PendingSubSessionID = childID
	s.PendingInputName = ""
}

// ClearPending drops every pause marker.
func (s *Session) ClearPending() {
	s.PendingInputName = ""
	s.PendingNodeID = ""
	s.PendingSubSessionID = ""
}

// Results returns a copy of Context.
func (s *Session) Results() map[string]any {
	out := make(map[string]any, len(s.Context))
	for id, value := range s.Context {
		out[id] = value
	}
	return out
}

// Summary is a read-only view of a session for listings.
type Summary struct {
	ID                  string    `json:"id"`
	Status              Status    `json:"status"`
	Nested              bool      `json:"nested,omitempty"`
	Executed            int       `json:"executed"`
	Total               int       `json:"total"`
	PendingNodeID       string    `json:"pending_node_id,omitempty"`
	PendingInputName    string    `json:"pending_input_name,omitempty"`
	PendingSubSessionID string    `json:"pending_sub_session_id,omitempty"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (s *Session) summary() Summary {
	return Summary{
		ID:                  s.ID,
		Status:              s.Status,
		Nested:              s.Nested,
		Executed:            len(s.Context),
		Total:               len(s.Order),
		PendingNodeID:       s.PendingNodeID,
		PendingInputName:    s.PendingInputName,
		PendingSubSessionID: s.PendingSubSessionID,
		UpdatedAt:           s.UpdatedAt,
	}
}
