package engine

import (
	"sort"

	"github.com/kingrea/flowbench/internal/feature"
	"github.com/kingrea/flowbench/internal/session"
)

// Outcome is the result of advancing a session.
//
// COMPLETED outcomes carry Results. PAUSED outcomes name the node waiting
// for RequiredInput; when the wait happens inside a nested sub-workflow,
// SubSessionID is the nested session that owns that node and SessionID stays
// the session the caller advanced. ERROR outcomes carry Message.
type Outcome struct {
	Status        session.Status `json:"status"`
	SessionID     string         `json:"session_id,omitempty"`
	NodeID        string         `json:"node_id,omitempty"`
	RequiredInput *feature.Port  `json:"required_input,omitempty"`
	SubSessionID  string         `json:"sub_session_id,omitempty"`
	Results       map[string]any `json:"results,omitempty"`
	Message       string         `json:"message,omitempty"`
}

// Completed reports whether the outcome finished the session.
func (o Outcome) Completed() bool { return o.Status == session.StatusCompleted }

// Paused reports whether the session is waiting for input.
func (o Outcome) Paused() bool { return o.Status == session.StatusPaused }

// Failed reports whether the session ended with an error.
func (o Outcome) Failed() bool { return o.Status == session.StatusError }

// WaitingSessionID returns the session that actually owns the pending node.
func (o Outcome) WaitingSessionID() string {
	if o.SubSessionID != "" {
		return o.SubSessionID
	}
	return o.SessionID
}

// MergeResults flattens a finished workflow's results into a single value.
// Mapping results are merged key by key; any other result is stored under
// its node id. Keys are applied in sorted order so collisions resolve the
// same way every time.
func MergeResults(results map[string]any) map[string]any {
	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := map[string]any{}
	for _, id := range ids {
		if nested, ok := results[id].(map[string]any); ok {
			for key, value := range nested {
				out[key] = value
			}
			continue
		}
		out[id] = results[id]
	}
	return out
}
