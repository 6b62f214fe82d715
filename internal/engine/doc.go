// Package engine drives workflow sessions: it resolves each node's inputs,
// runs the node's processor, and suspends the session when a required input
// is missing or a nested sub-workflow is waiting for one. Sessions are kept
// in a session.Store and advanced with Start, RunStep and Resume.
package engine
