package engine

import (
	"context"

	"github.com/kingrea/flowbench/internal/graph"
	"github.com/kingrea/flowbench/internal/session"
)

// PrepareSubWorkflow creates a nested session for g without running it and
// records manual input overrides keyed by internal node id. It returns the
// new session id for RunSubWorkflowSync.
func (e *Engine) PrepareSubWorkflow(g graph.Graph, manual map[string]map[string]any) (string, error) {
	order, err := graph.Compile(g)
	if err != nil {
		return "", err
	}
	sess := e.store.Create(e.newID(), g, order)
	sess.Lock()
	defer sess.Unlock()
	sess.Nested = true
	for nodeID, inputs := range manual {
		for name, value := range inputs {
			sess.SetManualInput(nodeID, name, value)
		}
	}
	return sess.ID, nil
}

// RunSubWorkflowSync runs g as a nested session and blocks until it
// completes, fails or pauses. existingID reuses a prepared session; the
// session is recreated from g when it is no longer in the store. inputs are
// written straight into the session context as already computed results.
// A paused outcome names the nested session so callers can resume it later.
// When the run is interrupted the nested session is removed and the error is
// returned unchanged.
func (e *Engine) RunSubWorkflowSync(ctx context.Context, g graph.Graph, inputs map[string]any, existingID string) (Outcome, error) {
	order, err := graph.Compile(g)
	if err != nil {
		return Outcome{}, err
	}
	var sess *session.Session
	if existingID != "" {
		if current, ok := e.store.Get(existingID); ok {
			sess = current
		}
	}
	if sess == nil {
		id := existingID
		if id == "" {
			id = e.newID()
		}
		sess = e.store.Create(id, g, order)
	}
	sess.Lock()
	defer sess.Unlock()
	if current, ok := e.store.Get(sess.ID); !ok || current != sess {
		return Outcome{}, sessionNotFound(sess.ID)
	}
	sess.Nested = true
	for key, value := range inputs {
		sess.Context[key] = value
	}
	sess.Status = session.StatusRunning
	e.logger.Info("nested workflow started", "session", sess.ID, "nodes", len(sess.Order))

	out, err := e.step(ctx, sess)
	if err != nil {
		e.abandon(sess, err)
		return Outcome{}, err
	}
	switch out.Status {
	case session.StatusCompleted, session.StatusError:
		e.store.DropResult(sess.ID)
	case session.StatusPaused:
		if out.SubSessionID == "" {
			out.SubSessionID = sess.ID
		}
	}
	return out, nil
}

// abandon removes a nested session whose run was interrupted, together with
// anything it was waiting on. The caller holds sess's lock.
func (e *Engine) abandon(sess *session.Session, err error) {
	next := sess.PendingSubSessionID
	e.store.Delete(sess.ID)
	e.store.DropResult(sess.ID)
	sess.Status = session.StatusError
	sess.ClearPending()
	e.logger.Warn("nested workflow abandoned", "session", sess.ID, "error", err)
	if next != "" {
		e.Cancel(next)
	}
}
