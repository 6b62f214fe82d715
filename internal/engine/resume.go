package engine

import (
	"context"
	"fmt"

	"github.com/kingrea/flowbench/internal/feature"
	"github.com/kingrea/flowbench/internal/session"
)

// Resume delivers data to the input the session is waiting for and advances
// it. When the session waits on a nested session the data is routed down the
// chain to the session that actually owns the pending input; each nested
// session that completes hands its merged results to the node that spawned
// it. nodeID is informational: the pending node recorded on the session wins.
func (e *Engine) Resume(ctx context.Context, sessionID, nodeID string, data any) (Outcome, error) {
	sess, err := e.acquire(sessionID)
	if err != nil {
		return Outcome{}, err
	}
	defer sess.Unlock()
	return e.resume(ctx, sess, nodeID, data)
}

// resume is called with sess locked.
func (e *Engine) resume(ctx context.Context, sess *session.Session, nodeID string, data any) (Outcome, error) {
	if childID := sess.PendingSubSessionID; childID != "" {
		child, ok := e.store.Get(childID)
		if !ok {
			// The child may have finished through a direct resume.
			return e.step(ctx, sess)
		}
		child.Lock()
		out, err := e.resume(ctx, child, nodeID, data)
		child.Unlock()
		if err != nil {
			return Outcome{}, err
		}
		switch out.Status {
		case session.StatusCompleted:
			e.store.DropResult(childID)
			e.adoptChild(sess, out.Results)
			return e.step(ctx, sess)
		case session.StatusError:
			e.store.DropResult(childID)
			e.fail(sess, fmt.Errorf("nested session %s failed: %s", childID, out.Message))
			return out, nil
		default:
			if out.SubSessionID == "" {
				out.SubSessionID = out.SessionID
			}
			out.SessionID = sess.ID
			return out, nil
		}
	}

	if sess.PendingInputName != "" {
		target := sess.PendingNodeID
		if nodeID != "" && nodeID != target {
			e.logger.Warn("resume node does not match pending node, using pending node",
				"session", sess.ID, "node", nodeID, "pending_node", target)
		}
		sess.SetManualInput(target, sess.PendingInputName, data)
		e.logger.Info("input received", "session", sess.ID, "node", target, "input", sess.PendingInputName)
		sess.PendingInputName = ""
	}
	return e.step(ctx, sess)
}

// settleChild checks on the nested session sess is waiting for. The caller
// holds sess's lock. A live child that is not waiting on an input is advanced
// first, so results parked at any depth reach sess. While the chain still
// waits, settled is false and the outcome names the deepest pending input.
// A failed child fails sess; its ERROR outcome is returned with settled set.
func (e *Engine) settleChild(ctx context.Context, sess *session.Session) (Outcome, bool, error) {
	childID := sess.PendingSubSessionID
	if child, ok := e.store.Get(childID); ok {
		child.Lock()
		out, waiting, err := e.advanceChild(ctx, child)
		child.Unlock()
		if err != nil {
			return Outcome{}, false, err
		}
		if waiting {
			if out.SubSessionID == "" {
				out.SubSessionID = out.SessionID
			}
			out.SessionID = sess.ID
			return out, false, nil
		}
	}
	h, ok := e.store.TakeResult(childID)
	if !ok {
		return Outcome{}, false, sessionNotFound(childID)
	}
	if h.Failed {
		out := e.fail(sess, fmt.Errorf("nested session %s failed: %s", childID, h.Message))
		out.Message = h.Message
		return out, true, nil
	}
	e.adoptChild(sess, h.Results)
	return Outcome{}, true, nil
}

// advanceChild runs a live nested session as far as it can go. The caller
// holds child's lock. waiting is false once child has left the store.
func (e *Engine) advanceChild(ctx context.Context, child *session.Session) (out Outcome, waiting bool, err error) {
	if current, live := e.store.Get(child.ID); !live || current != child {
		return Outcome{}, false, nil
	}
	if child.PendingInputName != "" {
		return e.inputOutcome(child), true, nil
	}
	out, err = e.step(ctx, child)
	if err != nil {
		return Outcome{}, false, err
	}
	return out, out.Paused(), nil
}

func (e *Engine) adoptChild(sess *session.Session, results map[string]any) {
	sess.Context[sess.PendingNodeID] = MergeResults(results)
	e.logger.Info("nested workflow finished",
		"session", sess.ID, "node", sess.PendingNodeID, "sub_session", sess.PendingSubSessionID)
	sess.ClearPending()
}

// inputOutcome describes the input sess is paused on.
func (e *Engine) inputOutcome(sess *session.Session) Outcome {
	nodeID, name := sess.PendingNodeID, sess.PendingInputName
	port, ok := e.catalog.Lookup(sess.Nodes[nodeID].FeatureID()).Input(name)
	if !ok {
		port = feature.Port{Name: name, Type: feature.TypeAny}
	}
	return Outcome{Status: session.StatusPaused, SessionID: sess.ID, NodeID: nodeID, RequiredInput: &port}
}
