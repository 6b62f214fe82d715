package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kingrea/flowbench/internal/feature"
	"github.com/kingrea/flowbench/internal/graph"
	"github.com/kingrea/flowbench/internal/processor"
	"github.com/kingrea/flowbench/internal/session"
)

// Engine executes workflow sessions held in a session store.
type Engine struct {
	store    *session.Store
	catalog  *feature.Catalog
	registry *processor.Registry
	logger   *slog.Logger
	newID    func() string
}

// Option customizes the engine instance.
type Option func(*Engine)

// WithLogger overrides the default discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithIDGenerator injects a deterministic session id source (primarily for tests).
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// New wires an engine to its session store, feature catalog and processor registry.
func New(store *session.Store, catalog *feature.Catalog, registry *processor.Registry, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("engine: session store is required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("engine: feature catalog is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("engine: processor registry is required")
	}
	e := &Engine{
		store:    store,
		catalog:  catalog,
		registry: registry,
		logger:   slog.New(slog.DiscardHandler),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Store exposes the session store backing the engine.
func (e *Engine) Store() *session.Store { return e.store }

// Catalog exposes the feature catalog used for input resolution.
func (e *Engine) Catalog() *feature.Catalog { return e.catalog }

// Start compiles g into a new session and runs it until it completes,
// pauses or fails. Compilation errors are returned without creating a session.
func (e *Engine) Start(ctx context.Context, g graph.Graph) (Outcome, error) {
	order, err := graph.Compile(g)
	if err != nil {
		return Outcome{}, err
	}
	sess := e.store.Create(e.newID(), g, order)
	sess.Lock()
	defer sess.Unlock()
	sess.Status = session.StatusRunning
	e.logger.Info("workflow started", "session", sess.ID, "nodes", len(order))
	return e.step(ctx, sess)
}

// RunStep advances the session until it completes, pauses or fails. Nodes
// that already have a result are never run again.
func (e *Engine) RunStep(ctx context.Context, sessionID string) (Outcome, error) {
	sess, err := e.acquire(sessionID)
	if err != nil {
		return Outcome{}, err
	}
	defer sess.Unlock()
	return e.step(ctx, sess)
}

// Cancel deletes the session and every nested session it is waiting on.
// It reports whether sessionID was live.
func (e *Engine) Cancel(sessionID string) bool {
	if _, ok := e.store.Get(sessionID); !ok {
		e.store.DropResult(sessionID)
		return false
	}
	for id := sessionID; id != ""; {
		sess, ok := e.store.Get(id)
		if !ok {
			e.store.DropResult(id)
			break
		}
		sess.Lock()
		next := sess.PendingSubSessionID
		e.store.Delete(id)
		e.store.DropResult(id)
		sess.Status = session.StatusError
		sess.ClearPending()
		sess.Unlock()
		e.logger.Info("session cancelled", "session", id)
		id = next
	}
	return true
}

// Sessions returns a snapshot of every live session.
func (e *Engine) Sessions() []session.Summary {
	return e.store.Summaries()
}

// acquire looks the session up and locks it, rejecting sessions deleted
// while the caller waited for the lock.
func (e *Engine) acquire(id string) (*session.Session, error) {
	sess, ok := e.store.Get(id)
	if !ok {
		return nil, sessionNotFound(id)
	}
	sess.Lock()
	if current, ok := e.store.Get(id); !ok || current != sess {
		sess.Unlock()
		return nil, sessionNotFound(id)
	}
	return sess, nil
}

// step is the run loop. The caller holds the session lock.
func (e *Engine) step(ctx context.Context, sess *session.Session) (Outcome, error) {
	if sess.PendingSubSessionID != "" {
		out, settled, err := e.settleChild(ctx, sess)
		if err != nil || !settled || out.Status == session.StatusError {
			return out, err
		}
	}
	sess.Status = session.StatusRunning
	sess.ClearPending()
	e.store.Touch(sess)

	for _, nodeID := range sess.Order {
		if sess.HasRun(nodeID) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return Outcome{}, fmt.Errorf("engine: session %s interrupted before %s: %w", sess.ID, nodeID, err)
		}
		node := sess.Nodes[nodeID]
		desc := e.catalog.Lookup(node.FeatureID())
		res := e.resolveInputs(sess, node, desc)
		if res.missing != nil {
			sess.WaitForInput(nodeID, res.missing.Name)
			e.logger.Info("waiting for input",
				"session", sess.ID, "node", nodeID, "feature", node.FeatureID(), "input", res.missing.Name)
			return Outcome{
				Status:        session.StatusPaused,
				SessionID:     sess.ID,
				NodeID:        nodeID,
				RequiredInput: res.missing,
			}, nil
		}
		if res.blocked {
			sess.Context[nodeID] = nil
			e.logger.Info("skipping node with empty upstream result",
				"session", sess.ID, "node", nodeID, "feature", node.FeatureID())
			continue
		}

		e.logger.Debug("running node", "session", sess.ID, "node", nodeID, "feature", node.FeatureID())
		result, err := e.invoke(ctx, node, desc, res.inputs)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return Outcome{}, fmt.Errorf("engine: session %s interrupted in %s: %w", sess.ID, nodeID, err)
			}
			return e.fail(sess, &ProcessorError{NodeID: nodeID, Feature: node.FeatureID(), Err: err}), nil
		}
		if pause, ok := result.Pause(); ok {
			if pause.SessionID == "" {
				err := fmt.Errorf("paused without a nested session id")
				return e.fail(sess, &ProcessorError{NodeID: nodeID, Feature: node.FeatureID(), Err: err}), nil
			}
			sess.WaitForSession(nodeID, pause.SessionID)
			port := pause.RequiredInput
			e.logger.Info("nested workflow paused",
				"session", sess.ID, "node", nodeID, "sub_session", pause.Waiting(), "input", port.Name)
			return Outcome{
				Status:        session.StatusPaused,
				SessionID:     sess.ID,
				NodeID:        pause.NodeID,
				RequiredInput: &port,
				SubSessionID:  pause.Waiting(),
			}, nil
		}
		sess.Context[nodeID] = result.Value()
		e.logger.Debug("node finished", "session", sess.ID, "node", nodeID, "feature", node.FeatureID())
	}
	return e.complete(sess), nil
}

func (e *Engine) invoke(ctx context.Context, node graph.Node, desc feature.Descriptor, inputs map[string]any) (result processor.Result, err error) {
	proc, err := e.registry.Resolve(desc)
	if err != nil {
		return processor.Result{}, err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processor panic in node %s: %v", node.ID, r)
		}
	}()
	return proc.Run(ctx, inputs)
}

func (e *Engine) complete(sess *session.Session) Outcome {
	results := sess.Results()
	sess.Status = session.StatusCompleted
	sess.ClearPending()
	e.store.Delete(sess.ID)
	if sess.Nested {
		e.store.PutResult(sess.ID, results)
	}
	e.logger.Info("workflow completed", "session", sess.ID, "nested", sess.Nested)
	return Outcome{Status: session.StatusCompleted, SessionID: sess.ID, Results: results}
}

func (e *Engine) fail(sess *session.Session, err error) Outcome {
	sess.Status = session.StatusError
	sess.ClearPending()
	e.store.Delete(sess.ID)
	if sess.Nested {
		e.store.PutFailure(sess.ID, err.Error())
	}
	e.logger.Error("workflow failed", "session", sess.ID, "error", err)
	return Outcome{Status: session.StatusError, SessionID: sess.ID, Message: err.Error()}
}
