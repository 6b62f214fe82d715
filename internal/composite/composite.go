// Package composite runs saved workflow graphs as single nodes of another
// workflow and saves builder graphs as reusable modules.
package composite

import (
	"context"
	"fmt"

	"github.com/kingrea/flowbench/internal/engine"
	"github.com/kingrea/flowbench/internal/feature"
	"github.com/kingrea/flowbench/internal/graph"
	"github.com/kingrea/flowbench/internal/processor"
)

// ProcessorClass is recorded in the metadata of saved composite modules.
const ProcessorClass = "CompositeModule"

// Invoker runs nested workflows. *engine.Engine satisfies it.
type Invoker interface {
	PrepareSubWorkflow(g graph.Graph, manual map[string]map[string]any) (string, error)
	RunSubWorkflowSync(ctx context.Context, g graph.Graph, inputs map[string]any, existingID string) (engine.Outcome, error)
}

// Processor runs a saved graph as a nested session.
type Processor struct {
	desc    feature.Descriptor
	graph   graph.Graph
	invoker Invoker
}

// New returns a processor for the module described by desc.
func New(desc feature.Descriptor, g graph.Graph, invoker Invoker) *Processor {
	return &Processor{desc: desc, graph: g.Clone(), invoker: invoker}
}

// Factory returns a registry factory building composite processors for g.
func Factory(g graph.Graph, invoker Invoker) processor.Factory {
	return func(d feature.Descriptor) (processor.Processor, error) {
		if invoker == nil {
			return nil, fmt.Errorf("composite: %s has no workflow invoker", d.ID)
		}
		return New(d, g, invoker), nil
	}
}

// Run maps routed inputs onto the internal nodes they belong to, writes the
// remaining inputs into the nested context, and runs the saved graph.
func (p *Processor) Run(ctx context.Context, inputs map[string]any) (processor.Result, error) {
	manual := map[string]map[string]any{}
	mapped := map[string]struct{}{}
	for _, port := range p.desc.Inputs {
		value, ok := inputs[port.Name]
		if !ok || !port.Routed() {
			continue
		}
		mapped[port.Name] = struct{}{}
		if value == nil {
			continue
		}
		if manual[port.InternalNode] == nil {
			manual[port.InternalNode] = map[string]any{}
		}
		manual[port.InternalNode][port.InternalInput] = value
	}
	remaining := map[string]any{}
	for name, value := range inputs {
		if _, ok := mapped[name]; ok || value == nil {
			continue
		}
		remaining[name] = value
	}

	sessionID, err := p.invoker.PrepareSubWorkflow(p.graph, manual)
	if err != nil {
		return processor.Result{}, fmt.Errorf("composite: prepare %s: %w", p.desc.ID, err)
	}
	out, err := p.invoker.RunSubWorkflowSync(ctx, p.graph, remaining, sessionID)
	if err != nil {
		return processor.Result{}, fmt.Errorf("composite: run %s: %w", p.desc.ID, err)
	}
	switch {
	case out.Completed():
		return processor.Completed(engine.MergeResults(out.Results)), nil
	case out.Paused():
		pause := processor.Pause{
			SessionID:        out.SessionID,
			WaitingSessionID: out.WaitingSessionID(),
			NodeID:           out.NodeID,
		}
		if out.RequiredInput != nil {
			pause.RequiredInput = *out.RequiredInput
		}
		return processor.Paused(pause), nil
	default:
		return processor.Result{}, fmt.Errorf("custom module failed: %s", out.Message)
	}
}
