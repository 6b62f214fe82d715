package engine

import (
	"github.com/kingrea/flowbench/internal/feature"
	"github.com/kingrea/flowbench/internal/graph"
	"github.com/kingrea/flowbench/internal/session"
)

// resolution is the outcome of resolving every declared input of one node.
type resolution struct {
	inputs map[string]any
	// missing is the first required input with no source at all.
	missing *feature.Port
	// blocked is set when a required input is wired to an upstream node
	// whose result is empty.
	blocked bool
}

// resolveInputs applies, per declared input and in declaration order:
// manual override, exact handle edge, generic edge by type, static config.
// The caller holds the session lock.
func (e *Engine) resolveInputs(sess *session.Session, node graph.Node, desc feature.Descriptor) resolution {
	res := resolution{inputs: make(map[string]any, len(desc.Inputs))}
	incoming := graph.IncomingEdges(sess.Edges, node.ID)
	consumed := map[string]struct{}{}

	for _, port := range desc.Inputs {
		if value, ok := sess.ManualInput(node.ID, port.Name); ok {
			res.inputs[port.Name] = value
			continue
		}
		if source, ok := e.findSource(sess, incoming, port, consumed); ok {
			upstream := sess.Context[source]
			value := upstream
			if fields, ok := upstream.(map[string]any); ok {
				if nested, ok := fields[port.Name]; ok {
					value = nested
				}
			}
			res.inputs[port.Name] = value
			if upstream == nil && !port.Optional {
				res.blocked = true
			}
			continue
		}
		if value, ok := node.StaticInput(port.Name); ok {
			res.inputs[port.Name] = value
			continue
		}
		if !port.Optional {
			missing := port
			res.missing = &missing
			return res
		}
		res.inputs[port.Name] = nil
	}
	return res
}

// findSource picks the upstream node feeding port. An edge bound to the
// port's name wins; otherwise the first generic edge whose source declares a
// compatible output and has not already fed another input of this node.
func (e *Engine) findSource(sess *session.Session, incoming []graph.Edge, port feature.Port, consumed map[string]struct{}) (string, bool) {
	for _, edge := range incoming {
		if !edge.Generic() && edge.Handle() == port.Name {
			return edge.Source, true
		}
	}
	want := port.TypeOrAny()
	for _, edge := range incoming {
		if !edge.Generic() {
			continue
		}
		if _, used := consumed[edge.Source]; used {
			continue
		}
		source, ok := sess.Nodes[edge.Source]
		if !ok {
			continue
		}
		desc, ok := e.catalog.Descriptor(source.FeatureID())
		if !ok || !desc.ProducesType(want) {
			continue
		}
		consumed[edge.Source] = struct{}{}
		return edge.Source, true
	}
	return "", false
}
