package graph

import (
	"fmt"
	"strings"
)

// Node is a single step of a workflow graph bound to a feature.
type Node struct {
	ID   string   `json:"id" yaml:"id"`
	Data NodeData `json:"data" yaml:"data"`
}

// NodeData carries the editor payload for a node. Inputs holds values typed
// directly into the node in the builder and is the lowest-priority input source.
type NodeData struct {
	FeatureID string         `json:"feature_id" yaml:"feature_id"`
	Label     string         `json:"label,omitempty" yaml:"label,omitempty"`
	Inputs    map[string]any `json:"inputs,omitempty" yaml:"inputs,omitempty"`
}

// FeatureID is shorthand for Data.FeatureID.
func (n Node) FeatureID() string {
	return n.Data.FeatureID
}

// StaticInput returns the inline value configured for name, if any.
func (n Node) StaticInput(name string) (any, bool) {
	if n.Data.Inputs == nil {
		return nil, false
	}
	value, ok := n.Data.Inputs[name]
	return value, ok
}

// Clone returns a copy of the node with its own inputs map.
func (n Node) Clone() Node {
	clone := n
	if len(n.Data.Inputs) > 0 {
		clone.Data.Inputs = make(map[string]any, len(n.Data.Inputs))
		for key, value := range n.Data.Inputs {
			clone.Data.Inputs[key] = value
		}
	}
	return clone
}

// Edge is a directed data dependency. A nil TargetHandle marks a generic
// connection matched to an input by type instead of by name.
type Edge struct {
	Source       string  `json:"source" yaml:"source"`
	Target       string  `json:"target" yaml:"target"`
	TargetHandle *string `json:"targetHandle" yaml:"targetHandle"`
}

// Generic reports whether the edge is not bound to a named input.
func (e Edge) Generic() bool {
	return e.TargetHandle == nil
}

// Handle returns the bound input name, or "" for generic edges.
func (e Edge) Handle() string {
	if e.TargetHandle == nil {
		return ""
	}
	return *e.TargetHandle
}

// Handle is a helper for building edges bound to a named input.
func Handle(name string) *string {
	return &name
}

// Graph is the builder's wire representation of a workflow.
type Graph struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

// Clone returns a deep copy of the graph.
func (g Graph) Clone() Graph {
	clone := Graph{}
	if len(g.Nodes) > 0 {
		clone.Nodes = make([]Node, len(g.Nodes))
		for i, node := range g.Nodes {
			clone.Nodes[i] = node.Clone()
		}
	}
	if len(g.Edges) > 0 {
		clone.Edges = make([]Edge, len(g.Edges))
		for i, edge := range g.Edges {
			clone.Edges[i] = edge
			if edge.TargetHandle != nil {
				clone.Edges[i].TargetHandle = Handle(*edge.TargetHandle)
			}
		}
	}
	return clone
}

// NodeMap indexes the nodes by id.
func (g Graph) NodeMap() map[string]Node {
	out := make(map[string]Node, len(g.Nodes))
	for _, node := range g.Nodes {
		out[node.ID] = node
	}
	return out
}

// NodeIDs returns node ids in declaration order.
func (g Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.Nodes))
	for _, node := range g.Nodes {
		ids = append(ids, node.ID)
	}
	return ids
}

// IncomingEdges returns the edges targeting id, in declaration order.
func IncomingEdges(edges []Edge, id string) []Edge {
	var out []Edge
	for _, edge := range edges {
		if edge.Target == id {
			out = append(out, edge)
		}
	}
	return out
}

// Validate checks structural consistency. Cycles are reported by Compile.
func (g Graph) Validate() error {
	seen := make(map[string]struct{}, len(g.Nodes))
	for idx, node := range g.Nodes {
		id := strings.TrimSpace(node.ID)
		if id == "" {
			return invalidf("node[%d]: id is required", idx)
		}
		if _, dup := seen[id]; dup {
			return invalidf("duplicate node id %s", id)
		}
		if strings.TrimSpace(node.Data.FeatureID) == "" {
			return invalidf("node %s: feature_id is required", id)
		}
		seen[id] = struct{}{}
	}
	for idx, edge := range g.Edges {
		if _, ok := seen[edge.Source]; !ok {
			return invalidf("edge[%d]: unknown source %q", idx, edge.Source)
		}
		if _, ok := seen[edge.Target]; !ok {
			return invalidf("edge[%d]: unknown target %q", idx, edge.Target)
		}
	}
	return nil
}

func (e Edge) String() string {
	if e.TargetHandle == nil {
		return fmt.Sprintf("%s -> %s", e.Source, e.Target)
	}
	return fmt.Sprintf("%s -> %s.%s", e.Source, e.Target, *e.TargetHandle)
}
