// Package graph models the builder's workflow graph wire format and compiles
// it into a deterministic execution order. Compilation rejects structurally
// broken graphs and graphs containing a directed cycle; nothing downstream
// ever sees an order that violates an edge.
package graph
