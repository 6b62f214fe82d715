package graph

import "sort"

// Compile validates the graph and returns its execution order. Independent
// nodes are ordered by declaration so the same graph always yields the same
// order.
func Compile(g Graph) ([]string, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	index := make(map[string]int, len(g.Nodes))
	for i, node := range g.Nodes {
		index[node.ID] = i
	}
	indegree := make([]int, len(g.Nodes))
	dependents := make([][]int, len(g.Nodes))
	for _, edge := range g.Edges {
		src, dst := index[edge.Source], index[edge.Target]
		dependents[src] = append(dependents[src], dst)
		indegree[dst]++
	}

	ready := make([]int, 0, len(g.Nodes))
	for i := range g.Nodes {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}
	order := make([]string, 0, len(g.Nodes))
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		order = append(order, g.Nodes[next].ID)
		for _, dep := range dependents[next] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = insertSorted(ready, dep)
			}
		}
	}
	if len(order) != len(g.Nodes) {
		var stuck []string
		for i, node := range g.Nodes {
			if indegree[i] > 0 {
				stuck = append(stuck, node.ID)
			}
		}
		return nil, &CyclicGraphError{Nodes: stuck}
	}
	return order, nil
}

func insertSorted(values []int, v int) []int {
	pos := sort.SearchInts(values, v)
	values = append(values, 0)
	copy(values[pos+1:], values[pos:])
	values[pos] = v
	return values
}
