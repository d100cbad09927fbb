package engine

import (
	"errors"
	"sort"
)

// ErrCircularDependency is returned when a circular dependency is detected.
var ErrCircularDependency = errors.New("circular dependency detected")

// DependencyNode represents a node with dependencies for topological sorting.
type DependencyNode interface {
	ID() string
	Dependencies() []string
}

// TopoSort performs topological sort using Kahn's algorithm.
// Returns nodes ordered so that dependencies come before dependents; ties are
// broken by ID, so the order is deterministic. Dependencies outside the node
// set and dependencies of a node on itself are ignored.
// Returns ErrCircularDependency if a cycle is detected.
func TopoSort[T DependencyNode](nodes []T) ([]T, error) {
	if len(nodes) == 0 {
		return nil, nil
	}

	nodeMap := make(map[string]T, len(nodes))
	inDegree := make(map[string]int, len(nodes))
	for _, n := range nodes {
		nodeMap[n.ID()] = n
		inDegree[n.ID()] = 0
	}

	// dependents[a] lists the nodes waiting on a.
	dependents := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		id := n.ID()
		seen := make(map[string]bool)
		for _, dep := range n.Dependencies() {
			if dep == id || seen[dep] {
				continue
			}
			if _, ok := nodeMap[dep]; !ok {
				continue
			}
			seen[dep] = true
			inDegree[id]++
			dependents[dep] = append(dependents[dep], id)
		}
	}

	var queue []string
	for id, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	result := make([]T, 0, len(nodeMap))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		result = append(result, nodeMap[id])

		released := false
		for _, other := range dependents[id] {
			inDegree[other]--
			if inDegree[other] == 0 {
				queue = append(queue, other)
				released = true
			}
		}
		if released {
			sort.Strings(queue) // keep sorted for determinism
		}
	}

	if len(result) != len(nodeMap) {
		return nil, ErrCircularDependency
	}

	return result, nil
}
