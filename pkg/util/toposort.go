package util

import (
	"errors"
	"fmt"
	"sort"
)

// ErrCycle indicates a dependency graph that cannot be ordered.
var ErrCycle = errors.New("dependency cycle detected")

// TopologicalTranches orders the vertices of a directed graph into
// tranches. Every vertex in a tranche depends only on vertices in
// earlier tranches, so all members of a tranche may run concurrently.
// Within a tranche, vertices are sorted so the overall order is stable.
//
// forward maps each vertex to its successors. Vertices that appear only
// as successors are included.
func TopologicalTranches(forward map[string][]string) ([][]string, error) {
	indegree := make(map[string]int)
	for vertex := range forward {
		if _, ok := indegree[vertex]; !ok {
			indegree[vertex] = 0
		}
	}
	for _, successors := range forward {
		for _, successor := range successors {
			indegree[successor]++
		}
	}

	var ready []string
	for vertex, degree := range indegree {
		if degree == 0 {
			ready = append(ready, vertex)
		}
	}
	sort.Strings(ready)

	var tranches [][]string
	scheduled := 0
	for len(ready) > 0 {
		tranche := ready
		tranches = append(tranches, tranche)
		scheduled += len(tranche)

		ready = nil
		for _, vertex := range tranche {
			for _, successor := range forward[vertex] {
				indegree[successor]--
				if indegree[successor] == 0 {
					ready = append(ready, successor)
				}
			}
		}
		sort.Strings(ready)
	}

	if scheduled != len(indegree) {
		var stuck []string
		for vertex, degree := range indegree {
			if degree > 0 {
				stuck = append(stuck, vertex)
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("%w: involving %v", ErrCycle, stuck)
	}
	return tranches, nil
}
