package strategy

import (
	"sort"
	"strings"
)

// orderStrategies computes a topological order over the declared
// before/after edges. Ties are broken by strategy identifier so the order
// is deterministic. Edges naming strategies outside the set are ignored.
// A cycle fails with ConfigurationError.
func orderStrategies(set []Strategy) ([]Strategy, error) {
	byID := make(map[string]Strategy, len(set))
	for _, s := range set {
		if _, dup := byID[s.ID()]; dup {
			return nil, configErrorf("strategy %q appears twice in the set", s.ID())
		}
		byID[s.ID()] = s
	}

	// succ[a] contains b when a must run before b.
	succ := make(map[string]map[string]bool, len(set))
	indegree := make(map[string]int, len(set))
	for id := range byID {
		succ[id] = make(map[string]bool)
		indegree[id] = 0
	}
	addEdge := func(from, to string) {
		if from == to {
			return
		}
		if _, ok := byID[from]; !ok {
			return
		}
		if _, ok := byID[to]; !ok {
			return
		}
		if !succ[from][to] {
			succ[from][to] = true
			indegree[to]++
		}
	}
	for id, s := range byID {
		for _, later := range s.Before() {
			addEdge(id, later)
		}
		for _, earlier := range s.After() {
			addEdge(earlier, id)
		}
	}

	var available []string
	for id, deg := range indegree {
		if deg == 0 {
			available = append(available, id)
		}
	}
	sort.Strings(available)

	ordered := make([]Strategy, 0, len(set))
	for len(available) > 0 {
		id := available[0]
		available = available[1:]
		ordered = append(ordered, byID[id])
		var freed []string
		for to := range succ[id] {
			indegree[to]--
			if indegree[to] == 0 {
				freed = append(freed, to)
			}
		}
		if len(freed) > 0 {
			available = append(available, freed...)
			sort.Strings(available)
		}
	}

	if len(ordered) != len(set) {
		var stuck []string
		for id, deg := range indegree {
			if deg > 0 {
				stuck = append(stuck, id)
			}
		}
		sort.Strings(stuck)
		return nil, configErrorf("cyclic strategy ordering among %s", strings.Join(stuck, ", "))
	}
	return ordered, nil
}
