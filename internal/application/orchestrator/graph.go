package orchestrator

import (
	"fmt"
	"sort"

	"github.com/aescanero/dagsys/pkg/domain"
)

// DependencyGraph is a directed graph over roles. An edge goes from a
// dependency to its dependent. It is not safe for concurrent writes; the
// System builds it once during construction.
type DependencyGraph struct {
	nodes map[domain.Role]*graphNode
}

type graphNode struct {
	role       domain.Role
	deps       map[domain.Role]*graphNode
	dependents map[domain.Role]*graphNode
}

// NewDependencyGraph returns an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{nodes: make(map[domain.Role]*graphNode)}
}

// AddNode adds role to the graph. Adding an existing role is a no-op.
func (g *DependencyGraph) AddNode(role domain.Role) {
	if _, ok := g.nodes[role]; ok {
		return
	}
	g.nodes[role] = &graphNode{
		role:       role,
		deps:       make(map[domain.Role]*graphNode),
		dependents: make(map[domain.Role]*graphNode),
	}
}

// AddEdge records that dependent depends on dependency. Both roles must
// already be nodes. A self edge is accepted and reported as a cycle by
// LinearOrder.
func (g *DependencyGraph) AddEdge(dependency, dependent domain.Role) error {
	from, ok := g.nodes[dependency]
	if !ok {
		return fmt.Errorf("dependency node not found: %s", dependency)
	}
	to, ok := g.nodes[dependent]
	if !ok {
		return fmt.Errorf("dependent node not found: %s", dependent)
	}
	to.deps[dependency] = from
	from.dependents[dependent] = to
	return nil
}

// HasNode reports whether role is in the graph.
func (g *DependencyGraph) HasNode(role domain.Role) bool {
	_, ok := g.nodes[role]
	return ok
}

// PredecessorsOf returns the direct dependencies of role in lexical order.
func (g *DependencyGraph) PredecessorsOf(role domain.Role) []domain.Role {
	n, ok := g.nodes[role]
	if !ok {
		return nil
	}
	return sortedKeys(n.deps)
}

// SuccessorsOf returns the direct dependents of role in lexical order.
func (g *DependencyGraph) SuccessorsOf(role domain.Role) []domain.Role {
	n, ok := g.nodes[role]
	if !ok {
		return nil
	}
	return sortedKeys(n.dependents)
}

// LinearOrder returns a topological order of all roles. Among roles that are
// ready at the same time the lexically smallest goes first, so the result is
// deterministic. A cycle yields *domain.CyclicDependencyError.
func (g *DependencyGraph) LinearOrder() ([]domain.Role, error) {
	inDegree := make(map[domain.Role]int, len(g.nodes))
	for role, n := range g.nodes {
		inDegree[role] = len(n.deps)
	}

	var ready []domain.Role
	for role, d := range inDegree {
		if d == 0 {
			ready = append(ready, role)
		}
	}
	sortRoles(ready)

	order := make([]domain.Role, 0, len(g.nodes))
	for len(ready) > 0 {
		role := ready[0]
		ready = ready[1:]
		order = append(order, role)

		for _, next := range sortedKeys(g.nodes[role].dependents) {
			inDegree[next]--
			if inDegree[next] == 0 {
				ready = insertSorted(ready, next)
			}
		}
	}

	if len(order) != len(g.nodes) {
		unresolved := make(map[domain.Role]int)
		for role, d := range inDegree {
			if d > 0 {
				unresolved[role] = d
			}
		}
		return nil, &domain.CyclicDependencyError{Cycle: g.findCycle(unresolved)}
	}
	return order, nil
}

// Levels groups roles so that every role's dependencies lie in strictly
// earlier levels. Roles within a level are in lexical order.
func (g *DependencyGraph) Levels() ([][]domain.Role, error) {
	remaining := make(map[domain.Role]int, len(g.nodes))
	for role, n := range g.nodes {
		remaining[role] = len(n.deps)
	}

	var levels [][]domain.Role
	for len(remaining) > 0 {
		var level []domain.Role
		for role, d := range remaining {
			if d == 0 {
				level = append(level, role)
			}
		}
		if len(level) == 0 {
			return nil, &domain.CyclicDependencyError{Cycle: g.findCycle(remaining)}
		}
		sortRoles(level)

		for _, role := range level {
			delete(remaining, role)
		}
		for _, role := range level {
			for next := range g.nodes[role].dependents {
				if _, ok := remaining[next]; ok {
					remaining[next]--
				}
			}
		}
		levels = append(levels, level)
	}
	return levels, nil
}

// findCycle walks predecessors inside the unresolved set until a role
// repeats. Every unresolved role has an unresolved predecessor, so the walk
// always closes a cycle. The cycle is returned in edge order starting at its
// lexically smallest role.
func (g *DependencyGraph) findCycle(unresolved map[domain.Role]int) []domain.Role {
	candidates := make([]domain.Role, 0, len(unresolved))
	for role := range unresolved {
		candidates = append(candidates, role)
	}
	sortRoles(candidates)

	seen := make(map[domain.Role]int)
	var path []domain.Role
	current := candidates[0]
	for {
		if idx, ok := seen[current]; ok {
			path = path[idx:]
			break
		}
		seen[current] = len(path)
		path = append(path, current)

		for _, pred := range sortedKeys(g.nodes[current].deps) {
			if _, ok := unresolved[pred]; ok {
				current = pred
				break
			}
		}
	}

	// path runs dependent -> dependency; flip it to dependency -> dependent.
	cycle := make([]domain.Role, len(path))
	for i, r := range path {
		cycle[len(path)-1-i] = r
	}

	start := 0
	for i, r := range cycle {
		if r < cycle[start] {
			start = i
		}
	}
	rotated := make([]domain.Role, 0, len(cycle))
	rotated = append(rotated, cycle[start:]...)
	return append(rotated, cycle[:start]...)
}

func sortedKeys(m map[domain.Role]*graphNode) []domain.Role {
	out := make([]domain.Role, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sortRoles(out)
	return out
}

func sortRoles(roles []domain.Role) {
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
}

func insertSorted(roles []domain.Role, role domain.Role) []domain.Role {
	i := sort.Search(len(roles), func(i int) bool { return roles[i] >= role })
	roles = append(roles, "")
	copy(roles[i+1:], roles[i:])
	roles[i] = role
	return roles
}
