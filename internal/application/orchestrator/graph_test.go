package orchestrator

import (
	"errors"
	"testing"

	"github.com/aescanero/dagsys/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildGraph adds every role in deps and one edge per dependency.
func buildGraph(t *testing.T, deps map[domain.Role][]domain.Role) *DependencyGraph {
	t.Helper()
	g := NewDependencyGraph()
	for role := range deps {
		g.AddNode(role)
	}
	for role, ds := range deps {
		for _, d := range ds {
			require.NoError(t, g.AddEdge(d, role))
		}
	}
	return g
}

func TestAddNode(t *testing.T) {
	g := NewDependencyGraph()

	g.AddNode("a")
	assert.Len(t, g.nodes, 1)
	node, ok := g.nodes["a"]
	require.True(t, ok)
	assert.Equal(t, domain.Role("a"), node.role)

	g.AddNode("a")
	assert.Len(t, g.nodes, 1)
	assert.True(t, g.HasNode("a"))
	assert.False(t, g.HasNode("b"))
}

func TestAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := NewDependencyGraph()
		g.AddNode("a")
		g.AddNode("b")

		require.NoError(t, g.AddEdge("a", "b"))

		assert.Equal(t, []domain.Role{"a"}, g.PredecessorsOf("b"))
		assert.Equal(t, []domain.Role{"b"}, g.SuccessorsOf("a"))
		assert.Empty(t, g.PredecessorsOf("a"))
		assert.Nil(t, g.SuccessorsOf("missing"))
	})

	t.Run("error cases", func(t *testing.T) {
		g := NewDependencyGraph()
		g.AddNode("a")

		assert.ErrorContains(t, g.AddEdge("dne", "a"), "dependency node not found")
		assert.ErrorContains(t, g.AddEdge("a", "dne"), "dependent node not found")
	})
}

func TestLinearOrder(t *testing.T) {
	tests := []struct {
		name     string
		deps     map[domain.Role][]domain.Role
		expected []domain.Role
	}{
		{
			name:     "empty graph",
			deps:     map[domain.Role][]domain.Role{},
			expected: []domain.Role{},
		},
		{
			name: "independent roles are lexical",
			deps: map[domain.Role][]domain.Role{
				"z": nil, "x": nil, "y": nil,
			},
			expected: []domain.Role{"x", "y", "z"},
		},
		{
			name: "clock db web",
			deps: map[domain.Role][]domain.Role{
				"web":   {"db", "clock"},
				"db":    {"clock"},
				"clock": nil,
			},
			expected: []domain.Role{"clock", "db", "web"},
		},
		{
			name: "ready roles are taken in lexical order as they unlock",
			deps: map[domain.Role][]domain.Role{
				"a": {"z"},
				"b": nil,
				"z": nil,
			},
			expected: []domain.Role{"b", "z", "a"},
		},
		{
			name: "diamond",
			deps: map[domain.Role][]domain.Role{
				"top":   nil,
				"left":  {"top"},
				"right": {"top"},
				"base":  {"left", "right"},
			},
			expected: []domain.Role{"top", "left", "right", "base"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildGraph(t, tt.deps)

			order, err := g.LinearOrder()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, order)
		})
	}
}

func TestLinearOrderRespectsEveryEdge(t *testing.T) {
	deps := map[domain.Role][]domain.Role{
		"a": nil,
		"b": {"a"},
		"c": {"a"},
		"d": {"b", "c"},
		"e": {"d", "a"},
		"f": nil,
		"g": {"f", "e"},
	}
	g := buildGraph(t, deps)

	order, err := g.LinearOrder()
	require.NoError(t, err)
	require.Len(t, order, len(deps))

	pos := make(map[domain.Role]int)
	for i, r := range order {
		pos[r] = i
	}
	for role, ds := range deps {
		for _, d := range ds {
			assert.Less(t, pos[d], pos[role], "%s must precede %s", d, role)
		}
	}
}

func TestLevels(t *testing.T) {
	g := buildGraph(t, map[domain.Role][]domain.Role{
		"clock":  nil,
		"config": nil,
		"bus":    nil,
		"db":     {"clock"},
		"ticker": {"clock", "bus"},
		"web":    {"db", "bus"},
	})

	levels, err := g.Levels()
	require.NoError(t, err)
	assert.Equal(t, [][]domain.Role{
		{"bus", "clock", "config"},
		{"db", "ticker"},
		{"web"},
	}, levels)
}

func TestCycleDetection(t *testing.T) {
	tests := []struct {
		name  string
		deps  map[domain.Role][]domain.Role
		cycle []domain.Role
	}{
		{
			name:  "self dependency",
			deps:  map[domain.Role][]domain.Role{"a": {"a"}},
			cycle: []domain.Role{"a"},
		},
		{
			name: "two roles",
			deps: map[domain.Role][]domain.Role{
				"a": {"b"},
				"b": {"a"},
			},
			cycle: []domain.Role{"a", "b"},
		},
		{
			name: "three roles in edge order",
			deps: map[domain.Role][]domain.Role{
				"b": {"a"},
				"c": {"b"},
				"a": {"c"},
			},
			cycle: []domain.Role{"a", "b", "c"},
		},
		{
			name: "cycle behind a tail",
			deps: map[domain.Role][]domain.Role{
				"root": nil,
				"a":    {"root"},
				"m":    {"a", "n"},
				"n":    {"m"},
				"z":    {"n"},
			},
			cycle: []domain.Role{"m", "n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildGraph(t, tt.deps)

			_, err := g.LinearOrder()
			var cycErr *domain.CyclicDependencyError
			require.True(t, errors.As(err, &cycErr), "expected cycle error, got %v", err)
			assert.Equal(t, tt.cycle, cycErr.Cycle)

			_, err = g.Levels()
			require.True(t, errors.As(err, &cycErr))
			assert.Equal(t, tt.cycle, cycErr.Cycle)
		})
	}
}
