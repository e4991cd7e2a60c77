package graph

import (
	"errors"
	"slices"
	"testing"
)

func deps(ids ...string) []Edge {
	edges := make([]Edge, len(ids))
	for i, id := range ids {
		edges[i] = Edge{To: id}
	}
	return edges
}

func TestGraph_AddNode(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("A", "service A", deps("B", "C"))

	if !g.HasNode("A") {
		t.Error("node A should exist")
	}
	if got := g.Label("A"); got != "service A" {
		t.Errorf("expected label, got %q", got)
	}
	if got := g.Label("B"); got != "B" {
		t.Errorf("unknown node label should fall back to id, got %q", got)
	}
	if d := g.Dependencies("A"); len(d) != 2 {
		t.Errorf("expected 2 dependencies, got %d", len(d))
	}
}

func TestGraph_AddNodeMergesEdges(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("A", "", deps("B"))
	g.AddNode("A", "", deps("B", "C"))

	if d := g.Dependencies("A"); !slices.Equal(d, []string{"B", "C"}) {
		t.Errorf("expected merged edges [B C], got %v", d)
	}
	if g.Size() != 1 {
		t.Errorf("expected 1 node, got %d", g.Size())
	}
}

func TestGraph_Dependents(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("A", "", deps("C"))
	g.AddNode("B", "", deps("C"))
	g.AddNode("C", "", nil)

	if d := g.Dependents("C"); !slices.Equal(d, []string{"A", "B"}) {
		t.Errorf("expected dependents [A B], got %v", d)
	}
	if !slices.Equal(g.Nodes(), []string{"A", "B", "C"}) {
		t.Errorf("nodes should keep insertion order, got %v", g.Nodes())
	}
}

func TestGraph_Missing(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("A", "", []Edge{{To: "B"}, {To: "C"}, {To: "D", Optional: true}, {To: "E"}})
	g.AddNode("B", "", nil)

	missing := g.Missing(func(id string) bool { return id == "E" })
	if len(missing) != 1 || missing[0] != (Missing{From: "A", To: "C"}) {
		t.Errorf("expected missing A -> C, got %v", missing)
	}
}

func TestGraph_Cycles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		build  func(g *Graph)
		cycles int
	}{
		{
			name: "none",
			build: func(g *Graph) {
				g.AddNode("A", "", deps("B"))
				g.AddNode("B", "", deps("C"))
				g.AddNode("C", "", nil)
			},
		},
		{
			name: "simple",
			build: func(g *Graph) {
				g.AddNode("A", "", deps("B"))
				g.AddNode("B", "", deps("A"))
			},
			cycles: 1,
		},
		{
			name: "self",
			build: func(g *Graph) {
				g.AddNode("A", "", deps("A"))
			},
			cycles: 1,
		},
		{
			name: "tail into loop",
			build: func(g *Graph) {
				g.AddNode("A", "", deps("B"))
				g.AddNode("B", "", deps("C"))
				g.AddNode("C", "", deps("D"))
				g.AddNode("D", "", deps("B"))
			},
			cycles: 1,
		},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				t.Parallel()

				g := New()
				tt.build(g)

				cycles := g.Cycles()
				if len(cycles) != tt.cycles {
					t.Fatalf("expected %d cycles, got %v", tt.cycles, cycles)
				}
				for _, c := range cycles {
					if c[0] != c[len(c)-1] {
						t.Errorf("cycle path should start and end with same node: %v", c)
					}
				}
				if g.HasCycle() != (tt.cycles > 0) {
					t.Error("HasCycle disagrees with Cycles")
				}
			},
		)
	}
}

func TestGraph_TopologicalSort(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("A", "", deps("B", "C"))
	g.AddNode("B", "", deps("D"))
	g.AddNode("C", "", deps("D"))
	g.AddNode("D", "", nil)

	sorted, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !slices.Equal(sorted, []string{"D", "B", "C", "A"}) {
		t.Errorf("unexpected order %v", sorted)
	}
}

func TestGraph_TopologicalSortCycle(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("A", "", deps("B"))
	g.AddNode("B", "", deps("A"))

	if _, err := g.TopologicalSort(); !errors.Is(err, ErrCycleDetected) {
		t.Errorf("expected ErrCycleDetected, got %v", err)
	}
}
