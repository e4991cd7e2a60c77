// Package graph models the static dependency graph between services: which
// service a binding needs, whether that need is optional, and what follows
// from it (missing services, cycles, construction order).
package graph

import (
	"slices"
	"sync"
)

type Edge struct {
	To       string
	Optional bool
}

type Node struct {
	ID    string
	Label string
	Edges []Edge
}

type Graph struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	order []string
}

func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
	}
}

// AddNode inserts or merges a node. Merging appends edges not already
// present, since several bindings may serve the same service.
func (g *Graph) AddNode(id, label string, edges []Edge) {
	g.mu.Lock()
	defer g.mu.Unlock()

	node, exists := g.nodes[id]
	if !exists {
		node = &Node{ID: id, Label: label}
		g.nodes[id] = node
		g.order = append(g.order, id)
	}
	for _, e := range edges {
		if !slices.ContainsFunc(node.Edges, func(x Edge) bool { return x.To == e.To }) {
			node.Edges = append(node.Edges, e)
		}
	}
}

func (g *Graph) HasNode(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, exists := g.nodes[id]
	return exists
}

func (g *Graph) Label(id string) string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if node, ok := g.nodes[id]; ok && node.Label != "" {
		return node.Label
	}
	return id
}

func (g *Graph) Dependencies(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, exists := g.nodes[id]
	if !exists {
		return nil
	}

	deps := make([]string, len(node.Edges))
	for i, e := range node.Edges {
		deps[i] = e.To
	}
	return deps
}

func (g *Graph) Dependents(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var dependents []string
	for _, nodeID := range g.order {
		for _, e := range g.nodes[nodeID].Edges {
			if e.To == id {
				dependents = append(dependents, nodeID)
				break
			}
		}
	}
	return dependents
}

// Nodes returns node ids in insertion order.
func (g *Graph) Nodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return slices.Clone(g.order)
}

func (g *Graph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.nodes)
}

type Missing struct {
	From string
	To   string
}

// Missing lists required edges whose target is neither a node nor accepted
// by resolvable. resolvable may be nil.
func (g *Graph) Missing(resolvable func(id string) bool) []Missing {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var missing []Missing
	for _, id := range g.order {
		for _, e := range g.nodes[id].Edges {
			if e.Optional {
				continue
			}
			if _, exists := g.nodes[e.To]; exists {
				continue
			}
			if resolvable != nil && resolvable(e.To) {
				continue
			}
			missing = append(missing, Missing{From: id, To: e.To})
		}
	}
	return missing
}
