package graph

type tarjan struct {
	graph   *Graph
	index   int
	stack   []string
	onStack map[string]bool
	indices map[string]int
	lowlink map[string]int
	sccs    [][]string
}

// Cycles returns one closed path per strongly connected component that
// contains a cycle, e.g. [A B A]. Self references count.
func (g *Graph) Cycles() [][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	t := &tarjan{
		graph:   g,
		onStack: make(map[string]bool),
		indices: make(map[string]int),
		lowlink: make(map[string]int),
	}

	for _, id := range g.order {
		if _, visited := t.indices[id]; !visited {
			t.strongConnect(id)
		}
	}

	var cycles [][]string
	for _, scc := range t.sccs {
		if len(scc) == 1 && !g.selfLoop(scc[0]) {
			continue
		}
		if path := g.cyclePath(scc[len(scc)-1]); path != nil {
			cycles = append(cycles, path)
		}
	}
	return cycles
}

func (g *Graph) HasCycle() bool {
	return len(g.Cycles()) > 0
}

func (g *Graph) selfLoop(id string) bool {
	for _, e := range g.nodes[id].Edges {
		if e.To == id {
			return true
		}
	}
	return false
}

func (t *tarjan) strongConnect(id string) {
	t.indices[id] = t.index
	t.lowlink[id] = t.index
	t.index++
	t.stack = append(t.stack, id)
	t.onStack[id] = true

	for _, e := range t.graph.nodes[id].Edges {
		if _, exists := t.graph.nodes[e.To]; !exists {
			continue
		}

		if _, visited := t.indices[e.To]; !visited {
			t.strongConnect(e.To)
			t.lowlink[id] = min(t.lowlink[id], t.lowlink[e.To])
		} else if t.onStack[e.To] {
			t.lowlink[id] = min(t.lowlink[id], t.indices[e.To])
		}
	}

	if t.lowlink[id] == t.indices[id] {
		var scc []string
		for {
			n := len(t.stack) - 1
			w := t.stack[n]
			t.stack = t.stack[:n]
			t.onStack[w] = false
			scc = append(scc, w)
			if w == id {
				break
			}
		}
		t.sccs = append(t.sccs, scc)
	}
}

// cyclePath walks from start until it returns to a node on the current path.
// Callers hold the read lock.
func (g *Graph) cyclePath(start string) []string {
	visited := make(map[string]bool)
	inPath := make(map[string]bool)
	var path []string

	var dfs func(id string) []string
	dfs = func(id string) []string {
		if inPath[id] {
			for i, p := range path {
				if p == id {
					return append(append([]string(nil), path[i:]...), id)
				}
			}
		}
		if visited[id] {
			return nil
		}

		visited[id] = true
		inPath[id] = true
		path = append(path, id)

		for _, e := range g.nodes[id].Edges {
			if _, exists := g.nodes[e.To]; !exists {
				continue
			}
			if cycle := dfs(e.To); cycle != nil {
				return cycle
			}
		}

		path = path[:len(path)-1]
		inPath[id] = false
		return nil
	}

	return dfs(start)
}
