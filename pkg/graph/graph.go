package graph

import "sort"

// Node identifies a node in a graph. Nodes are opaque to the signal
// machinery: they are only ever used as map keys.
type Node uint64

// Graph is the read-only view of a network that the signal machinery
// consumes. Implementations are never mutated by signal generators.
type Graph interface {
	// Order returns the number of nodes in the graph
	Order() int
	// Nodes returns all nodes in the graph
	Nodes() []Node
	// Neighbors returns the nodes adjacent to n
	Neighbors(n Node) []Node
}

// Undirected is an in-memory undirected graph backed by adjacency lists.
type Undirected struct {
	adj map[Node][]Node
}

// NewUndirected creates an empty undirected graph
func NewUndirected() *Undirected {
	return &Undirected{adj: make(map[Node][]Node)}
}

// AddNode adds a node with no edges. Adding an existing node is a no-op.
func (g *Undirected) AddNode(n Node) {
	if _, ok := g.adj[n]; !ok {
		g.adj[n] = nil
	}
}

// AddEdge adds an undirected edge between m and n, creating either
// endpoint if needed. Parallel edges and self-loops are ignored.
func (g *Undirected) AddEdge(m, n Node) {
	if m == n {
		return
	}
	g.AddNode(m)
	g.AddNode(n)
	for _, q := range g.adj[m] {
		if q == n {
			return
		}
	}
	g.adj[m] = append(g.adj[m], n)
	g.adj[n] = append(g.adj[n], m)
}

// HasNode reports whether n is in the graph
func (g *Undirected) HasNode(n Node) bool {
	_, ok := g.adj[n]
	return ok
}

// HasEdge reports whether an edge between m and n exists
func (g *Undirected) HasEdge(m, n Node) bool {
	for _, q := range g.adj[m] {
		if q == n {
			return true
		}
	}
	return false
}

// Order returns the number of nodes
func (g *Undirected) Order() int {
	return len(g.adj)
}

// Size returns the number of edges
func (g *Undirected) Size() int {
	degrees := 0
	for _, ns := range g.adj {
		degrees += len(ns)
	}
	return degrees / 2
}

// Nodes returns all nodes in ascending order
func (g *Undirected) Nodes() []Node {
	ns := make([]Node, 0, len(g.adj))
	for n := range g.adj {
		ns = append(ns, n)
	}
	sort.Slice(ns, func(i, j int) bool { return ns[i] < ns[j] })
	return ns
}

// Neighbors returns the nodes adjacent to n
func (g *Undirected) Neighbors(n Node) []Node {
	return g.adj[n]
}

var _ Graph = (*Undirected)(nil)
