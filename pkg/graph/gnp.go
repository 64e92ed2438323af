package graph

import "math/rand"

// GNP builds an Erdos-Renyi random graph with n nodes where each of the
// n(n-1)/2 possible edges is present independently with probability p.
// Nodes are numbered 1..n. Used mainly by soak tests and simulated
// scenarios that need a workload graph.
func GNP(n int, p float64, rng *rand.Rand) *Undirected {
	g := NewUndirected()
	for i := 1; i <= n; i++ {
		g.AddNode(Node(i))
	}
	for i := 1; i <= n; i++ {
		for j := i + 1; j <= n; j++ {
			if rng.Float64() < p {
				g.AddEdge(Node(i), Node(j))
			}
		}
	}
	return g
}
