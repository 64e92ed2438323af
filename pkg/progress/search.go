package progress

import (
	"container/heap"

	"github.com/dd0wney/episignal/pkg/graph"
	"github.com/dd0wney/episignal/pkg/signal"
	"github.com/dd0wney/episignal/pkg/timedmap"
)

// frontierItem is one entry in the transient priority queue used by the
// event-scoped searches. tainted marks a path that has passed through a
// removed node: such a path may still shorten removed-node distances
// but can never serve a susceptible node, whose distance is restricted
// to susceptible-only intermediates.
type frontierItem struct {
	node    graph.Node
	dist    float64
	tainted bool
}

// frontier is a min-heap ordered by distance, with node id breaking
// ties so that equal-length paths are claimed deterministically.
type frontier []frontierItem

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	if f[i].dist != f[j].dist {
		return f[i].dist < f[j].dist
	}
	return f[i].node < f[j].node
}

func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x any) { *f = append(*f, x.(frontierItem)) }

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	it := old[n-1]
	*f = old[:n-1]
	return it
}

// relaxFrom runs the pruned single-source relaxation from a newly
// infected node s over the current signal values. Only nodes whose
// distance strictly improves are updated and re-expanded, which bounds
// the work to the region the infection actually changed. Equal-distance
// proposals never reassign a boundary: the first assignment wins.
//
// Returns the number of nodes visited, for metrics.
func (p *Generator) relaxFrom(view *timedmap.View[graph.Node, float64], s graph.Node) int {
	g := p.Network()

	// visited states, kept separately per taint: an untainted visit
	// covers a tainted one, but a tainted visit must not suppress a
	// later untainted pass over the same node
	visitedU := make(map[graph.Node]struct{})
	visitedT := make(map[graph.Node]struct{})

	pq := &frontier{{node: s, dist: 0, tainted: false}}
	heap.Init(pq)
	visits := 0

	for pq.Len() > 0 {
		it := heap.Pop(pq).(frontierItem)
		n := it.node
		if it.tainted {
			if _, ok := visitedT[n]; ok {
				continue
			}
			visitedT[n] = struct{}{}
		} else {
			if _, ok := visitedU[n]; ok {
				continue
			}
			visitedU[n] = struct{}{}
			visitedT[n] = struct{}{}
		}
		visits++

		d := it.dist + 1
		for _, m := range g.Neighbors(n) {
			switch p.compartment[m] {
			case signal.Susceptible:
				cur := view.GetDefault(m, p.inf)
				if !it.tainted && d < cur {
					view.Set(m, d)
					p.setBoundary(m, s, p.coboundaryS)
					heap.Push(pq, frontierItem{node: m, dist: d, tainted: false})
				} else if it.tainted && d < cur {
					// a path through removed nodes cannot serve a
					// susceptible node, but may pass through it on the
					// way to further removed nodes
					heap.Push(pq, frontierItem{node: m, dist: d, tainted: true})
				}
				// d >= cur: prune, nothing downstream can improve

			case signal.Removed:
				cur := view.GetDefault(m, -p.inf)
				if -d > cur {
					view.Set(m, -d)
					p.setBoundary(m, s, p.coboundaryR)
					heap.Push(pq, frontierItem{node: m, dist: d, tainted: true})
				}

			default:
				// infected: distance zero, prune
			}
		}
	}
	return visits
}

// setBoundary points q's boundary at the infected node s, unlinking q
// from its previous owner's coboundary in the given index first.
func (p *Generator) setBoundary(q, s graph.Node, coboundary map[graph.Node]map[graph.Node]struct{}) {
	if old, ok := p.boundary[q]; ok {
		delete(coboundary[old], q)
	}
	p.boundary[q] = s
	coboundary[s][q] = struct{}{}
}

// nearestInfected finds the closest infected node to `from`, traversing
// only intermediate nodes whose compartment is in `through`. Returns
// the infected node found, the hop distance, whether any was found, and
// the number of nodes visited.
func (p *Generator) nearestInfected(from graph.Node, through ...signal.Compartment) (graph.Node, float64, bool, int) {
	g := p.Network()
	allowed := make(map[signal.Compartment]struct{}, len(through))
	for _, c := range through {
		allowed[c] = struct{}{}
	}

	visited := map[graph.Node]struct{}{from: {}}
	pq := &frontier{{node: from, dist: 0}}
	heap.Init(pq)
	visits := 0

	for pq.Len() > 0 {
		it := heap.Pop(pq).(frontierItem)
		visits++
		d := it.dist + 1
		for _, m := range g.Neighbors(it.node) {
			if _, ok := visited[m]; ok {
				continue
			}
			if p.compartment[m] == signal.Infected {
				return m, d, true, visits
			}
			visited[m] = struct{}{}
			if _, ok := allowed[p.compartment[m]]; ok {
				heap.Push(pq, frontierItem{node: m, dist: d})
			}
		}
	}
	return 0, 0, false, visits
}
