package graph

import "math"

// DefaultTolerance is the minimum improvement a relaxation must bring before
// it is adopted. Smaller gains are treated as floating-point noise.
const DefaultTolerance = 1e-12

const noPred = -1

// Paths is the outcome of one shortest-path run from a single source.
type Paths struct {
	g      *Graph
	source int
	size   int
	dist   []float64
	pred   []int
}

// NegativeEdge is an edge still relaxable after convergence: From->To lies on
// or leads into a negative cycle.
type NegativeEdge struct {
	From, To Currency
}

// ShortestPaths runs Bellman-Ford from source over the log-weighted graph.
// An update is adopted only if it improves the distance by at least tolerance.
// After |V|-1 passes one ungated pass looks for a still-relaxable edge; the
// first one found is returned with ok=true.
func (g *Graph) ShortestPaths(source Currency, tolerance float64) (Paths, NegativeEdge, bool) {
	n := len(g.names)
	p := Paths{g: g, source: noPred, size: g.Len(), dist: make([]float64, n), pred: make([]int, n)}
	for i := range p.dist {
		p.dist[i] = math.Inf(1)
		p.pred[i] = noPred
	}
	s, ok := g.index[source]
	if !ok || len(g.adj[s]) == 0 {
		return p, NegativeEdge{}, false
	}
	p.source = s
	p.dist[s] = 0

	for pass := 0; pass < p.size-1; pass++ {
		for u, es := range g.adj {
			if math.IsInf(p.dist[u], 1) {
				continue
			}
			for _, e := range es {
				d := p.dist[u] + e.rate.Weight()
				if d < p.dist[e.to] && p.dist[e.to]-d >= tolerance {
					p.dist[e.to] = d
					p.pred[e.to] = u
				}
			}
		}
	}

	for u, es := range g.adj {
		if math.IsInf(p.dist[u], 1) {
			continue
		}
		for _, e := range es {
			if p.dist[u]+e.rate.Weight() < p.dist[e.to] {
				return p, NegativeEdge{From: g.names[u], To: g.names[e.to]}, true
			}
		}
	}
	return p, NegativeEdge{}, false
}
