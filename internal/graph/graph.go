package graph

import "math"

// Currency is an opaque 3-letter currency code.
type Currency string

// Direction tells how a stored magnitude converts money along an edge.
type Direction uint8

const (
	// Forward: the rate was quoted in the edge's direction, amount *= magnitude.
	Forward Direction = iota
	// Reverse: the rate was quoted against the edge, amount *= 1/magnitude.
	Reverse
)

func (d Direction) String() string {
	if d == Forward {
		return "forward"
	}
	return "reverse"
}

// Rate is the value carried by one directed edge.
type Rate struct {
	Magnitude float64
	Direction Direction
}

// fromSigned decodes the feed's signed-ratio convention: negative values are
// direct multipliers, positive values are reciprocals.
func fromSigned(s float64) Rate {
	if s < 0 {
		return Rate{Magnitude: -s, Direction: Forward}
	}
	return Rate{Magnitude: s, Direction: Reverse}
}

// Factor is the multiplier applied to an amount converted along the edge.
func (r Rate) Factor() float64 {
	if r.Direction == Forward {
		return r.Magnitude
	}
	return 1 / r.Magnitude
}

// Weight is the additive log10 weight; a cycle of weights summing below zero
// multiplies money by more than one.
func (r Rate) Weight() float64 {
	if r.Direction == Forward {
		return -math.Log10(r.Magnitude)
	}
	return math.Log10(r.Magnitude)
}

type edge struct {
	to   int
	rate Rate
}

// Edge is a directed edge as exposed to callers.
type Edge struct {
	From, To Currency
	Rate     Rate
}

// Graph holds the current conversion edges. Vertices are arena indices in
// first-seen order so iteration is deterministic. Not safe for concurrent use.
type Graph struct {
	index map[Currency]int
	names []Currency
	adj   [][]edge
}

func New() *Graph {
	return &Graph{index: make(map[Currency]int)}
}

func (g *Graph) vertex(c Currency) int {
	if i, ok := g.index[c]; ok {
		return i
	}
	i := len(g.names)
	g.index[c] = i
	g.names = append(g.names, c)
	g.adj = append(g.adj, nil)
	return i
}

func (g *Graph) set(u, v int, r Rate) {
	for k := range g.adj[u] {
		if g.adj[u][k].to == v {
			g.adj[u][k].rate = r
			return
		}
	}
	g.adj[u] = append(g.adj[u], edge{to: v, rate: r})
}

func (g *Graph) unset(u, v int) bool {
	for k := range g.adj[u] {
		if g.adj[u][k].to == v {
			g.adj[u] = append(g.adj[u][:k], g.adj[u][k+1:]...)
			return true
		}
	}
	return false
}

// AddEdge installs both reciprocal edges for a quote of ratio between c1 and c2,
// overwriting any previous pair.
func (g *Graph) AddEdge(c1, c2 Currency, ratio float64) {
	u, v := g.vertex(c1), g.vertex(c2)
	g.set(u, v, fromSigned(-ratio))
	g.set(v, u, fromSigned(ratio))
}

// RemoveEdge drops both directions between c1 and c2 and reports whether
// the pair was present.
func (g *Graph) RemoveEdge(c1, c2 Currency) bool {
	u, ok1 := g.index[c1]
	v, ok2 := g.index[c2]
	if !ok1 || !ok2 {
		return false
	}
	a := g.unset(u, v)
	b := g.unset(v, u)
	return a || b
}

// Rate returns the directed rate c1->c2.
func (g *Graph) Rate(c1, c2 Currency) (Rate, bool) {
	u, ok1 := g.index[c1]
	v, ok2 := g.index[c2]
	if !ok1 || !ok2 {
		return Rate{}, false
	}
	for _, e := range g.adj[u] {
		if e.to == v {
			return e.rate, true
		}
	}
	return Rate{}, false
}

// Currencies lists vertices that currently have edges, in first-seen order.
func (g *Graph) Currencies() []Currency {
	out := make([]Currency, 0, len(g.names))
	for i, c := range g.names {
		if len(g.adj[i]) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// Len is the number of active vertices.
func (g *Graph) Len() int {
	n := 0
	for i := range g.adj {
		if len(g.adj[i]) > 0 {
			n++
		}
	}
	return n
}

// Edges lists every directed edge in vertex then insertion order.
func (g *Graph) Edges() []Edge {
	var out []Edge
	for u, es := range g.adj {
		for _, e := range es {
			out = append(out, Edge{From: g.names[u], To: g.names[e.to], Rate: e.rate})
		}
	}
	return out
}
