package arbitrage

import (
	"time"

	"fxarb/internal/freshness"
	"fxarb/internal/graph"
	"fxarb/internal/infra/metrics"
)

// Snapshot is an immutable copy of engine state taken at the end of a step.
type Snapshot struct {
	At              time.Time
	Watermark       time.Time
	StaleAfter      time.Duration
	Currencies      []graph.Currency
	Edges           []graph.Edge
	Updated         map[freshness.Pair]time.Time // last accepted quote per live pair
	Pairs           int
	Accepted        int
	Rejected        int
	Evicted         int
	LastOpportunity *Opportunity
}

func (e *Engine) publish(now time.Time) {
	s := &Snapshot{
		At:         now,
		Watermark:  e.fresh.Watermark(),
		StaleAfter: e.fresh.Window(),
		Currencies: e.graph.Currencies(),
		Edges:      e.graph.Edges(),
		Pairs:      e.fresh.Len(),
		Accepted:   e.accepted,
		Rejected:   e.rejected,
		Evicted:    e.evicted,
		Updated:    make(map[freshness.Pair]time.Time, e.fresh.Len()),
	}
	for _, edge := range s.Edges {
		if ts, ok := e.fresh.LastUpdate(edge.From, edge.To); ok {
			s.Updated[freshness.NewPair(edge.From, edge.To)] = ts
		}
	}
	if e.last != nil {
		op := *e.last
		s.LastOpportunity = &op
	}
	metrics.GraphCurrencies.Set(float64(len(s.Currencies)))
	metrics.GraphEdges.Set(float64(len(s.Edges)))
	e.snap.Store(s)
}

// Snapshot returns the latest published state. Safe for concurrent use.
func (e *Engine) Snapshot() *Snapshot { return e.snap.Load() }
