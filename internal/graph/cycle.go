package graph

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrNoPredecessor = errors.New("predecessor chain ends before closing a cycle")
	ErrCycleUnclosed = errors.New("predecessor chain does not return to its start")
	ErrMissingEdge   = errors.New("edge not in graph")

	// ErrNonFiniteAmount means a conversion overflowed or underflowed the
	// float64 range, so the trail cannot be reported.
	ErrNonFiniteAmount = errors.New("conversion amount left the float64 range")
)

// Leg is one conversion step of a cycle.
type Leg struct {
	From, To Currency
	Factor   float64
	Amount   float64 // amount of To held after the step
}

// ExtractCycle walks predecessors back from the tail of a relaxable edge until
// the walk returns to it. The result reads in the direction money flows and
// starts and ends with the same currency.
func ExtractCycle(p Paths, ne NegativeEdge) ([]Currency, error) {
	if p.g == nil {
		return nil, fmt.Errorf("%s: %w", ne.From, ErrNoPredecessor)
	}
	start, ok := p.g.index[ne.From]
	if !ok || start >= len(p.pred) {
		return nil, fmt.Errorf("%s: %w", ne.From, ErrNoPredecessor)
	}
	limit := p.size + 1
	walk := make([]int, 0, limit)
	v := start
	for {
		walk = append(walk, v)
		if len(walk) > 1 && v == start {
			break
		}
		if len(walk) > limit {
			return nil, fmt.Errorf("%s after %d steps: %w", ne.From, len(walk)-1, ErrCycleUnclosed)
		}
		if p.pred[v] == noPred {
			return nil, fmt.Errorf("%s at %s: %w", ne.From, p.g.names[v], ErrNoPredecessor)
		}
		v = p.pred[v]
	}

	cycle := make([]Currency, len(walk))
	for i, idx := range walk {
		cycle[len(walk)-1-i] = p.g.names[idx]
	}
	return cycle, nil
}

// Convert simulates converting amount of cycle[0] along the cycle using the
// current rates and returns every leg plus the final amount.
func (g *Graph) Convert(cycle []Currency, amount float64) ([]Leg, float64, error) {
	legs := make([]Leg, 0, len(cycle))
	for i := 0; i+1 < len(cycle); i++ {
		r, ok := g.Rate(cycle[i], cycle[i+1])
		if !ok {
			return nil, 0, fmt.Errorf("%s->%s: %w", cycle[i], cycle[i+1], ErrMissingEdge)
		}
		f := r.Factor()
		amount *= f
		if math.IsInf(f, 0) || math.IsNaN(f) || math.IsInf(amount, 0) || math.IsNaN(amount) || amount == 0 {
			return nil, 0, fmt.Errorf("%s->%s: %w", cycle[i], cycle[i+1], ErrNonFiniteAmount)
		}
		legs = append(legs, Leg{From: cycle[i], To: cycle[i+1], Factor: f, Amount: amount})
	}
	return legs, amount, nil
}
