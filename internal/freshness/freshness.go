// Package freshness decides which quotes are applied to the rate graph and
// which installed pairs have gone stale.
package freshness

import (
	"errors"
	"sort"
	"time"

	"fxarb/internal/graph"
)

// DefaultWindow is how long an accepted quote stays usable.
const DefaultWindow = 1500 * time.Millisecond

var ErrOutOfSequence = errors.New("quote not newer than watermark")

// Pair is an unordered currency pair, stored with A <= B.
type Pair struct {
	A, B graph.Currency
}

func NewPair(c1, c2 graph.Currency) Pair {
	if c2 < c1 {
		c1, c2 = c2, c1
	}
	return Pair{A: c1, B: c2}
}

func (p Pair) String() string { return string(p.A) + "/" + string(p.B) }

// Manager tracks the global watermark and the last accepted time per pair.
// The watermark is shared by all pairs: a quote for one pair is refused when
// any pair has already been updated at or after its timestamp.
type Manager struct {
	window    time.Duration
	watermark time.Time
	records   map[Pair]time.Time
}

func New(window time.Duration) *Manager {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Manager{window: window, watermark: time.Unix(0, 0).UTC(), records: make(map[Pair]time.Time)}
}

// Accept records ts for the pair when it is strictly after the watermark.
func (m *Manager) Accept(ts time.Time, c1, c2 graph.Currency) error {
	if !ts.After(m.watermark) {
		return ErrOutOfSequence
	}
	m.watermark = ts
	m.records[NewPair(c1, c2)] = ts
	return nil
}

// Expired drops and returns every pair whose last update is older than the
// window at now. Callers must remove the pair's edges.
func (m *Manager) Expired(now time.Time) []Pair {
	var out []Pair
	for p, ts := range m.records {
		if now.Sub(ts) > m.window {
			out = append(out, p)
			delete(m.records, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

func (m *Manager) Watermark() time.Time { return m.watermark }

func (m *Manager) Window() time.Duration { return m.window }

// LastUpdate returns the last accepted time for the pair.
func (m *Manager) LastUpdate(c1, c2 graph.Currency) (time.Time, bool) {
	ts, ok := m.records[NewPair(c1, c2)]
	return ts, ok
}

func (m *Manager) Len() int { return len(m.records) }
