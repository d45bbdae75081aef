package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"fxarb/internal/arbitrage"
	"fxarb/internal/freshness"
	"fxarb/internal/report"

	"github.com/shopspring/decimal"
)

// SnapshotSource is satisfied by *arbitrage.Engine.
type SnapshotSource interface {
	Snapshot() *arbitrage.Snapshot
}

type Server struct {
	mux *http.ServeMux
	src SnapshotSource
}

func New(src SnapshotSource) *Server {
	s := &Server{mux: http.NewServeMux(), src: src}
	s.mux.HandleFunc("/status", s.status)
	s.mux.HandleFunc("/opportunities/last", s.lastOpportunity)
	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

type edgeView struct {
	From      string          `json:"from"`
	To        string          `json:"to"`
	Rate      decimal.Decimal `json:"rate"`
	Direction string          `json:"direction"`
	Weight    float64         `json:"weight"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type statusView struct {
	At         time.Time  `json:"at"`
	Watermark  time.Time  `json:"watermark"`
	StaleAfter int64      `json:"stale_after_ms"`
	Currencies []string   `json:"currencies"`
	Pairs      int        `json:"pairs"`
	Accepted   int        `json:"quotes_accepted"`
	Rejected   int        `json:"quotes_rejected"`
	Evicted    int        `json:"pairs_evicted"`
	Edges      []edgeView `json:"edges"`
	LastID     string     `json:"last_opportunity_id,omitempty"`
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	snap := s.src.Snapshot()
	if snap == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	v := statusView{
		At:         snap.At.UTC(),
		Watermark:  snap.Watermark.UTC(),
		StaleAfter: snap.StaleAfter.Milliseconds(),
		Currencies: make([]string, len(snap.Currencies)),
		Pairs:      snap.Pairs,
		Accepted:   snap.Accepted,
		Rejected:   snap.Rejected,
		Evicted:    snap.Evicted,
		Edges:      make([]edgeView, len(snap.Edges)),
	}
	for i, c := range snap.Currencies {
		v.Currencies[i] = string(c)
	}
	for i, e := range snap.Edges {
		v.Edges[i] = edgeView{
			From:      string(e.From),
			To:        string(e.To),
			Rate:      decimal.NewFromFloat(e.Rate.Magnitude),
			Direction: e.Rate.Direction.String(),
			Weight:    e.Rate.Weight(),
			UpdatedAt: snap.Updated[freshness.NewPair(e.From, e.To)].UTC(),
		}
	}
	if snap.LastOpportunity != nil {
		v.LastID = snap.LastOpportunity.ID
	}
	writeJSON(w, v)
}

func (s *Server) lastOpportunity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	snap := s.src.Snapshot()
	if snap == nil || snap.LastOpportunity == nil {
		http.Error(w, "no opportunity detected yet", http.StatusNotFound)
		return
	}
	writeJSON(w, report.Payload(*snap.LastOpportunity))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
