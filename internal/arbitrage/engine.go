package arbitrage

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"fxarb/internal/config"
	"fxarb/internal/freshness"
	"fxarb/internal/fxp"
	"fxarb/internal/graph"
	"fxarb/internal/infra/log"
	"fxarb/internal/infra/metrics"

	"github.com/google/uuid"
)

// Reporter receives every confirmed arbitrage cycle.
type Reporter interface {
	Report(ctx context.Context, op Opportunity) error
}

// Opportunity is one extracted arbitrage cycle with its conversion trail.
type Opportunity struct {
	ID          string
	DetectedAt  time.Time
	Source      graph.Currency // detector source that exposed the cycle
	Cycle       []graph.Currency
	Legs        []graph.Leg
	StartAmount float64
	FinalAmount float64
}

// GainBps is the cycle's gain over the start amount in basis points.
func (o Opportunity) GainBps() float64 {
	if o.StartAmount == 0 {
		return 0
	}
	return (o.FinalAmount/o.StartAmount - 1) * 10000
}

func (o Opportunity) Path() string {
	parts := make([]string, len(o.Cycle))
	for i, c := range o.Cycle {
		parts[i] = string(c)
	}
	return strings.Join(parts, ">")
}

// Engine owns the rate graph and freshness state. All methods must be called
// from one goroutine; other goroutines read Snapshot.
type Engine struct {
	graph    *graph.Graph
	fresh    *freshness.Manager
	reporter Reporter
	logger   log.Logger
	now      func() time.Time

	tolerance   float64
	startAmount float64
	silence     time.Duration

	accepted, rejected, evicted int

	last *Opportunity
	snap atomic.Pointer[Snapshot]
}

type Option func(*Engine)

// WithClock replaces time.Now for staleness and silence checks.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(cfg config.Config, reporter Reporter, logger log.Logger, opts ...Option) *Engine {
	e := &Engine{
		graph:       graph.New(),
		fresh:       freshness.New(time.Duration(cfg.Feed.StaleAfterMs) * time.Millisecond),
		reporter:    reporter,
		logger:      logger,
		now:         time.Now,
		tolerance:   cfg.Detector.Tolerance,
		startAmount: cfg.Detector.StartAmount,
		silence:     time.Duration(cfg.Feed.SilenceTimeoutSeconds) * time.Second,
	}
	if e.tolerance < 0 {
		e.tolerance = graph.DefaultTolerance
	}
	if e.startAmount <= 0 {
		e.startAmount = 100
	}
	if e.silence <= 0 {
		e.silence = time.Minute
	}
	for _, o := range opts {
		o(e)
	}
	e.publish(e.now())
	return e
}

// Step handles one wake-up: apply quotes, evict stale pairs, look for a cycle
// and report it. It returns the reported opportunity, if any.
func (e *Engine) Step(ctx context.Context, quotes []fxp.Quote, now time.Time) *Opportunity {
	e.Ingest(quotes)
	start := time.Now()
	e.Evict(now)
	op := e.Detect(now)
	metrics.DetectionLatencyMs.Observe(float64(time.Since(start).Microseconds()) / 1000)

	if op != nil {
		e.last = op
		metrics.CyclesFoundTotal.Inc()
		metrics.LastCycleGainBps.Set(op.GainBps())
		if e.reporter != nil {
			if err := e.reporter.Report(ctx, *op); err != nil {
				e.logger.Error().Err(err).Str("id", op.ID).Msg("report arbitrage failed")
			}
		}
	}
	e.publish(now)
	return op
}

// Ingest applies quotes in order and returns how many were accepted.
func (e *Engine) Ingest(quotes []fxp.Quote) int {
	accepted := 0
	for _, q := range quotes {
		e.logger.Debug().
			Time("ts", q.Timestamp).
			Str("base", string(q.Base)).
			Str("quote", string(q.Quote)).
			Float64("rate", q.Rate).
			Msg("quote")
		if q.Base == q.Quote {
			e.rejected++
			metrics.QuotesRejectedTotal.WithLabelValues("self_pair").Inc()
			e.logger.Warn().Str("pair", string(q.Base)+string(q.Quote)).Msg("ignoring quote for a currency against itself")
			continue
		}
		if err := e.fresh.Accept(q.Timestamp, q.Base, q.Quote); err != nil {
			e.rejected++
			metrics.QuotesRejectedTotal.WithLabelValues("out_of_sequence").Inc()
			e.logger.Info().
				Time("ts", q.Timestamp).
				Time("watermark", e.fresh.Watermark()).
				Str("pair", string(q.Base)+string(q.Quote)).
				Msg("ignoring out-of-sequence message")
			continue
		}
		e.graph.AddEdge(q.Base, q.Quote, q.Rate)
		metrics.QuotesAcceptedTotal.Inc()
		accepted++
	}
	e.accepted += accepted
	return accepted
}

// Evict removes every pair not refreshed within the stale window.
func (e *Engine) Evict(now time.Time) int {
	expired := e.fresh.Expired(now)
	e.evicted += len(expired)
	for _, p := range expired {
		e.graph.RemoveEdge(p.A, p.B)
		metrics.StaleEvictionsTotal.Inc()
		e.logger.Info().Str("pair", p.String()).Msg("removing stale quote")
	}
	return len(expired)
}

// Detect tries every currency as source, in first-seen order, and returns
// the first cycle that extracts cleanly.
func (e *Engine) Detect(now time.Time) *Opportunity {
	for _, src := range e.graph.Currencies() {
		metrics.DetectionRunsTotal.Inc()
		paths, ne, ok := e.graph.ShortestPaths(src, e.tolerance)
		if !ok {
			continue
		}
		cycle, err := graph.ExtractCycle(paths, ne)
		if err != nil {
			metrics.ExtractionFailuresTotal.WithLabelValues(failureReason(err)).Inc()
			e.logger.Debug().Err(err).Str("source", string(src)).Msg("cycle extraction failed")
			continue
		}
		legs, final, err := e.graph.Convert(cycle, e.startAmount)
		if err != nil {
			metrics.ExtractionFailuresTotal.WithLabelValues(failureReason(err)).Inc()
			e.logger.Debug().Err(err).Str("source", string(src)).Msg("cycle conversion failed")
			continue
		}
		return &Opportunity{
			ID:          uuid.NewString(),
			DetectedAt:  now,
			Source:      src,
			Cycle:       cycle,
			Legs:        legs,
			StartAmount: e.startAmount,
			FinalAmount: final,
		}
	}
	return nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, graph.ErrNoPredecessor):
		return "no_predecessor"
	case errors.Is(err, graph.ErrCycleUnclosed):
		return "unclosed"
	case errors.Is(err, graph.ErrMissingEdge):
		return "missing_edge"
	case errors.Is(err, graph.ErrNonFiniteAmount):
		return "non_finite"
	}
	return "other"
}
