package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	DatagramsReceivedTotal  = prometheus.NewCounter(prometheus.CounterOpts{Name: "fx_datagrams_received_total", Help: "Datagrams read from the feed"})
	DatagramsMalformedTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "fx_datagrams_malformed_total", Help: "Datagrams dropped as undecodable"})
	QuotesAcceptedTotal     = prometheus.NewCounter(prometheus.CounterOpts{Name: "fx_quotes_accepted_total", Help: "Quotes applied to the rate graph"})
	QuotesRejectedTotal     = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "fx_quotes_rejected_total", Help: "Quotes dropped by reason"}, []string{"reason"})
	StaleEvictionsTotal     = prometheus.NewCounter(prometheus.CounterOpts{Name: "fx_stale_evictions_total", Help: "Currency pairs removed for staleness"})
	DetectionRunsTotal      = prometheus.NewCounter(prometheus.CounterOpts{Name: "fx_detection_runs_total", Help: "Bellman-Ford runs, one per candidate source"})
	CyclesFoundTotal        = prometheus.NewCounter(prometheus.CounterOpts{Name: "fx_arbitrage_cycles_found_total", Help: "Arbitrage cycles extracted and reported"})
	ExtractionFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "fx_cycle_extraction_failures_total", Help: "Relaxable edges that did not yield a cycle"}, []string{"reason"})
	ReportErrorsTotal       = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "fx_report_errors_total", Help: "Opportunity sink failures"}, []string{"sink"})
	DetectionLatencyMs      = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "fx_detection_latency_ms", Help: "Evict+detect latency per wake-up", Buckets: prometheus.ExponentialBuckets(0.01, 2, 16)})
	GraphCurrencies         = prometheus.NewGauge(prometheus.GaugeOpts{Name: "fx_graph_currencies", Help: "Currencies with at least one live edge"})
	GraphEdges              = prometheus.NewGauge(prometheus.GaugeOpts{Name: "fx_graph_edges", Help: "Directed edges in the rate graph"})
	LastCycleGainBps        = prometheus.NewGauge(prometheus.GaugeOpts{Name: "fx_last_cycle_gain_bps", Help: "Gain of the last reported cycle in basis points"})
	FeedSilenceSeconds      = prometheus.NewGauge(prometheus.GaugeOpts{Name: "fx_feed_silence_seconds", Help: "Seconds since the last datagram"})
)

func Init(logger zerolog.Logger) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	toRegister := []prometheus.Collector{
		DatagramsReceivedTotal, DatagramsMalformedTotal,
		QuotesAcceptedTotal, QuotesRejectedTotal, StaleEvictionsTotal,
		DetectionRunsTotal, CyclesFoundTotal, ExtractionFailuresTotal, ReportErrorsTotal,
		DetectionLatencyMs, GraphCurrencies, GraphEdges, LastCycleGainBps, FeedSilenceSeconds,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		_ = reg.Register(c)
	}
	logger.Info().Msg("Prometheus metrics initialized")
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
