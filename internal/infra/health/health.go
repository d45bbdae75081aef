package health

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

var (
	ready    atomic.Bool
	lastFeed atomic.Int64 // unix nanos of the last datagram, 0 if none
)

// FeedGrace is how long the feed may stay quiet before /readyz reports it.
var FeedGrace = 5 * time.Second

// SetReady marks readiness state
func SetReady(v bool) { ready.Store(v) }

// Ready returns current readiness
func Ready() bool { return ready.Load() }

// MarkFeed records the arrival of a datagram.
func MarkFeed(t time.Time) { lastFeed.Store(t.UnixNano()) }

// FeedAge is the time since the last datagram, or -1 if none arrived yet.
func FeedAge(now time.Time) time.Duration {
	n := lastFeed.Load()
	if n == 0 {
		return -1
	}
	return now.Sub(time.Unix(0, n))
}

// Healthz is a simple liveness probe
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type readiness struct {
	Ready     bool  `json:"ready"`
	FeedAgeMs int64 `json:"feed_age_ms"`
}

// Readyz is 200 once registered with the publisher and while quotes keep arriving.
func Readyz(w http.ResponseWriter, r *http.Request) {
	age := FeedAge(time.Now())
	st := readiness{Ready: Ready() && age >= 0 && age <= FeedGrace, FeedAgeMs: age.Milliseconds()}
	if age < 0 {
		st.FeedAgeMs = -1
	}
	w.Header().Set("Content-Type", "application/json")
	if !st.Ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(st)
}
