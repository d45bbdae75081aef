package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"fxarb/internal/arbitrage"
	"fxarb/internal/graph"
	"fxarb/internal/infra/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOpportunity() arbitrage.Opportunity {
	return arbitrage.Opportunity{
		ID:         "5c7e0a4e-2f59-4a51-9d3e-6f1f8b1b2a10",
		DetectedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Source:     "USD",
		Cycle:      []graph.Currency{"USD", "EUR", "JPY", "USD"},
		Legs: []graph.Leg{
			{From: "USD", To: "EUR", Factor: 0.9, Amount: 90},
			{From: "EUR", To: "JPY", Factor: 120, Amount: 10800},
			{From: "JPY", To: "USD", Factor: 0.0095, Amount: 102.6},
		},
		StartAmount: 100,
		FinalAmount: 102.6,
	}
}

func TestMessagePayload(t *testing.T) {
	op := sampleOpportunity()
	msg, err := Message(op)
	require.NoError(t, err)

	assert.Equal(t, "USD>EUR>JPY>USD", string(msg.Key))
	assert.Equal(t, op.DetectedAt, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, op.ID, string(msg.Headers[0].Value))

	var got struct {
		ID          string   `json:"id"`
		Source      string   `json:"source"`
		Cycle       []string `json:"cycle"`
		StartAmount string   `json:"start_amount"`
		FinalAmount string   `json:"final_amount"`
		GainBps     string   `json:"gain_bps"`
		Legs        []struct {
			From, To     string
			Rate, Amount string
		} `json:"legs"`
	}
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, op.ID, got.ID)
	assert.Equal(t, "USD", got.Source)
	assert.Equal(t, []string{"USD", "EUR", "JPY", "USD"}, got.Cycle)
	assert.Equal(t, "100", got.StartAmount)
	assert.Equal(t, "102.6", got.FinalAmount)
	assert.Equal(t, "260", got.GainBps)
	require.Len(t, got.Legs, 3)
	assert.Equal(t, "0.0095", got.Legs[2].Rate)
	assert.Equal(t, "10800", got.Legs[1].Amount)
}

func TestLogReporterTrail(t *testing.T) {
	var buf bytes.Buffer
	r := NewLog(zerolog.New(&buf))
	require.NoError(t, r.Report(context.Background(), sampleOpportunity()))

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], `"message":"ARBITRAGE"`)
	assert.Contains(t, lines[0], `"cycle":"USD>EUR>JPY>USD"`)
	assert.Contains(t, lines[1], "start with USD 100")
	assert.Contains(t, lines[2], "exchange USD for EUR at 0.9 --> EUR 90")
	assert.Contains(t, lines[3], "exchange EUR for JPY at 120 --> JPY 10800")
	assert.Contains(t, lines[4], "exchange JPY for USD at 0.0095 --> USD 102.6")
}

type stubSink struct {
	name  string
	err   error
	calls int
}

func (s *stubSink) Name() string { return s.name }

func (s *stubSink) Report(context.Context, arbitrage.Opportunity) error {
	s.calls++
	return s.err
}

func TestMultiDeliversToAllSinks(t *testing.T) {
	bad := &stubSink{name: "stub-bad", err: errors.New("down")}
	good := &stubSink{name: "stub-good"}
	before := testutil.ToFloat64(metrics.ReportErrorsTotal.WithLabelValues("stub-bad"))

	err := Multi{bad, good}.Report(context.Background(), sampleOpportunity())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stub-bad: down")
	assert.Equal(t, 1, bad.calls)
	assert.Equal(t, 1, good.calls)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ReportErrorsTotal.WithLabelValues("stub-bad")))

	assert.NoError(t, Multi{good}.Report(context.Background(), sampleOpportunity()))
}

func TestKafkaWriterSettings(t *testing.T) {
	k := NewKafka(KafkaOptions{Brokers: []string{"127.0.0.1:9092"}, Topic: "fx.arbitrage", ClientID: "fxarb-test"}, zerolog.Nop())
	t.Cleanup(func() { _ = k.Close() })

	assert.Equal(t, "kafka", k.Name())
	assert.True(t, k.w.Async, "writes must not block the detection loop")
	assert.Equal(t, "fx.arbitrage", k.w.Topic)
	assert.Equal(t, kafka.RequireOne, k.w.RequiredAcks)
	assert.IsType(t, &kafka.Hash{}, k.w.Balancer)
	require.NotNil(t, k.w.Completion)
}

func TestKafkaCompletionCountsFailures(t *testing.T) {
	var buf bytes.Buffer
	k := NewKafka(KafkaOptions{Brokers: []string{"127.0.0.1:9092"}, Topic: "fx.arbitrage"}, zerolog.New(&buf))
	t.Cleanup(func() { _ = k.Close() })
	before := testutil.ToFloat64(metrics.ReportErrorsTotal.WithLabelValues("kafka"))

	msg, err := Message(sampleOpportunity())
	require.NoError(t, err)

	k.w.Completion([]kafka.Message{msg}, nil)
	assert.Equal(t, before, testutil.ToFloat64(metrics.ReportErrorsTotal.WithLabelValues("kafka")))
	assert.Zero(t, buf.Len())

	k.w.Completion([]kafka.Message{msg, msg}, errors.New("leader not available"))
	assert.Equal(t, before+2, testutil.ToFloat64(metrics.ReportErrorsTotal.WithLabelValues("kafka")))
	assert.Contains(t, buf.String(), "kafka delivery failed")
	assert.Contains(t, buf.String(), "leader not available")
}
