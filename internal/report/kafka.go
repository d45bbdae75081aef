package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fxarb/internal/arbitrage"
	"fxarb/internal/infra/log"
	"fxarb/internal/infra/metrics"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

const amountPlaces = 8

type KafkaOptions struct {
	Brokers  []string
	Topic    string
	ClientID string
}

// Kafka publishes opportunities to a topic. Writes are asynchronous so the
// detection loop never waits on the broker; delivery failures are logged and
// counted from the completion callback.
type Kafka struct {
	w      *kafka.Writer
	topic  string
	logger log.Logger
}

func NewKafka(opts KafkaOptions, logger log.Logger) *Kafka {
	k := &Kafka{topic: opts.Topic, logger: logger}
	k.w = &kafka.Writer{
		Addr:         kafka.TCP(opts.Brokers...),
		Topic:        opts.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		Transport:    &kafka.Transport{ClientID: opts.ClientID},
		Completion:   k.completed,
	}
	return k
}

// completed runs on the writer's goroutine once a batch is delivered or dropped.
func (k *Kafka) completed(msgs []kafka.Message, err error) {
	if err == nil {
		return
	}
	metrics.ReportErrorsTotal.WithLabelValues(k.Name()).Add(float64(len(msgs)))
	k.logger.Warn().Err(err).Int("messages", len(msgs)).Str("topic", k.topic).Msg("kafka delivery failed")
}

func (k *Kafka) Name() string { return "kafka" }

func (k *Kafka) Report(ctx context.Context, op arbitrage.Opportunity) error {
	msg, err := Message(op)
	if err != nil {
		return err
	}
	return k.w.WriteMessages(ctx, msg)
}

// Close flushes pending messages.
func (k *Kafka) Close() error { return k.w.Close() }

// LegPayload and OpportunityPayload are the JSON shape shared by the Kafka
// sink and the status API. Amounts are decimal strings.
type LegPayload struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

type OpportunityPayload struct {
	ID          string          `json:"id"`
	DetectedAt  time.Time       `json:"detected_at"`
	Source      string          `json:"source"`
	Cycle       []string        `json:"cycle"`
	StartAmount decimal.Decimal `json:"start_amount"`
	FinalAmount decimal.Decimal `json:"final_amount"`
	GainBps     decimal.Decimal `json:"gain_bps"`
	Legs        []LegPayload    `json:"legs"`
}

func amount(f float64) decimal.Decimal { return decimal.NewFromFloat(f).Round(amountPlaces) }

func Payload(op arbitrage.Opportunity) OpportunityPayload {
	p := OpportunityPayload{
		ID:          op.ID,
		DetectedAt:  op.DetectedAt.UTC(),
		Source:      string(op.Source),
		Cycle:       make([]string, len(op.Cycle)),
		StartAmount: amount(op.StartAmount),
		FinalAmount: amount(op.FinalAmount),
		GainBps:     decimal.NewFromFloat(op.GainBps()).Round(4),
		Legs:        make([]LegPayload, len(op.Legs)),
	}
	for i, c := range op.Cycle {
		p.Cycle[i] = string(c)
	}
	for i, l := range op.Legs {
		p.Legs[i] = LegPayload{From: string(l.From), To: string(l.To), Rate: amount(l.Factor), Amount: amount(l.Amount)}
	}
	return p
}

// Message builds the Kafka record for op, keyed by the cycle path.
func Message(op arbitrage.Opportunity) (kafka.Message, error) {
	b, err := json.Marshal(Payload(op))
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode opportunity %s: %w", op.ID, err)
	}
	return kafka.Message{
		Key:   []byte(op.Path()),
		Value: b,
		Time:  op.DetectedAt,
		Headers: []kafka.Header{
			{Key: "id", Value: []byte(op.ID)},
		},
	}, nil
}
