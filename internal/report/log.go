package report

import (
	"context"

	"fxarb/internal/arbitrage"
	"fxarb/internal/infra/log"
)

// Log writes the ARBITRAGE banner followed by one line per conversion.
type Log struct {
	logger log.Logger
}

func NewLog(logger log.Logger) *Log { return &Log{logger: logger} }

func (l *Log) Name() string { return "log" }

func (l *Log) Report(_ context.Context, op arbitrage.Opportunity) error {
	l.logger.Info().
		Str("id", op.ID).
		Str("source", string(op.Source)).
		Str("cycle", op.Path()).
		Float64("start", op.StartAmount).
		Float64("final", op.FinalAmount).
		Float64("gain_bps", op.GainBps()).
		Msg("ARBITRAGE")
	if len(op.Cycle) > 0 {
		l.logger.Info().Str("id", op.ID).Msgf("start with %s %g", op.Cycle[0], op.StartAmount)
	}
	for _, leg := range op.Legs {
		l.logger.Info().
			Str("id", op.ID).
			Msgf("exchange %s for %s at %g --> %s %g", leg.From, leg.To, leg.Factor, leg.To, leg.Amount)
	}
	return nil
}
