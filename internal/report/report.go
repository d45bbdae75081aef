// Package report delivers detected arbitrage cycles to their sinks.
package report

import (
	"context"
	"errors"
	"fmt"

	"fxarb/internal/arbitrage"
	"fxarb/internal/infra/metrics"
)

// Sink is a named arbitrage.Reporter.
type Sink interface {
	Name() string
	Report(ctx context.Context, op arbitrage.Opportunity) error
}

// Multi fans an opportunity out to every sink. A failing sink does not stop
// delivery to the others.
type Multi []Sink

func (m Multi) Report(ctx context.Context, op arbitrage.Opportunity) error {
	var errs []error
	for _, s := range m {
		if err := s.Report(ctx, op); err != nil {
			metrics.ReportErrorsTotal.WithLabelValues(s.Name()).Inc()
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
