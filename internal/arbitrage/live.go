package arbitrage

import (
	"context"
	"errors"
	"fmt"

	"fxarb/internal/feed"
	"fxarb/internal/fxp"
	"fxarb/internal/infra/health"
	"fxarb/internal/infra/metrics"
)

// ErrFeedSilent ends Run when no datagram arrived within the silence timeout.
var ErrFeedSilent = errors.New("no datagrams within silence timeout")

// Source yields raw datagrams. Receive returns feed.ErrPollTimeout when
// nothing arrived within its poll interval; any other error is fatal.
type Source interface {
	Receive() ([]byte, error)
}

// Run drives the engine from src until ctx is done (nil), the feed goes
// silent (ErrFeedSilent) or the connection fails.
func (e *Engine) Run(ctx context.Context, src Source) error {
	last := e.now()
	for {
		if ctx.Err() != nil {
			return nil
		}
		data, err := src.Receive()
		now := e.now()
		switch {
		case errors.Is(err, feed.ErrPollTimeout):
		case err != nil:
			e.logger.Error().Err(err).Msg("closing: feed receive failed")
			return fmt.Errorf("receive: %w", err)
		default:
			last = now
			health.MarkFeed(now)
			metrics.DatagramsReceivedTotal.Inc()
			quotes, derr := fxp.Unmarshal(data)
			if derr != nil {
				metrics.DatagramsMalformedTotal.Inc()
				e.logger.Warn().Err(derr).Int("bytes", len(data)).Msg("dropping malformed datagram")
			}
			e.Step(ctx, quotes, now)
		}

		quiet := now.Sub(last)
		metrics.FeedSilenceSeconds.Set(quiet.Seconds())
		if quiet >= e.silence {
			e.logger.Info().Dur("silence", quiet).Msg("no quotes received within timeout, shutting down")
			return ErrFeedSilent
		}
	}
}
