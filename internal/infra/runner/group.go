package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Group starts named workers and hands back each worker's result.
type Group struct {
	Logger zerolog.Logger
	wg     sync.WaitGroup
}

// Go runs fn in its own goroutine. The returned channel yields fn's error
// (a recovered panic becomes an error) and is then closed.
func (g *Group) Go(ctx context.Context, name string, fn func(ctx context.Context) error) <-chan error {
	done := make(chan error, 1)
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer close(done)
		g.Logger.Debug().Str("worker", name).Msg("worker started")
		err := run(ctx, fn)
		g.Logger.Debug().Str("worker", name).Err(err).Msg("worker stopped")
		done <- err
	}()
	return done
}

func run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker panic: %v", r)
		}
	}()
	return fn(ctx)
}

func (g *Group) Wait() { g.wg.Wait() }
