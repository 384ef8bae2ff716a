package extract

import (
	"context"
	"time"

	"github.com/mohammad-safakhou/toxscore/tools/render/dom"
	"github.com/rs/zerolog"
)

const (
	DefaultScrollPause    = 1500 * time.Millisecond
	DefaultMaxScrollSteps = 30
)

// Revealer scrolls a document to its bottom until it stops growing so that
// lazily loaded content is materialized before extraction.
type Revealer struct {
	Pause    time.Duration
	MaxSteps int
	Logger   zerolog.Logger

	// sleep is swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRevealer(pause time.Duration, maxSteps int, logger zerolog.Logger) *Revealer {
	if pause < 0 {
		pause = DefaultScrollPause
	}
	if maxSteps <= 0 {
		maxSteps = DefaultMaxScrollSteps
	}
	return &Revealer{Pause: pause, MaxSteps: maxSteps, Logger: logger}
}

// Reveal performs at most MaxSteps scroll-and-wait steps and returns how many
// ran. It stops at the first step whose height did not change. A failed
// measurement or scroll counts as no growth.
func (r *Revealer) Reveal(ctx context.Context, doc dom.Document) int {
	sleep := r.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	steps := 0
	for steps < r.MaxSteps {
		steps++
		before, err := doc.ContentHeight(ctx)
		if err != nil {
			r.Logger.Debug().Err(err).Int("step", steps).Msg("height measurement failed; treating as settled")
			break
		}
		if err := doc.ScrollToBottom(ctx); err != nil {
			r.Logger.Debug().Err(err).Int("step", steps).Msg("scroll failed; treating as settled")
			break
		}
		if err := sleep(ctx, r.Pause); err != nil {
			break
		}
		after, err := doc.ContentHeight(ctx)
		if err != nil {
			r.Logger.Debug().Err(err).Int("step", steps).Msg("height measurement failed; treating as settled")
			break
		}
		if after == before {
			break
		}
	}
	return steps
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
