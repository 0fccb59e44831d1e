package acquire

import (
	"context"
	"time"
)

// Pacer spaces out provider calls. The provider is rate-limited and billed
// per call, so pacing is a correctness constraint here, not a tuning knob.
type Pacer interface {
	// ItemPause waits the short within-batch delay.
	ItemPause(ctx context.Context) error
	// BatchPause waits the longer between-batch delay.
	BatchPause(ctx context.Context) error
}

// IntervalPacer pauses for fixed intervals, honoring cancellation.
type IntervalPacer struct {
	Item  time.Duration
	Batch time.Duration
}

func (p IntervalPacer) ItemPause(ctx context.Context) error  { return pause(ctx, p.Item) }
func (p IntervalPacer) BatchPause(ctx context.Context) error { return pause(ctx, p.Batch) }

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NopPacer skips all pauses; used by tests.
type NopPacer struct{}

func (NopPacer) ItemPause(ctx context.Context) error  { return ctx.Err() }
func (NopPacer) BatchPause(ctx context.Context) error { return ctx.Err() }
