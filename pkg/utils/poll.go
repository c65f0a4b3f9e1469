package utils

import (
	"context"
	"time"
)

type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

/* Budget bounds a polling loop by wall-clock time measured on Clock.
 *
 * The check function runs first without waiting, then once per
 * Interval while Now()-start < Timeout. A zero Timeout runs the
 * check exactly once.
 */
type Budget struct {
	Interval time.Duration
	Timeout  time.Duration
	Clock    Clock
}

// Poll returns the number of attempts made and whether check reported done.
// An error from check or from the context aborts the loop.
func (b Budget) Poll(ctx context.Context, check func(ctx context.Context) (bool, error)) (int, bool, error) {
	clock := b.Clock
	if clock == nil {
		clock = RealClock{}
	}

	start := clock.Now()
	attempts := 0
	for {
		attempts++
		done, err := check(ctx)
		if err != nil {
			return attempts, false, err
		}
		if done {
			return attempts, true, nil
		}

		if clock.Now().Sub(start)+b.Interval >= b.Timeout {
			return attempts, false, nil
		}

		if err := clock.Sleep(ctx, b.Interval); err != nil {
			return attempts, false, err
		}
	}
}
