package utils

import (
	"context"
	"time"
)

func ContextSleep(ctx context.Context, d time.Duration) *time.Time {
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return nil
	case t := <-timer.C:
		return &t
	}
}

// Retry calls fn until it succeeds, sleeping interval after every failure.
// onErr is called with each failure. Retry returns false once ctx is done.
func Retry(ctx context.Context, interval time.Duration, fn func() error, onErr func(err error)) bool {
	for {
		err := fn()
		if err == nil {
			return true
		}
		onErr(err)
		if ContextSleep(ctx, interval) == nil {
			return false
		}
	}
}
