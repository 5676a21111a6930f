// Package geo acquires the single location fix stamped onto a job at
// start. Acquisition is bounded: a slow or absent provider degrades to
// "no GPS" instead of blocking the start action.
package geo

import (
	"context"
	"time"

	"github.com/grabke213/proofpack/internal/job"
	"github.com/grabke213/proofpack/pkg/log"
)

// DefaultTimeout matches the bounded wait the field crews tolerate
// before the start action proceeds without a fix.
const DefaultTimeout = 7 * time.Second

// Locator is a source of location fixes (a platform geolocation bridge
// in production, a stub in tests).
type Locator interface {
	Current(ctx context.Context) (*job.GPS, error)
}

// Capture asks the locator for a fix within timeout. Every failure
// path returns nil: a job start never fails for lack of GPS.
func Capture(ctx context.Context, locator Locator, timeout time.Duration) *job.GPS {
	if locator == nil {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		fix *job.GPS
		err error
	}
	ch := make(chan result, 1)
	go func() {
		fix, err := locator.Current(ctx)
		ch <- result{fix: fix, err: err}
	}()

	select {
	case <-ctx.Done():
		log.Warn("location fix timed out, starting without GPS")
		return nil
	case r := <-ch:
		if r.err != nil {
			log.Warn("location fix unavailable: %v", r.err)
			return nil
		}
		return r.fix
	}
}
