package common

import (
	"context"
	"time"
)

// Sleeper waits for a duration or until the context is done. Tests inject a
// recording implementation so retry timing is observable without waiting.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retry runs an operation with linear backoff. The wait after a failed
// attempt n is n*Backoff, so three attempts at 30s back off 30s then 60s.
type Retry struct {
	Attempts int
	Backoff  time.Duration
	Sleep    Sleeper

	// OnRetry is invoked before each wait with the attempt that just
	// failed. Callers use it to log.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// Do runs fn until it succeeds or attempts are exhausted, returning the last
// error. A cancelled context cuts the backoff short and returns ctx.Err().
func (r Retry) Do(ctx context.Context, fn func() error) error {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		wait := time.Duration(attempt) * r.Backoff
		if r.OnRetry != nil {
			r.OnRetry(attempt, wait, err)
		}
		if serr := sleep(ctx, wait); serr != nil {
			return serr
		}
	}
	return err
}
