package availability

import (
	"context"
	"time"
)

// RetryOracle retries a failing oracle a bounded number of times. The
// scheduling core itself never retries; the application layer wraps the
// oracle with this decorator when wiring an external service.
type RetryOracle struct {
	Inner    Oracle
	Attempts int
	Backoff  time.Duration
}

func (r RetryOracle) IsAvailable(ctx context.Context, crewID string, date time.Time, durationHours float64) (bool, error) {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		ok, err := r.Inner.IsAvailable(ctx, crewID, date, durationHours)
		if err == nil {
			return ok, nil
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(r.Backoff):
		}
	}
	return false, lastErr
}
