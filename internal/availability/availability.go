package availability

import (
	"context"
	"errors"
	"time"
)

// ErrOracle wraps failures of the external schedule store so callers can
// distinguish "crew is busy" from "the check itself broke".
var ErrOracle = errors.New("availability oracle error")

// Oracle answers whether a crew is free on a date for a full job duration.
// Backed by a persisted schedule; this is the only external I/O the
// scheduling core performs.
type Oracle interface {
	IsAvailable(ctx context.Context, crewID string, date time.Time, durationHours float64) (bool, error)
}
