package availability

import (
	"context"
	"time"

	"github.com/swiftrelo/backend/internal/utils"
)

// MockOracle is a deterministic stand-in for the schedule store, used when
// no database or scheduling service is configured. Availability is derived
// from a hash of crew and date so repeated probes agree.
type MockOracle struct {
	// BusyEvery marks roughly one in N probes as busy. Zero means always free.
	BusyEvery uint64
}

func (m MockOracle) IsAvailable(ctx context.Context, crewID string, date time.Time, durationHours float64) (bool, error) {
	if m.BusyEvery == 0 {
		return true, nil
	}
	h := utils.StableHash(crewID, date.Format("2006-01-02"))
	return h%m.BusyEvery != 0, nil
}
