package db

import (
	"context"
	"fmt"
	"time"

	"github.com/swiftrelo/backend/internal/availability"
)

// ScheduleOracle answers availability probes from the persisted bookings
// table. In exclusive mode any booking on the date makes the crew busy; in
// relaxed mode a job still fits while the crew's shift has room.
type ScheduleOracle struct {
	Store     *Store
	Exclusive bool
}

func (o ScheduleOracle) IsAvailable(ctx context.Context, crewID string, date time.Time, durationHours float64) (bool, error) {
	booked, err := o.Store.CrewBookedHours(ctx, crewID, date)
	if err != nil {
		return false, fmt.Errorf("%w: %v", availability.ErrOracle, err)
	}
	if o.Exclusive {
		return booked == 0, nil
	}

	crew, err := o.Store.GetCrew(ctx, crewID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", availability.ErrOracle, err)
	}
	window := float64(crew.ShiftEndHour - crew.ShiftStartHour)
	return booked+durationHours <= window, nil
}
