package schedule

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/swiftrelo/backend/internal/availability"
	"github.com/swiftrelo/backend/internal/estimate"
	"github.com/swiftrelo/backend/internal/models"
)

// Generator enumerates (crew × date) candidates inside a job's flexibility
// window, probing the availability oracle for each one.
type Generator struct {
	Oracle    availability.Oracle
	Estimator *estimate.Estimator
}

// Generate returns every feasible option for the job across the eligible
// crews. Crews are probed concurrently; the oracle is the only I/O here and
// each probe is awaited before its option is emitted. An empty result with
// a nil error means no slot exists in the window.
func (g *Generator) Generate(ctx context.Context, job models.Job, crews []models.Crew, req models.Requirements) ([]models.SchedulingOption, error) {
	offsets := windowOffsets(job.Flexibility)

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		options  []models.SchedulingOption
		firstErr error
	)

	for _, crew := range crews {
		wg.Add(1)
		go func(crew models.Crew) {
			defer wg.Done()
			opts, err := g.crewOptions(ctx, job, crew, req, offsets)
			mu.Lock()
			defer mu.Unlock()
			if err != nil && firstErr == nil {
				firstErr = err
				return
			}
			options = append(options, opts...)
		}(crew)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return options, nil
}

func (g *Generator) crewOptions(ctx context.Context, job models.Job, crew models.Crew, req models.Requirements, offsets []int) ([]models.SchedulingOption, error) {
	est, err := g.Estimator.Estimate(job, crew.Size)
	if err != nil {
		return nil, err
	}
	travelMin := TravelMinutes(crew.HomeBase, job.Location)
	// Round trip from the crew base is on the clock too.
	duration := est.TotalHours + 2*travelMin/60

	var out []models.SchedulingOption
	for _, off := range offsets {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrWindowTimeout, err)
		}
		date := job.PreferredDate.AddDate(0, 0, off)
		if isWeekend(date) && job.Priority != models.PriorityHigh {
			continue
		}

		free, err := g.Oracle.IsAvailable(ctx, crew.ID, date, duration)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", ErrWindowTimeout, ctx.Err())
			}
			return nil, err
		}
		if !free {
			continue
		}

		start := crew.ShiftStartHour
		end := start + int(math.Ceil(duration))
		out = append(out, models.SchedulingOption{
			Crew:          crew,
			Date:          date,
			StartHour:     start,
			EndHour:       end,
			TravelMinutes: travelMin,
			DurationHours: duration,
			Efficiency:    blendEfficiency(crew, req, travelMin, start, date),
		})
	}
	return out, nil
}

func windowOffsets(flexibility string) []int {
	var from, to int
	switch flexibility {
	case models.FlexibilityFlexible:
		from, to = -3, 7
	case models.FlexibilityVeryFlexible:
		from, to = -7, 14
	default:
		// fixed, and anything unrecognised, stays on the preferred date
		return []int{0}
	}
	out := make([]int, 0, to-from+1)
	for off := from; off <= to; off++ {
		out = append(out, off)
	}
	return out
}

func isWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// blendEfficiency folds situational bonuses and penalties into the crew's
// historical rating: staffing fit, travel distance, start time, and the
// peak-season months where everything runs a little slower.
func blendEfficiency(crew models.Crew, req models.Requirements, travelMin float64, startHour int, date time.Time) float64 {
	eff := crew.Rating

	if crew.Size == req.TeamSize {
		eff += 0.1
	} else if crew.Size > req.TeamSize {
		eff -= 0.1
	}

	if travelMin < 30 {
		eff += 0.1
	} else if travelMin > 60 {
		eff -= 0.1
	}

	if startHour >= 9 && startHour <= 13 {
		eff += 0.05
	}

	if m := date.Month(); m >= time.May && m <= time.September {
		eff -= 0.05
	}

	if eff < 0 {
		eff = 0
	}
	if eff > 1 {
		eff = 1
	}
	return eff
}
