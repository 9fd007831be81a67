package schedule

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/swiftrelo/backend/internal/availability"
	"github.com/swiftrelo/backend/internal/models"
)

// Policy holds the batch scheduling knobs.
type Policy struct {
	// SameDayExclusive blocks a crew from a second job on a day it already
	// has one, even when the hours would fit. The relaxed mode packs a
	// second job only while the combined hours fit the crew's shift.
	SameDayExclusive bool

	// PerJobTimeout bounds the date-window iteration per job. Zero means
	// no per-job deadline beyond the batch context.
	PerJobTimeout time.Duration
}

type ledgerEntry struct {
	JobID string
	Hours float64
}

// Ledger tracks per-crew commitments made during one optimization batch.
// It lives in memory only; persistence belongs to the caller. Single
// writer: the optimizer commits sequentially, while option probing may
// read it concurrently.
type Ledger struct {
	mu      sync.Mutex
	entries map[string]map[string][]ledgerEntry
}

func NewLedger() *Ledger {
	return &Ledger{entries: map[string]map[string][]ledgerEntry{}}
}

func dateKey(date time.Time) string {
	return date.Format("2006-01-02")
}

func (l *Ledger) Commit(crewID string, date time.Time, jobID string, hours float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.entries[crewID] == nil {
		l.entries[crewID] = map[string][]ledgerEntry{}
	}
	key := dateKey(date)
	l.entries[crewID][key] = append(l.entries[crewID][key], ledgerEntry{JobID: jobID, Hours: hours})
}

func (l *Ledger) HasCommitment(crewID string, date time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries[crewID][dateKey(date)]) > 0
}

func (l *Ledger) CommittedHours(crewID string, date time.Time) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	var total float64
	for _, e := range l.entries[crewID][dateKey(date)] {
		total += e.Hours
	}
	return total
}

// Commitments returns a snapshot of (crewID, date, jobID, hours) rows for
// reporting.
func (l *Ledger) Commitments() []models.Booking {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.Booking
	for crewID, byDate := range l.entries {
		for key, entries := range byDate {
			date, _ := time.Parse("2006-01-02", key)
			for _, e := range entries {
				out = append(out, models.Booking{
					CrewID:        crewID,
					JobID:         e.JobID,
					Date:          date,
					DurationHours: e.Hours,
				})
			}
		}
	}
	return out
}

// Optimizer schedules a batch of jobs greedily by priority, feeding each
// outcome back into the ledger so later jobs see a reduced crew pool.
type Optimizer struct {
	Scheduler *Scheduler
	Policy    Policy
	Logger    zerolog.Logger
}

func NewOptimizer(scheduler *Scheduler, policy Policy, logger zerolog.Logger) *Optimizer {
	return &Optimizer{Scheduler: scheduler, Policy: policy, Logger: logger}
}

var priorityRank = map[string]int{
	models.PriorityHigh:   0,
	models.PriorityMedium: 1,
	models.PriorityLow:    2,
}

// OptimizeBatch schedules jobs in priority order. Jobs that cannot be
// scheduled are omitted from the result map and reported with their reason
// code in the second return value. No retry, no partial fallback.
func (o *Optimizer) OptimizeBatch(ctx context.Context, jobs []models.Job, crews []models.Crew) (map[string]models.SchedulingResult, map[string]string) {
	ordered := make([]models.Job, len(jobs))
	copy(ordered, jobs)
	sort.Slice(ordered, func(i, j int) bool {
		ri, rj := rankOf(ordered[i].Priority), rankOf(ordered[j].Priority)
		if ri != rj {
			return ri < rj
		}
		if !ordered[i].PreferredDate.Equal(ordered[j].PreferredDate) {
			return ordered[i].PreferredDate.Before(ordered[j].PreferredDate)
		}
		return ordered[i].ID < ordered[j].ID
	})

	ledger := NewLedger()
	results := make(map[string]models.SchedulingResult, len(ordered))
	unscheduled := map[string]string{}

	// Every probe inside the batch also consults the ledger, so a crew
	// never lands on a date it was committed to earlier in this run.
	scheduler := o.ledgerAwareScheduler(ledger, crews)

	for _, job := range ordered {
		jobCtx := ctx
		cancel := func() {}
		if o.Policy.PerJobTimeout > 0 {
			jobCtx, cancel = context.WithTimeout(ctx, o.Policy.PerJobTimeout)
		}

		result, err := scheduler.ScheduleJob(jobCtx, job, crews)
		cancel()
		if err != nil {
			reason := ReasonFor(err)
			unscheduled[job.ID] = reason
			o.Logger.Warn().
				Str("job_id", job.ID).
				Str("reason_code", reason).
				Err(err).
				Msg("job left unscheduled")
			continue
		}

		ledger.Commit(result.CrewID, result.Date, job.ID, result.DurationHours)
		results[job.ID] = result
	}

	return results, unscheduled
}

func rankOf(priority string) int {
	if r, ok := priorityRank[priority]; ok {
		return r
	}
	return len(priorityRank)
}

func (o *Optimizer) ledgerBlocks(ledger *Ledger, crew models.Crew, date time.Time, hours float64) bool {
	if o.Policy.SameDayExclusive {
		return ledger.HasCommitment(crew.ID, date)
	}
	window := float64(crew.ShiftEndHour - crew.ShiftStartHour)
	needed := hours
	if needed <= 0 {
		needed = o.Scheduler.Estimator.Tables.MinBillableHours
	}
	return ledger.CommittedHours(crew.ID, date)+needed > window
}

// ledgerAwareScheduler clones the scheduler with an oracle that treats
// in-batch commitments as busy time on top of the persisted schedule.
func (o *Optimizer) ledgerAwareScheduler(ledger *Ledger, crews []models.Crew) *Scheduler {
	index := make(map[string]models.Crew, len(crews))
	for _, c := range crews {
		index[c.ID] = c
	}
	inner := o.Scheduler
	oracle := &ledgerOracle{
		inner:     inner.Generator.Oracle,
		ledger:    ledger,
		optimizer: o,
		crewIndex: index,
	}
	generator := &Generator{Oracle: oracle, Estimator: inner.Generator.Estimator}
	return NewScheduler(inner.Estimator, generator, inner.Rules, inner.Logger)
}

type ledgerOracle struct {
	inner     availability.Oracle
	ledger    *Ledger
	optimizer *Optimizer
	crewIndex map[string]models.Crew
}

func (lo *ledgerOracle) IsAvailable(ctx context.Context, crewID string, date time.Time, durationHours float64) (bool, error) {
	if lo.optimizer.Policy.SameDayExclusive {
		if lo.ledger.HasCommitment(crewID, date) {
			return false, nil
		}
	} else if crew, ok := lo.crewIndex[crewID]; ok {
		if lo.optimizer.ledgerBlocks(lo.ledger, crew, date, durationHours) {
			return false, nil
		}
	}
	return lo.inner.IsAvailable(ctx, crewID, date, durationHours)
}
