package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/swiftrelo/backend/internal/db"
	"github.com/swiftrelo/backend/internal/models"
	"github.com/swiftrelo/backend/internal/schedule"
)

const (
	StatusScheduled   = "SCHEDULED"
	StatusUnscheduled = "UNSCHEDULED"
	StatusError       = "ERROR"
)

// BatchService runs one optimization pass over all pending jobs and
// persists the outcome.
type BatchService struct {
	Store     *db.Store
	Optimizer *schedule.Optimizer
	Logger    zerolog.Logger
}

type RunSummary struct {
	Events  []map[string]any `json:"events"`
	Counts  map[string]any   `json:"counts"`
	Samples []map[string]any `json:"samples,omitempty"`
}

func (r RunSummary) Marshal() []byte {
	b, _ := json.Marshal(r)
	return b
}

func (s *BatchService) ProcessJobs(ctx context.Context, debug bool) (RunSummary, error) {
	jobs, err := s.Store.GetJobsForScheduling(ctx)
	if err != nil {
		return RunSummary{}, err
	}
	crews, err := s.Store.ListCrews(ctx, "", 0)
	if err != nil {
		return RunSummary{}, err
	}

	summary := RunSummary{Counts: map[string]any{}}
	start := time.Now()
	summary.Events = append(summary.Events, map[string]any{
		"type":    "batch_loaded",
		"message": "Jobs ready for scheduling",
		"jobs":    len(jobs),
		"crews":   len(crews),
		"time":    time.Now().UTC(),
	})

	results, unscheduled := s.Optimizer.OptimizeBatch(ctx, jobs, crews)

	reasonCounts := map[string]int{}
	for _, reason := range unscheduled {
		reasonCounts[reason]++
	}

	var dbErrors int
	for _, job := range jobs {
		if result, ok := results[job.ID]; ok {
			if err := s.SaveScheduled(ctx, result); err != nil {
				dbErrors++
				s.Logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to persist scheduling result")
			}
			continue
		}
		reason, ok := unscheduled[job.ID]
		if !ok {
			continue
		}
		if err := s.writeUnscheduled(ctx, job, reason); err != nil {
			dbErrors++
			s.Logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to persist unscheduled job")
		}
		if debug && len(summary.Samples) < 5 {
			summary.Samples = append(summary.Samples, map[string]any{
				"job_id":      job.ID,
				"reason_code": reason,
			})
		}
	}

	summary.Events = append(summary.Events, map[string]any{
		"type":        "scheduling",
		"scheduled":   len(results),
		"unscheduled": len(unscheduled),
		"time":        time.Now().UTC(),
	})
	summary.Events = append(summary.Events, map[string]any{
		"type":       "db_save",
		"message":    "Scheduling results saved",
		"errors":     dbErrors,
		"elapsed_ms": time.Since(start).Milliseconds(),
		"time":       time.Now().UTC(),
	})

	summary.Counts["jobs_processed"] = len(jobs)
	summary.Counts["scheduled"] = len(results)
	summary.Counts["unscheduled"] = len(unscheduled)
	summary.Counts["db_errors"] = dbErrors
	summary.Counts["unscheduled_reasons"] = reasonCounts
	return summary, nil
}

func (s *BatchService) SaveScheduled(ctx context.Context, result models.SchedulingResult) error {
	reasoning, _ := json.Marshal(map[string]any{
		"score":          result.Score,
		"efficiency":     result.Efficiency,
		"travel_minutes": result.TravelMinutes,
		"alternatives":   result.Alternatives,
		"notes":          result.Notes,
	})

	return s.Store.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.Store.UpsertSchedulingResult(ctx, tx, result, StatusScheduled, schedule.ReasonScheduled, reasoning); err != nil {
			return err
		}
		return s.Store.InsertBooking(ctx, tx, models.Booking{
			CrewID:        result.CrewID,
			JobID:         result.JobID,
			Date:          result.Date,
			DurationHours: result.DurationHours,
		})
	})
}

// SaveManual records a manually pinned assignment together with its
// booking. Override means the crew failed the capability filter and a
// dispatcher forced the match anyway.
func (s *BatchService) SaveManual(ctx context.Context, result models.SchedulingResult, override bool) error {
	reasonCode := "MANUAL_REASSIGN"
	if override {
		reasonCode = "MANUAL_OVERRIDE"
	}
	reasoning, _ := json.Marshal(map[string]any{
		"manual":   true,
		"override": override,
		"notes":    result.Notes,
	})
	return s.Store.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.Store.UpsertSchedulingResult(ctx, tx, result, StatusScheduled, reasonCode, reasoning); err != nil {
			return err
		}
		return s.Store.InsertBooking(ctx, tx, models.Booking{
			CrewID:        result.CrewID,
			JobID:         result.JobID,
			Date:          result.Date,
			DurationHours: result.DurationHours,
		})
	})
}

func (s *BatchService) writeUnscheduled(ctx context.Context, job models.Job, reasonCode string) error {
	reasoning, _ := json.Marshal(map[string]any{
		"preferred_date": job.PreferredDate,
		"flexibility":    job.Flexibility,
		"priority":       job.Priority,
	})
	result := models.SchedulingResult{JobID: job.ID}
	return s.Store.WithTx(ctx, func(tx pgx.Tx) error {
		return s.Store.UpsertSchedulingResult(ctx, tx, result, StatusUnscheduled, reasonCode, reasoning)
	})
}
