package schedule

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/swiftrelo/backend/internal/estimate"
	"github.com/swiftrelo/backend/internal/models"
	"github.com/swiftrelo/backend/internal/utils"
)

// Scheduler assigns a single job to the best (crew, date) option.
type Scheduler struct {
	Estimator *estimate.Estimator
	Generator *Generator
	Rules     RuleSet
	Logger    zerolog.Logger
}

func NewScheduler(estimator *estimate.Estimator, generator *Generator, rules RuleSet, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		Estimator: estimator,
		Generator: generator,
		Rules:     rules,
		Logger:    logger,
	}
}

// ScheduleJob derives requirements, filters crews, generates and scores
// options, and returns the winner plus up to three runner-ups. It fails
// hard with ErrNoCapableCrew or ErrNoAvailableSlot; widening flexibility or
// adding crews is the caller's decision.
func (s *Scheduler) ScheduleJob(ctx context.Context, job models.Job, crews []models.Crew) (models.SchedulingResult, error) {
	req, err := estimate.DeriveRequirements(job, s.Estimator.Tables)
	if err != nil {
		return models.SchedulingResult{}, err
	}

	filtered := FilterCapableCrews(crews, req)
	if len(filtered.Eligible) == 0 {
		s.Logger.Debug().
			Str("job_id", job.ID).
			Str("reason_code", filtered.ReasonCode).
			Msg("no capable crew")
		return models.SchedulingResult{}, fmt.Errorf("job %s: %s: %w", job.ID, filtered.ReasonText, ErrNoCapableCrew)
	}

	options, err := s.Generator.Generate(ctx, job, filtered.Eligible, req)
	if err != nil {
		return models.SchedulingResult{}, err
	}
	if len(options) == 0 {
		return models.SchedulingResult{}, fmt.Errorf("job %s: no free crew in flexibility window: %w", job.ID, ErrNoAvailableSlot)
	}

	for i := range options {
		options[i].Score = s.Rules.Score(options[i], job)
	}
	sortOptions(options, job.ID)

	best := options[0]
	result := models.SchedulingResult{
		JobID:         job.ID,
		CrewID:        best.Crew.ID,
		Date:          best.Date,
		StartHour:     best.StartHour,
		EndHour:       best.EndHour,
		TravelMinutes: best.TravelMinutes,
		DurationHours: best.DurationHours,
		Efficiency:    best.Efficiency,
		Score:         best.Score,
		Alternatives:  alternatives(options),
		Notes:         rationale(best, job),
		CreatedAt:     time.Now().UTC(),
	}

	s.Logger.Info().
		Str("job_id", job.ID).
		Str("crew_id", best.Crew.ID).
		Time("date", best.Date).
		Float64("score", best.Score).
		Int("options_considered", len(options)).
		Msg("job scheduled")
	return result, nil
}

// sortOptions ranks by score, then earliest date, then lowest travel, with
// a deterministic hash as the final tie-break so reruns agree.
func sortOptions(options []models.SchedulingOption, jobID string) {
	sort.Slice(options, func(i, j int) bool {
		if options[i].Score != options[j].Score {
			return options[i].Score > options[j].Score
		}
		if !options[i].Date.Equal(options[j].Date) {
			return options[i].Date.Before(options[j].Date)
		}
		if options[i].TravelMinutes != options[j].TravelMinutes {
			return options[i].TravelMinutes < options[j].TravelMinutes
		}
		hi := utils.StableHash(jobID, options[i].Crew.ID)
		hj := utils.StableHash(jobID, options[j].Crew.ID)
		return hi < hj
	})
}

func alternatives(ranked []models.SchedulingOption) []models.AlternativeSlot {
	var out []models.AlternativeSlot
	lastScore := ranked[0].Score
	for _, opt := range ranked[1:] {
		if len(out) == 3 {
			break
		}
		if opt.Score == lastScore {
			continue
		}
		lastScore = opt.Score
		out = append(out, models.AlternativeSlot{
			CrewID:        opt.Crew.ID,
			Date:          opt.Date,
			TravelMinutes: opt.TravelMinutes,
			Score:         opt.Score,
		})
	}
	return out
}

func rationale(best models.SchedulingOption, job models.Job) []string {
	var notes []string
	if best.Efficiency > 0.8 {
		notes = append(notes, "optimal crew/job match")
	}
	if best.Date.Equal(job.PreferredDate) {
		notes = append(notes, "scheduled on the preferred date")
	} else {
		days := int(best.Date.Sub(job.PreferredDate).Hours() / 24)
		notes = append(notes, fmt.Sprintf("shifted %+d days from the preferred date", days))
	}
	if best.TravelMinutes < 30 {
		notes = append(notes, "crew base is close to the job site")
	} else if best.TravelMinutes > 60 {
		notes = append(notes, "long travel from the crew base")
	}
	return notes
}
