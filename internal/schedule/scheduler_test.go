package schedule

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/swiftrelo/backend/internal/availability"
	"github.com/swiftrelo/backend/internal/estimate"
	"github.com/swiftrelo/backend/internal/models"
)

// fakeOracle marks specific (crew, date) pairs busy and can fail on demand.
type fakeOracle struct {
	busy map[string]bool
	err  error
}

func (f *fakeOracle) IsAvailable(ctx context.Context, crewID string, date time.Time, durationHours float64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return !f.busy[crewID+"|"+date.Format("2006-01-02")], nil
}

func markBusy(f *fakeOracle, crewID string, date time.Time) {
	if f.busy == nil {
		f.busy = map[string]bool{}
	}
	f.busy[crewID+"|"+date.Format("2006-01-02")] = true
}

// 2026-09-15 is a Tuesday.
var tuesday = time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

func testJob(id string) models.Job {
	return models.Job{
		ID:            id,
		Location:      models.Location{Lat: 59.3293, Lon: 18.0686},
		Services:      []string{models.ServiceMoving},
		CrewSize:      3,
		PreferredDate: tuesday,
		Flexibility:   models.FlexibilityFlexible,
		Priority:      models.PriorityMedium,
		LivingAreaM2:  80,
		PropertyClass: models.PropertyApartment,
		DistanceKm:    10,
		Traffic:       models.TrafficNormal,
	}
}

func testCrews() []models.Crew {
	return []models.Crew{
		{
			ID: "c1", Name: "North", Size: 3, VehicleCapacity: 30,
			HomeBase:       models.Location{Lat: 59.33, Lon: 18.07},
			Skills:         []string{"moving", "packing", "cleaning"},
			ShiftStartHour: 8, ShiftEndHour: 18, Rating: 0.8,
		},
		{
			ID: "c2", Name: "South", Size: 4, VehicleCapacity: 45,
			HomeBase:       models.Location{Lat: 59.20, Lon: 17.90},
			Skills:         []string{"moving", "packing", "cleaning", "piano"},
			ShiftStartHour: 8, ShiftEndHour: 18, Rating: 0.6,
		},
	}
}

func testScheduler(oracle availability.Oracle) *Scheduler {
	est := estimate.NewEstimator(estimate.DefaultTables())
	gen := &Generator{Oracle: oracle, Estimator: est}
	return NewScheduler(est, gen, DefaultRuleSet(), zerolog.Nop())
}

func TestScheduleJobPicksBestOption(t *testing.T) {
	s := testScheduler(&fakeOracle{})
	res, err := s.ScheduleJob(context.Background(), testJob("j1"), testCrews())
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if res.CrewID != "c1" {
		t.Fatalf("expected the close, exact-size crew to win, got %s", res.CrewID)
	}
	if !res.Date.Equal(tuesday) {
		t.Fatalf("expected the preferred date, got %s", res.Date)
	}
	if len(res.Alternatives) == 0 || len(res.Alternatives) > 3 {
		t.Fatalf("expected 1-3 alternatives, got %d", len(res.Alternatives))
	}
	if len(res.Notes) == 0 {
		t.Fatalf("expected rationale notes")
	}
	want := res.DurationHours - 2*res.TravelMinutes/60
	if want <= 0 {
		t.Fatalf("duration %.2f must exceed round-trip travel", res.DurationHours)
	}
}

func TestScheduleJobAlternativesHaveDistinctScores(t *testing.T) {
	s := testScheduler(&fakeOracle{})
	res, err := s.ScheduleJob(context.Background(), testJob("j1"), testCrews())
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	seen := map[float64]bool{res.Score: true}
	for _, alt := range res.Alternatives {
		if seen[alt.Score] {
			t.Fatalf("duplicate alternative score %.4f", alt.Score)
		}
		seen[alt.Score] = true
	}
}

func TestScheduleJobNoCapableCrew(t *testing.T) {
	s := testScheduler(&fakeOracle{})
	job := testJob("j1")
	job.HasPiano = true

	crews := []models.Crew{testCrews()[0]} // c1 has no piano skill
	_, err := s.ScheduleJob(context.Background(), job, crews)
	if !errors.Is(err, ErrNoCapableCrew) {
		t.Fatalf("expected ErrNoCapableCrew, got %v", err)
	}
	if ReasonFor(err) != ReasonNoCapableCrew {
		t.Fatalf("expected NO_CAPABLE_CREW reason, got %s", ReasonFor(err))
	}
}

func TestScheduleJobFixedDateUnavailable(t *testing.T) {
	oracle := &fakeOracle{}
	for _, c := range testCrews() {
		markBusy(oracle, c.ID, tuesday)
	}
	s := testScheduler(oracle)

	job := testJob("j1")
	job.Flexibility = models.FlexibilityFixed
	_, err := s.ScheduleJob(context.Background(), job, testCrews())
	if !errors.Is(err, ErrNoAvailableSlot) {
		t.Fatalf("expected ErrNoAvailableSlot, got %v", err)
	}
}

func TestScheduleJobWeekendSkippedUnlessHighPriority(t *testing.T) {
	saturday := time.Date(2026, 9, 19, 0, 0, 0, 0, time.UTC)
	s := testScheduler(&fakeOracle{})

	job := testJob("j1")
	job.PreferredDate = saturday
	job.Flexibility = models.FlexibilityFixed
	if _, err := s.ScheduleJob(context.Background(), job, testCrews()); !errors.Is(err, ErrNoAvailableSlot) {
		t.Fatalf("expected weekend skip for medium priority, got %v", err)
	}

	job.Priority = models.PriorityHigh
	res, err := s.ScheduleJob(context.Background(), job, testCrews())
	if err != nil {
		t.Fatalf("expected weekend slot for high priority, got %v", err)
	}
	if !res.Date.Equal(saturday) {
		t.Fatalf("expected saturday, got %s", res.Date)
	}
}

func TestScheduleJobOracleErrorPropagates(t *testing.T) {
	oracle := &fakeOracle{err: fmt.Errorf("%w: schedule store down", availability.ErrOracle)}
	s := testScheduler(oracle)

	_, err := s.ScheduleJob(context.Background(), testJob("j1"), testCrews())
	if !errors.Is(err, availability.ErrOracle) {
		t.Fatalf("expected oracle error, got %v", err)
	}
	if ReasonFor(err) != ReasonOracleError {
		t.Fatalf("expected AVAILABILITY_ORACLE_ERROR, got %s", ReasonFor(err))
	}
}

func TestScheduleJobInvalidAttributesRejected(t *testing.T) {
	s := testScheduler(&fakeOracle{})
	job := testJob("j1")
	job.VolumeM3 = -1
	_, err := s.ScheduleJob(context.Background(), job, testCrews())
	if !errors.Is(err, estimate.ErrInvalidJobAttributes) {
		t.Fatalf("expected ErrInvalidJobAttributes, got %v", err)
	}
}

func TestBlendEfficiencyClamped(t *testing.T) {
	crew := models.Crew{Size: 3, Rating: 1.0}
	req := models.Requirements{TeamSize: 3}
	date := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	eff := blendEfficiency(crew, req, 5, 10, date)
	if eff > 1.0 {
		t.Fatalf("efficiency must clamp to 1.0, got %.2f", eff)
	}

	crew.Rating = 0.0
	crew.Size = 5
	eff = blendEfficiency(crew, req, 90, 7, time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC))
	if eff < 0 {
		t.Fatalf("efficiency must clamp to 0, got %.2f", eff)
	}
}
