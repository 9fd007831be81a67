package estimate

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/swiftrelo/backend/internal/models"
)

func apartmentJob() models.Job {
	return models.Job{
		ID:            "j1",
		Services:      []string{models.ServiceMoving},
		CrewSize:      2,
		PreferredDate: time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		Flexibility:   models.FlexibilityFlexible,
		Priority:      models.PriorityMedium,
		LivingAreaM2:  80,
		PropertyClass: models.PropertyApartment,
		DistanceKm:    26.8,
		Traffic:       models.TrafficNormal,
	}
}

func TestEstimateApartmentCrewOfTwo(t *testing.T) {
	e := NewEstimator(DefaultTables())
	res, err := e.Estimate(apartmentJob(), 2)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	// 24 m³ / 4.5 m³/h plus 1.34h round-trip driving, quarter-rounded.
	if res.TotalHours < 6.5 || res.TotalHours > 7.0 {
		t.Fatalf("expected 6.5-7.0h, got %.2f", res.TotalHours)
	}
	if res.Breakdown.MovingHours < 5.3 || res.Breakdown.MovingHours > 5.4 {
		t.Fatalf("unexpected moving hours %.2f", res.Breakdown.MovingHours)
	}
	if res.Breakdown.DrivingHours < 1.33 || res.Breakdown.DrivingHours > 1.35 {
		t.Fatalf("unexpected driving hours %.2f", res.Breakdown.DrivingHours)
	}
}

func TestEstimateCrewOfThreeDropsSharply(t *testing.T) {
	e := NewEstimator(DefaultTables())
	two, err := e.Estimate(apartmentJob(), 2)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	three, err := e.Estimate(apartmentJob(), 3)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if three.TotalHours >= two.TotalHours {
		t.Fatalf("expected crew of 3 to be faster: 2→%.2f 3→%.2f", two.TotalHours, three.TotalHours)
	}
	if two.TotalHours-three.TotalHours < 2 {
		t.Fatalf("expected a sharp drop from the throughput table, got %.2f vs %.2f", two.TotalHours, three.TotalHours)
	}
}

func TestEstimateMonotonicInCrewSize(t *testing.T) {
	e := NewEstimator(DefaultTables())
	job := apartmentJob()
	prev := 0.0
	for crew := 1; crew <= 4; crew++ {
		res, err := e.Estimate(job, crew)
		if err != nil {
			t.Fatalf("estimate crew %d: %v", crew, err)
		}
		if crew > 1 && res.TotalHours > prev {
			t.Fatalf("hours increased from crew %d (%.2f) to %d (%.2f)", crew-1, prev, crew, res.TotalHours)
		}
		prev = res.TotalHours
	}
}

func TestEstimateMinimumBillableFloor(t *testing.T) {
	e := NewEstimator(DefaultTables())
	job := apartmentJob()
	job.LivingAreaM2 = 10
	job.DistanceKm = 1
	res, err := e.Estimate(job, 4)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if res.TotalHours < 3 {
		t.Fatalf("expected 3h billable floor, got %.2f", res.TotalHours)
	}
}

func TestEstimateIdempotent(t *testing.T) {
	e := NewEstimator(DefaultTables())
	job := apartmentJob()
	job.Services = []string{models.ServiceMoving, models.ServicePacking, models.ServiceCleaning}
	job.Rooms = map[string]int{"kitchen": 1, "bathroom": 1, "bedroom": 2}
	a, err := e.Estimate(job, 3)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	b, err := e.Estimate(job, 3)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical results, got %+v vs %+v", a, b)
	}
}

func TestEstimateZeroVolumeDoesNotPanic(t *testing.T) {
	e := NewEstimator(DefaultTables())
	job := apartmentJob()
	job.LivingAreaM2 = 0
	job.VolumeM3 = 0
	res, err := e.Estimate(job, 0)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if res.TotalHours < 3 {
		t.Fatalf("expected billable floor, got %.2f", res.TotalHours)
	}
}

func TestEstimateUnknownEnumsFallBackConservative(t *testing.T) {
	e := NewEstimator(DefaultTables())
	job := apartmentJob()
	job.Origin = models.Endpoint{Floors: 3, Elevator: "freight"}
	unknown, err := e.Estimate(job, 2)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	job.Origin.Elevator = models.ElevatorNone
	none, err := e.Estimate(job, 2)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if unknown.TotalHours != none.TotalHours {
		t.Fatalf("unknown elevator should price like none: %.2f vs %.2f", unknown.TotalHours, none.TotalHours)
	}

	job.PropertyClass = "castle"
	if _, err := e.Estimate(job, 2); err != nil {
		t.Fatalf("unknown property class should fall back, got %v", err)
	}
}

func TestEstimateOverlapDiscounts(t *testing.T) {
	e := NewEstimator(DefaultTables())
	job := apartmentJob()
	job.Services = []string{models.ServiceMoving, models.ServiceCleaning}
	res, err := e.Estimate(job, 2)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	// Moving runs at 80% of base when a second service overlaps.
	want := 24.0 / 4.5 * 0.8
	if res.Breakdown.MovingHours < want-0.01 || res.Breakdown.MovingHours > want+0.01 {
		t.Fatalf("expected overlapped moving %.2f, got %.2f", want, res.Breakdown.MovingHours)
	}
}

func TestEstimateRushTrafficPenalty(t *testing.T) {
	e := NewEstimator(DefaultTables())
	job := apartmentJob()
	job.Traffic = models.TrafficRush
	res, err := e.Estimate(job, 2)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	// 26.8 km > 20 km, so rush gets the extra 1.1 on top of 1.4.
	want := 2 * 26.8 / 40 * 1.4 * 1.1
	if res.Breakdown.DrivingHours < want-0.01 || res.Breakdown.DrivingHours > want+0.01 {
		t.Fatalf("expected rush driving %.2f, got %.2f", want, res.Breakdown.DrivingHours)
	}
	if len(res.Recommendations) == 0 {
		t.Fatalf("expected a rush-hour recommendation")
	}
}

func TestEstimateRejectsNegativeInput(t *testing.T) {
	e := NewEstimator(DefaultTables())
	job := apartmentJob()
	job.DistanceKm = -5
	if _, err := e.Estimate(job, 2); !errors.Is(err, ErrInvalidJobAttributes) {
		t.Fatalf("expected ErrInvalidJobAttributes, got %v", err)
	}
}

func TestDeriveRequirementsPiano(t *testing.T) {
	job := apartmentJob()
	job.HasPiano = true
	req, err := DeriveRequirements(job, DefaultTables())
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if req.TeamSize < 3 {
		t.Fatalf("piano must raise team size to 3, got %d", req.TeamSize)
	}
	if req.Complexity < 1.5 {
		t.Fatalf("piano must raise complexity to at least 1.5, got %.2f", req.Complexity)
	}
	found := false
	for _, s := range req.Skills {
		if s == SkillPiano {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected piano skill in %v", req.Skills)
	}

	e := NewEstimator(DefaultTables())
	res, err := e.Estimate(job, 2)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if res.Breakdown.AdditionalHours < 1.5 {
		t.Fatalf("expected piano penalty in additional hours, got %.2f", res.Breakdown.AdditionalHours)
	}
}

func TestDeriveRequirementsHonorsOrderedCrewSize(t *testing.T) {
	job := apartmentJob()
	job.VolumeM3 = 10
	job.CrewSize = 5
	req, err := DeriveRequirements(job, DefaultTables())
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if req.TeamSize != 5 {
		t.Fatalf("ordered crew of 5 must floor team size at 5, got %d", req.TeamSize)
	}

	// A small order never caps the volume-driven heuristic.
	big := apartmentJob()
	big.VolumeM3 = 50
	big.CrewSize = 1
	req, err = DeriveRequirements(big, DefaultTables())
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if req.TeamSize < 4 {
		t.Fatalf("large volume must keep team size at 4, got %d", req.TeamSize)
	}
}

func TestDeriveRequirementsComplexityInvariant(t *testing.T) {
	jobs := []models.Job{apartmentJob()}
	heavy := apartmentJob()
	heavy.HasHeavy = true
	heavy.HasFragile = true
	jobs = append(jobs, heavy)

	for _, job := range jobs {
		req, err := DeriveRequirements(job, DefaultTables())
		if err != nil {
			t.Fatalf("derive: %v", err)
		}
		if req.Complexity < 1.0 {
			t.Fatalf("complexity must stay >= 1.0, got %.2f", req.Complexity)
		}
	}
}
