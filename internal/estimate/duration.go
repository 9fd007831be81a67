package estimate

import (
	"errors"
	"fmt"
	"math"

	"github.com/swiftrelo/backend/internal/models"
)

var ErrInvalidJobAttributes = errors.New("invalid job attributes")

const (
	RatingOptimal    = "optimal"
	RatingGood       = "good"
	RatingSuboptimal = "suboptimal"
)

type Estimator struct {
	Tables Tables
}

func NewEstimator(tables Tables) *Estimator {
	return &Estimator{Tables: tables}
}

// Estimate predicts total hours for the job when worked by crewSize movers.
// Pure function of its inputs; identical inputs produce identical output.
func (e *Estimator) Estimate(job models.Job, crewSize int) (models.DurationResult, error) {
	if err := ValidateJob(job); err != nil {
		return models.DurationResult{}, err
	}

	crew := crewSize
	if crew < 1 {
		crew = 1
	}
	if crew > 6 {
		crew = 6
	}

	t := e.Tables
	volume := effectiveVolume(job, t)
	area := effectiveArea(job, t)
	roomMult := roomMixMultiplier(job.Rooms, t.RoomWeights)
	concurrent := len(job.Services) >= 2

	var b models.DurationBreakdown

	if hasService(job.Services, models.ServiceMoving) {
		b.MovingHours = volume / rateFor(t.MovingM3PerHour, crew)
		// Loading and unloading run 40%/40% of base instead of 50%/50%
		// when a second service keeps part of the crew busy in parallel.
		if concurrent && crew >= 2 {
			b.MovingHours *= 0.8
		}
	}
	if hasService(job.Services, models.ServicePacking) {
		b.PackingHours = volume / rateFor(t.PackingM3PerHour, crew) * roomMult
		if concurrent && crew >= 3 && hasService(job.Services, models.ServiceMoving) {
			b.PackingHours *= 0.75
		}
	}
	if hasService(job.Services, models.ServiceCleaning) {
		b.CleaningHours = area / rateFor(t.CleaningM2PerHour, crew) * roomMult
		if concurrent && crew >= 2 && hasService(job.Services, models.ServiceMoving) {
			b.CleaningHours *= 0.8
		}
	}

	b.DrivingHours = e.drivingHours(job.DistanceKm, job.Traffic)
	b.LogisticsHours = e.logisticsHours(job.Origin, volume, crew) + e.logisticsHours(job.Destination, volume, crew)

	if job.HasPiano {
		b.AdditionalHours += t.PianoHours
	}
	if job.HasHeavy {
		b.AdditionalHours += 0.05 * (b.MovingHours + b.PackingHours)
	}

	labor := b.MovingHours + b.PackingHours + b.CleaningHours + b.LogisticsHours + b.AdditionalHours
	b.FatigueFactor = fatigueFactor(labor, crew)

	propertyFactor, ok := t.PropertyFactor[job.PropertyClass]
	if !ok {
		propertyFactor = t.PropertyFactor[models.PropertyApartment]
	}

	total := (labor*b.FatigueFactor + b.DrivingHours) * propertyFactor
	total = math.Ceil(total*4) / 4
	if total < t.MinBillableHours {
		total = t.MinBillableHours
	}

	optimal := OptimalCrewSize(volume)
	result := models.DurationResult{
		TotalHours:       total,
		Breakdown:        b,
		CrewSize:         crew,
		OptimalCrewSize:  optimal,
		EfficiencyRating: efficiencyRating(crew, optimal),
	}
	result.Recommendations = e.recommendations(job, crew, optimal, labor)
	return result, nil
}

func (e *Estimator) drivingHours(distanceKm float64, traffic string) float64 {
	t := e.Tables
	factor, ok := t.TrafficFactor[traffic]
	if !ok {
		factor = t.TrafficFactor[models.TrafficNormal]
	}
	hours := 2 * distanceKm / t.DrivingSpeedKmh * factor
	if traffic == models.TrafficRush && distanceKm > 20 {
		hours *= 1.1
	}
	return hours
}

func (e *Estimator) logisticsHours(ep models.Endpoint, volume float64, crew int) float64 {
	t := e.Tables
	penalty, ok := t.ElevatorPenaltyMin[ep.Elevator]
	if !ok {
		penalty = t.ElevatorPenaltyMin[models.ElevatorNone]
	}
	hours := float64(ep.Floors) * penalty / 60

	excess := ep.ParkingDistM - t.ParkingAllowanceM
	if excess > 0 && volume > 0 {
		trips := math.Ceil(volume / t.CarryVolumePerTrip)
		walkKm := 2 * excess / 1000 * trips
		hours += walkKm / t.CarryingSpeedKmh / float64(crew)
	}
	return hours
}

// fatigueFactor stretches long labor days; large crews rotate and damp it.
func fatigueFactor(laborHours float64, crew int) float64 {
	f := 1.0
	switch {
	case laborHours > 10:
		f = 1.15
	case laborHours > 8:
		f = 1.10
	case laborHours > 6:
		f = 1.05
	}
	switch {
	case crew >= 4:
		f = 1 + (f-1)*0.7
	case crew >= 3:
		f = 1 + (f-1)*0.85
	}
	return f
}

func OptimalCrewSize(volume float64) int {
	switch {
	case volume <= 15:
		return 2
	case volume <= 35:
		return 3
	default:
		return 4
	}
}

func efficiencyRating(crew, optimal int) string {
	diff := crew - optimal
	if diff < 0 {
		diff = -diff
	}
	switch diff {
	case 0:
		return RatingOptimal
	case 1:
		return RatingGood
	default:
		return RatingSuboptimal
	}
}

func (e *Estimator) recommendations(job models.Job, crew, optimal int, laborHours float64) []string {
	var out []string
	if job.Traffic == models.TrafficRush {
		out = append(out, "avoid rush-hour start, traffic adds significant driving time")
	}
	if crew < optimal {
		out = append(out, fmt.Sprintf("consider increasing crew size to %d for this volume", optimal))
	}
	if crew > optimal+1 {
		out = append(out, fmt.Sprintf("crew is larger than needed, %d movers would be sufficient", optimal))
	}
	if laborHours > 8 {
		out = append(out, "long working day, consider splitting across two days")
	}
	return out
}

func effectiveVolume(job models.Job, t Tables) float64 {
	if job.VolumeM3 > 0 {
		return job.VolumeM3
	}
	coeff, ok := t.VolumePerM2[job.PropertyClass]
	if !ok {
		coeff = t.VolumePerM2[models.PropertyApartment]
	}
	return job.LivingAreaM2 * coeff
}

func effectiveArea(job models.Job, t Tables) float64 {
	if job.LivingAreaM2 > 0 {
		return job.LivingAreaM2
	}
	coeff, ok := t.VolumePerM2[job.PropertyClass]
	if !ok {
		coeff = t.VolumePerM2[models.PropertyApartment]
	}
	if coeff == 0 {
		return 0
	}
	return job.VolumeM3 / coeff
}

func roomMixMultiplier(rooms map[string]int, weights map[string]float64) float64 {
	if len(rooms) == 0 {
		return 1.0
	}
	var count, weighted float64
	for room, n := range rooms {
		if n <= 0 {
			continue
		}
		w, ok := weights[room]
		if !ok {
			w = weights["other"]
		}
		count += float64(n)
		weighted += float64(n) * w
	}
	if count == 0 {
		return 1.0
	}
	mult := weighted / count
	if mult < 1.0 {
		mult = 1.0
	}
	return mult
}

func hasService(services []string, target string) bool {
	for _, s := range services {
		if s == target {
			return true
		}
	}
	return false
}

// ValidateJob rejects malformed input before any scheduling work happens.
func ValidateJob(job models.Job) error {
	if job.VolumeM3 < 0 || job.LivingAreaM2 < 0 || job.DistanceKm < 0 {
		return fmt.Errorf("%w: negative volume, area or distance", ErrInvalidJobAttributes)
	}
	if job.Origin.Floors < 0 || job.Destination.Floors < 0 {
		return fmt.Errorf("%w: negative floor count", ErrInvalidJobAttributes)
	}
	if job.Origin.ParkingDistM < 0 || job.Destination.ParkingDistM < 0 {
		return fmt.Errorf("%w: negative parking distance", ErrInvalidJobAttributes)
	}
	return nil
}
