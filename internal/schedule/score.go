package schedule

import (
	"math"
	"time"

	"github.com/swiftrelo/backend/internal/models"
)

// RuleSet is the versioned weighted-sum scoring strategy. There is no
// trained model behind it; explainability of the ranking is the point.
type RuleSet struct {
	Version string

	WeightEfficiency     float64
	WeightDatePreference float64
	WeightTravel         float64
	WeightCrewRating     float64
	WeightCost           float64

	HourlyRatePerMover  float64
	TravelCostPerMinute float64
	BenchmarkHourlyCost float64
}

func DefaultRuleSet() RuleSet {
	return RuleSet{
		Version:              "v1",
		WeightEfficiency:     0.30,
		WeightDatePreference: 0.25,
		WeightTravel:         0.20,
		WeightCrewRating:     0.15,
		WeightCost:           0.10,
		HourlyRatePerMover:   45.0,
		TravelCostPerMinute:  0.8,
		BenchmarkHourlyCost:  110.0,
	}
}

func (r RuleSet) Score(opt models.SchedulingOption, job models.Job) float64 {
	return opt.Efficiency*r.WeightEfficiency +
		datePreferenceScore(opt.Date, job.PreferredDate)*r.WeightDatePreference +
		travelScore(opt.TravelMinutes)*r.WeightTravel +
		opt.Crew.Rating*r.WeightCrewRating +
		r.costEfficiencyScore(opt)*r.WeightCost
}

// datePreferenceScore is a step ladder, not a continuous function, so small
// date deviations are not over-penalized relative to larger ones.
func datePreferenceScore(date, preferred time.Time) float64 {
	days := int(math.Abs(date.Sub(preferred).Hours()) / 24)
	switch {
	case days == 0:
		return 1.0
	case days <= 2:
		return 0.8
	case days <= 5:
		return 0.6
	case days <= 7:
		return 0.4
	default:
		return 0.2
	}
}

func travelScore(travelMin float64) float64 {
	s := 1 - travelMin/60
	if s < 0 {
		return 0
	}
	return s
}

// costEfficiencyScore rewards options cheaper than a flat benchmark for the
// job's duration. More expensive options score a flat neutral 0.5 so the
// ranking never degenerates into always picking the single cheapest crew.
func (r RuleSet) costEfficiencyScore(opt models.SchedulingOption) float64 {
	cost := opt.DurationHours*float64(opt.Crew.Size)*r.HourlyRatePerMover +
		opt.TravelMinutes*r.TravelCostPerMinute
	benchmark := opt.DurationHours * r.BenchmarkHourlyCost
	if benchmark <= 0 || cost > benchmark {
		return 0.5
	}
	return 0.5 + 0.5*(1-cost/benchmark)
}
