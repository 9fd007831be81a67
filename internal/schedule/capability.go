package schedule

import (
	"strings"

	"github.com/swiftrelo/backend/internal/models"
)

type FilterResult struct {
	Eligible   []models.Crew
	ReasonCode string
	ReasonText string
	Stages     []FilterStage
}

type FilterStage struct {
	Name       string
	Candidates []models.Crew
}

// FilterCapableCrews keeps only crews that can physically execute the job:
// enough people, a big enough vehicle, every required skill. Each stage is
// recorded so a failed filter can explain which rule emptied the pool.
func FilterCapableCrews(crews []models.Crew, req models.Requirements) FilterResult {
	result := FilterResult{}
	result.Stages = append(result.Stages, FilterStage{
		Name:       "roster",
		Candidates: crews,
	})

	if len(crews) == 0 {
		result.ReasonCode = ReasonNoCapableCrew
		result.ReasonText = "No crews in roster"
		return result
	}

	afterSize := filterCrews(crews, func(c models.Crew) bool {
		return c.Size >= req.TeamSize
	})
	result.Stages = append(result.Stages, FilterStage{
		Name:       "size_rule",
		Candidates: afterSize,
	})
	if len(afterSize) == 0 {
		result.ReasonCode = ReasonCrewTooSmall
		result.ReasonText = "No crew large enough"
		return result
	}

	afterCapacity := filterCrews(afterSize, func(c models.Crew) bool {
		return c.VehicleCapacity >= req.VehicleCapacity
	})
	result.Stages = append(result.Stages, FilterStage{
		Name:       "capacity_rule",
		Candidates: afterCapacity,
	})
	if len(afterCapacity) == 0 {
		result.ReasonCode = ReasonVehicleTooSmall
		result.ReasonText = "No vehicle with enough capacity"
		return result
	}

	afterSkills := filterCrews(afterCapacity, func(c models.Crew) bool {
		for _, skill := range req.Skills {
			if !hasSkill(c.Skills, skill) {
				return false
			}
		}
		return true
	})
	result.Stages = append(result.Stages, FilterStage{
		Name:       "skills_rule",
		Candidates: afterSkills,
	})
	if len(afterSkills) == 0 {
		result.ReasonCode = ReasonMissingSkills
		result.ReasonText = "No crew with the required skills"
		return result
	}

	result.Eligible = afterSkills
	return result
}

func hasSkill(skills []string, target string) bool {
	for _, s := range skills {
		if strings.EqualFold(strings.TrimSpace(s), target) {
			return true
		}
	}
	return false
}

func filterCrews(crews []models.Crew, keep func(models.Crew) bool) []models.Crew {
	out := make([]models.Crew, 0, len(crews))
	for _, c := range crews {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}
