package estimate

import (
	"fmt"

	"github.com/swiftrelo/backend/internal/models"
)

const (
	SkillPiano   = "piano"
	SkillFragile = "fragile"
)

// DeriveRequirements turns a job into the minimum crew profile needed to
// execute it. The same complexity rules feed both crew filtering and the
// duration model's special-item handling.
func DeriveRequirements(job models.Job, tables Tables) (models.Requirements, error) {
	if err := ValidateJob(job); err != nil {
		return models.Requirements{}, err
	}
	if job.PreferredDate.IsZero() {
		return models.Requirements{}, fmt.Errorf("%w: missing preferred date", ErrInvalidJobAttributes)
	}

	volume := effectiveVolume(job, tables)

	req := models.Requirements{
		TeamSize:        OptimalCrewSize(volume),
		VehicleCapacity: volume,
		Complexity:      1.0,
	}
	// The customer's ordered crew size is a floor, never a ceiling.
	if job.CrewSize > req.TeamSize {
		req.TeamSize = job.CrewSize
	}

	req.Skills = append(req.Skills, job.Services...)

	if job.HasPiano {
		req.Complexity *= 1.5
		req.Skills = append(req.Skills, SkillPiano)
		if req.TeamSize < 3 {
			req.TeamSize = 3
		}
	}
	if job.HasHeavy {
		req.Complexity += 0.2
	}
	if job.HasFragile {
		req.Complexity += 0.1
		req.Skills = append(req.Skills, SkillFragile)
	}

	return req, nil
}
