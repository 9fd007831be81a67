package schedule

import (
	"github.com/swiftrelo/backend/internal/models"
	"github.com/swiftrelo/backend/internal/utils"
)

// Assumed average urban driving speed. Deliberately not turn-by-turn
// routing; great-circle distance at a constant speed is close enough for
// ranking crews against each other.
const urbanSpeedKmh = 40.0

func TravelMinutes(from, to models.Location) float64 {
	km := utils.DistanceKm(from, to)
	return km / urbanSpeedKmh * 60
}
