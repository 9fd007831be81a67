package geocode

import (
	"context"
	"errors"
	"strings"

	"github.com/swiftrelo/backend/internal/models"
)

var ErrNotFound = errors.New("geocode not found")

// Geocoder resolves an address to coordinates. Scheduling itself never
// geocodes; this runs at job intake for rows that arrive without lat/lon.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (lat float64, lon float64, displayName string, confidence float64, err error)
}

func BuildQuery(country string, address string) string {
	country = strings.TrimSpace(country)
	address = strings.TrimSpace(address)
	parts := []string{}
	if country != "" {
		parts = append(parts, country)
	}
	if address != "" {
		parts = append(parts, address)
	}
	return strings.Join(parts, ", ")
}

// ShouldGeocode reports whether a location still needs coordinates.
func ShouldGeocode(loc models.Location, force bool) bool {
	if force {
		return true
	}
	return loc.Lat == 0 && loc.Lon == 0
}
