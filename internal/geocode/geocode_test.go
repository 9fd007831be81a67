package geocode

import (
	"testing"

	"github.com/swiftrelo/backend/internal/models"
)

func TestBuildQuery(t *testing.T) {
	q := BuildQuery("Sweden", "Kungsgatan 12, Stockholm")
	if q != "Sweden, Kungsgatan 12, Stockholm" {
		t.Fatalf("unexpected query: %s", q)
	}
	if q := BuildQuery("", "Kungsgatan 12"); q != "Kungsgatan 12" {
		t.Fatalf("unexpected query without country: %s", q)
	}
}

func TestShouldGeocode(t *testing.T) {
	withCoords := models.Location{Lat: 59.33, Lon: 18.07, Address: "Kungsgatan 12"}
	if ShouldGeocode(withCoords, false) {
		t.Fatalf("expected geocode to be skipped when coordinates exist")
	}
	if !ShouldGeocode(withCoords, true) {
		t.Fatalf("expected geocode when forced")
	}
	if !ShouldGeocode(models.Location{Address: "Kungsgatan 12"}, false) {
		t.Fatalf("expected geocode for missing coordinates")
	}
}
