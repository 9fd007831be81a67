package geocode

import (
	"errors"
	"testing"
)

func TestParseNominatimItems(t *testing.T) {
	hit, err := parseNominatimItems([]nominatimItem{
		{Lat: "59.3293", Lon: "18.0686", DisplayName: "Stockholm, Sweden", Importance: 0.83},
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if hit.Lat != 59.3293 || hit.Lon != 18.0686 {
		t.Fatalf("unexpected coordinates: %+v", hit)
	}
	if hit.Confidence != 0.83 {
		t.Fatalf("unexpected confidence: %f", hit.Confidence)
	}
}

func TestParseNominatimItemsEmpty(t *testing.T) {
	if _, err := parseNominatimItems(nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestParseNominatimItemsBadCoordinates(t *testing.T) {
	if _, err := parseNominatimItems([]nominatimItem{{Lat: "not-a-number", Lon: "18.0"}}); err == nil {
		t.Fatalf("expected parse error")
	}
}
