package estimate

// Tables holds the tunable lookup data behind the duration model.
// Values are injected so deployments can recalibrate per market without
// touching the algorithm.
type Tables struct {
	// Crew-size → throughput. Superlinear up to 4-5 movers (parallel
	// loading/unloading), diminishing at 6.
	MovingM3PerHour   map[int]float64
	PackingM3PerHour  map[int]float64
	CleaningM2PerHour map[int]float64

	// Minutes lost per floor carried, by elevator class.
	ElevatorPenaltyMin map[string]float64

	// m³ of goods per m² of living area, by property class.
	VolumePerM2 map[string]float64

	PropertyFactor map[string]float64

	// Relative effort weight per room type for packing and cleaning.
	RoomWeights map[string]float64

	TrafficFactor map[string]float64

	DrivingSpeedKmh    float64
	CarryingSpeedKmh   float64
	ParkingAllowanceM  float64
	CarryVolumePerTrip float64
	PianoHours         float64
	MinBillableHours   float64
}

func DefaultTables() Tables {
	return Tables{
		MovingM3PerHour: map[int]float64{
			1: 2.0, 2: 4.5, 3: 10.0, 4: 14.0, 5: 16.0, 6: 17.0,
		},
		PackingM3PerHour: map[int]float64{
			1: 1.5, 2: 3.5, 3: 7.0, 4: 10.0, 5: 12.0, 6: 13.0,
		},
		CleaningM2PerHour: map[int]float64{
			1: 15.0, 2: 35.0, 3: 60.0, 4: 80.0, 5: 95.0, 6: 100.0,
		},
		ElevatorPenaltyMin: map[string]float64{
			"none": 20.0, "small": 8.0, "large": 2.0,
		},
		VolumePerM2: map[string]float64{
			"apartment": 0.30, "house": 0.40, "office": 0.25,
		},
		PropertyFactor: map[string]float64{
			"apartment": 1.0, "house": 1.0, "office": 0.9,
		},
		RoomWeights: map[string]float64{
			"kitchen": 1.5, "bathroom": 1.4, "bedroom": 1.0, "living": 1.0, "other": 1.0,
		},
		TrafficFactor: map[string]float64{
			"weekend": 0.9, "normal": 1.0, "rush": 1.4,
		},
		DrivingSpeedKmh:    40.0,
		CarryingSpeedKmh:   5.0,
		ParkingAllowanceM:  20.0,
		CarryVolumePerTrip: 0.25,
		PianoHours:         1.5,
		MinBillableHours:   3.0,
	}
}

// rateFor clamps crew size into the table range so a size of 0 or 9 never
// divides by zero or misses a tier.
func rateFor(table map[int]float64, crew int) float64 {
	if crew < 1 {
		crew = 1
	}
	if crew > 6 {
		crew = 6
	}
	return table[crew]
}
