package models

import "time"

const (
	FlexibilityFixed        = "fixed"
	FlexibilityFlexible     = "flexible"
	FlexibilityVeryFlexible = "very_flexible"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

const (
	PropertyApartment = "apartment"
	PropertyHouse     = "house"
	PropertyOffice    = "office"
)

const (
	ElevatorNone  = "none"
	ElevatorSmall = "small"
	ElevatorLarge = "large"
)

const (
	TrafficWeekend = "weekend"
	TrafficNormal  = "normal"
	TrafficRush    = "rush"
)

const (
	ServiceMoving   = "moving"
	ServicePacking  = "packing"
	ServiceCleaning = "cleaning"
)

type Location struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Address string  `json:"address,omitempty"`
}

// Endpoint describes one side of a move (origin or destination).
type Endpoint struct {
	Floors       int     `json:"floors"`
	Elevator     string  `json:"elevator"`
	ParkingDistM float64 `json:"parking_dist_m"`
}

type Job struct {
	ID            string         `json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	Location      Location       `json:"location"`
	Services      []string       `json:"services"`
	CrewSize      int            `json:"crew_size"`
	PreferredDate time.Time      `json:"preferred_date"`
	Flexibility   string         `json:"flexibility"`
	Priority      string         `json:"priority"`
	LivingAreaM2  float64        `json:"living_area_m2"`
	PropertyClass string         `json:"property_class"`
	VolumeM3      float64        `json:"volume_m3"`
	DistanceKm    float64        `json:"distance_km"`
	Traffic       string         `json:"traffic"`
	Origin        Endpoint       `json:"origin"`
	Destination   Endpoint       `json:"destination"`
	Rooms         map[string]int `json:"rooms,omitempty"`
	HasPiano      bool           `json:"has_piano"`
	HasFragile    bool           `json:"has_fragile"`
	HasHeavy      bool           `json:"has_heavy"`
}

type Crew struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Size            int       `json:"size"`
	HomeBase        Location  `json:"home_base"`
	Skills          []string  `json:"skills"`
	VehicleCapacity float64   `json:"vehicle_capacity_m3"`
	ShiftStartHour  int       `json:"shift_start_hour"`
	ShiftEndHour    int       `json:"shift_end_hour"`
	Rating          float64   `json:"rating"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Requirements is derived from a Job before scheduling; never persisted.
type Requirements struct {
	TeamSize        int      `json:"team_size"`
	VehicleCapacity float64  `json:"vehicle_capacity_m3"`
	Skills          []string `json:"skills"`
	Complexity      float64  `json:"complexity"`
}

type DurationBreakdown struct {
	MovingHours     float64 `json:"moving_hours"`
	PackingHours    float64 `json:"packing_hours"`
	CleaningHours   float64 `json:"cleaning_hours"`
	DrivingHours    float64 `json:"driving_hours"`
	LogisticsHours  float64 `json:"logistics_hours"`
	AdditionalHours float64 `json:"additional_hours"`
	FatigueFactor   float64 `json:"fatigue_factor"`
}

type DurationResult struct {
	TotalHours       float64           `json:"total_hours"`
	Breakdown        DurationBreakdown `json:"breakdown"`
	CrewSize         int               `json:"crew_size"`
	OptimalCrewSize  int               `json:"optimal_crew_size"`
	EfficiencyRating string            `json:"efficiency_rating"`
	Recommendations  []string          `json:"recommendations,omitempty"`
}

type SchedulingOption struct {
	Crew          Crew      `json:"crew"`
	Date          time.Time `json:"date"`
	StartHour     int       `json:"start_hour"`
	EndHour       int       `json:"end_hour"`
	TravelMinutes float64   `json:"travel_minutes"`
	DurationHours float64   `json:"duration_hours"`
	Efficiency    float64   `json:"efficiency"`
	Score         float64   `json:"score"`
	Notes         []string  `json:"notes,omitempty"`
}

type AlternativeSlot struct {
	CrewID        string    `json:"crew_id"`
	Date          time.Time `json:"date"`
	TravelMinutes float64   `json:"travel_minutes"`
	Score         float64   `json:"score"`
}

type SchedulingResult struct {
	JobID         string            `json:"job_id"`
	CrewID        string            `json:"crew_id"`
	Date          time.Time         `json:"date"`
	StartHour     int               `json:"start_hour"`
	EndHour       int               `json:"end_hour"`
	TravelMinutes float64           `json:"travel_minutes"`
	DurationHours float64           `json:"duration_hours"`
	Efficiency    float64           `json:"efficiency"`
	Score         float64           `json:"score"`
	Alternatives  []AlternativeSlot `json:"alternatives,omitempty"`
	Notes         []string          `json:"notes,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

type Booking struct {
	ID            string    `json:"id"`
	CrewID        string    `json:"crew_id"`
	JobID         string    `json:"job_id"`
	Date          time.Time `json:"date"`
	DurationHours float64   `json:"duration_hours"`
	CreatedAt     time.Time `json:"created_at"`
}

type Run struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Status     string     `json:"status"`
	Summary    []byte     `json:"summary"`
}
