package handlers

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/swiftrelo/backend/internal/geocode"
	"github.com/swiftrelo/backend/internal/models"
)

type ImportSummary struct {
	Jobs struct {
		Parsed   int `json:"parsed"`
		Inserted int `json:"inserted"`
		Errors   int `json:"errors"`
	} `json:"jobs"`
	Crews struct {
		Parsed   int `json:"parsed"`
		Inserted int `json:"inserted"`
		Errors   int `json:"errors"`
	} `json:"crews"`
	Geocoded int      `json:"geocoded"`
	Errors   []string `json:"errors"`
}

// @Summary Import CSV data
// @Description Upload jobs and crews CSV files, replacing current data
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param jobs formData file true "jobs.csv"
// @Param crews formData file true "crews.csv"
// @Success 200 {object} ImportSummary
// @Failure 400 {object} map[string]any
// @Router /api/import [post]
func (h *Handler) Import(c *gin.Context) {
	jobsFile, err := c.FormFile("jobs")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "jobs file required", nil)
		return
	}
	crewsFile, err := c.FormFile("crews")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "crews file required", nil)
		return
	}
	if !validateExt(jobsFile.Filename) || !validateExt(crewsFile.Filename) {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "all files must be .csv", nil)
		return
	}

	summary := ImportSummary{Errors: []string{}}
	ctx := c.Request.Context()

	jobs, errs := parseJobsCSV(jobsFile)
	summary.Jobs.Parsed = len(jobs)
	summary.Jobs.Errors = len(errs)
	summary.Errors = append(summary.Errors, errs...)

	crews, errs := parseCrewsCSV(crewsFile)
	summary.Crews.Parsed = len(crews)
	summary.Crews.Errors = len(errs)
	summary.Errors = append(summary.Errors, errs...)

	if len(summary.Errors) > 0 {
		writeError(c, http.StatusBadRequest, "CSV_PARSE_ERROR", "CSV validation errors", summary.Errors)
		return
	}

	summary.Geocoded = h.geocodeJobs(ctx, jobs)

	err = h.Store.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `TRUNCATE jobs, crews, bookings, scheduling_results RESTART IDENTITY`)
		return err
	})
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to reset tables", err.Error())
		return
	}

	inserted, err := h.Store.InsertJobs(ctx, jobs)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert jobs", err.Error())
		return
	}
	summary.Jobs.Inserted = int(inserted)

	inserted, err = h.Store.InsertCrews(ctx, crews)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert crews", err.Error())
		return
	}
	summary.Crews.Inserted = int(inserted)

	c.JSON(http.StatusOK, summary)
}

// geocodeJobs fills in coordinates for rows that only carry an address.
func (h *Handler) geocodeJobs(ctx context.Context, jobs []models.Job) int {
	if h.Geocoder == nil {
		return 0
	}
	geocoded := 0
	for i := range jobs {
		if !geocode.ShouldGeocode(jobs[i].Location, false) || jobs[i].Location.Address == "" {
			continue
		}
		query := geocode.BuildQuery(h.CountryDefault, jobs[i].Location.Address)
		lat, lon, _, _, err := h.Geocoder.Geocode(ctx, query)
		if err != nil {
			h.Logger.Warn().Err(err).Str("job_id", jobs[i].ID).Msg("geocoding failed")
			continue
		}
		jobs[i].Location.Lat = lat
		jobs[i].Location.Lon = lon
		geocoded++
	}
	return geocoded
}

func validateExt(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}

func parseJobsCSV(file *multipart.FileHeader) ([]models.Job, []string) {
	f, err := file.Open()
	if err != nil {
		return nil, []string{err.Error()}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	headers, err := reader.Read()
	if err != nil {
		return nil, []string{"failed to read header"}
	}
	index := headerIndex(headers)
	var errs []string
	var out []models.Job

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}

		id := normalizeTrim(getFieldAny(rec, index, "id", "job_id"))
		if id == "" {
			id = fmt.Sprintf("JOB-%04d", len(out)+1)
		}

		preferred, err := parseDate(getFieldAny(rec, index, "preferred_date", "date"))
		if err != nil {
			errs = append(errs, fmt.Sprintf("job %s: %v", id, err))
			continue
		}

		j := models.Job{
			ID:            id,
			CreatedAt:     time.Now().UTC(),
			PreferredDate: preferred,
			Flexibility:   normalizeEnum(getFieldAny(rec, index, "flexibility"), models.FlexibilityFixed, models.FlexibilityFixed, models.FlexibilityFlexible, models.FlexibilityVeryFlexible),
			Priority:      normalizeEnum(getFieldAny(rec, index, "priority"), models.PriorityMedium, models.PriorityLow, models.PriorityMedium, models.PriorityHigh),
			PropertyClass: normalizeEnum(getFieldAny(rec, index, "property_class", "property"), models.PropertyApartment, models.PropertyApartment, models.PropertyHouse, models.PropertyOffice),
			Traffic:       normalizeEnum(getFieldAny(rec, index, "traffic"), models.TrafficNormal, models.TrafficWeekend, models.TrafficNormal, models.TrafficRush),
			Services:      splitList(getFieldAny(rec, index, "services", "service_types")),
			CrewSize:      parseIntField(getFieldAny(rec, index, "crew_size")),
			LivingAreaM2:  parseFloatField(getFieldAny(rec, index, "living_area_m2", "living_area", "area")),
			VolumeM3:      parseFloatField(getFieldAny(rec, index, "volume_m3", "volume")),
			DistanceKm:    parseFloatField(getFieldAny(rec, index, "distance_km", "distance")),
			Location: models.Location{
				Lat:     parseFloatField(getFieldAny(rec, index, "lat")),
				Lon:     parseFloatField(getFieldAny(rec, index, "lon", "lng")),
				Address: normalizeTrim(getFieldAny(rec, index, "address")),
			},
			Origin: models.Endpoint{
				Floors:       parseIntField(getFieldAny(rec, index, "origin_floors")),
				Elevator:     normalizeEnum(getFieldAny(rec, index, "origin_elevator"), models.ElevatorNone, models.ElevatorNone, models.ElevatorSmall, models.ElevatorLarge),
				ParkingDistM: parseFloatField(getFieldAny(rec, index, "origin_parking_m")),
			},
			Destination: models.Endpoint{
				Floors:       parseIntField(getFieldAny(rec, index, "dest_floors")),
				Elevator:     normalizeEnum(getFieldAny(rec, index, "dest_elevator"), models.ElevatorNone, models.ElevatorNone, models.ElevatorSmall, models.ElevatorLarge),
				ParkingDistM: parseFloatField(getFieldAny(rec, index, "dest_parking_m")),
			},
			HasPiano:   parseBoolField(getFieldAny(rec, index, "has_piano", "piano")),
			HasFragile: parseBoolField(getFieldAny(rec, index, "has_fragile", "fragile")),
			HasHeavy:   parseBoolField(getFieldAny(rec, index, "has_heavy", "heavy")),
		}
		if len(j.Services) == 0 {
			j.Services = []string{models.ServiceMoving}
		}
		if j.VolumeM3 < 0 || j.LivingAreaM2 < 0 || j.DistanceKm < 0 {
			errs = append(errs, fmt.Sprintf("job %s: negative numeric field", id))
			continue
		}
		out = append(out, j)
	}
	return out, errs
}

func parseCrewsCSV(file *multipart.FileHeader) ([]models.Crew, []string) {
	f, err := file.Open()
	if err != nil {
		return nil, []string{err.Error()}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	headers, err := reader.Read()
	if err != nil {
		return nil, []string{"failed to read header"}
	}
	index := headerIndex(headers)
	var errs []string
	var out []models.Crew

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}

		id := normalizeTrim(getFieldAny(rec, index, "id", "crew_id"))
		if id == "" {
			id = fmt.Sprintf("CREW-%03d", len(out)+1)
		}

		crew := models.Crew{
			ID:              id,
			Name:            normalizeTrim(getFieldAny(rec, index, "name")),
			Size:            parseIntField(getFieldAny(rec, index, "size", "headcount")),
			Skills:          splitList(getFieldAny(rec, index, "skills")),
			VehicleCapacity: parseFloatField(getFieldAny(rec, index, "vehicle_capacity_m3", "vehicle_capacity")),
			ShiftStartHour:  parseIntField(getFieldAny(rec, index, "shift_start_hour", "shift_start")),
			ShiftEndHour:    parseIntField(getFieldAny(rec, index, "shift_end_hour", "shift_end")),
			Rating:          parseFloatField(getFieldAny(rec, index, "rating")),
			UpdatedAt:       time.Now().UTC(),
			HomeBase: models.Location{
				Lat:     parseFloatField(getFieldAny(rec, index, "lat")),
				Lon:     parseFloatField(getFieldAny(rec, index, "lon", "lng")),
				Address: normalizeTrim(getFieldAny(rec, index, "address")),
			},
		}
		if crew.Size <= 0 {
			errs = append(errs, fmt.Sprintf("crew %s: size must be positive", id))
			continue
		}
		if crew.Rating < 0 || crew.Rating > 1 {
			errs = append(errs, fmt.Sprintf("crew %s: rating must be in [0,1]", id))
			continue
		}
		if crew.ShiftEndHour <= crew.ShiftStartHour {
			crew.ShiftStartHour, crew.ShiftEndHour = 8, 17
		}
		out = append(out, crew)
	}
	return out, errs
}

func headerIndex(headers []string) map[string]int {
	index := map[string]int{}
	for i, hdr := range headers {
		index[strings.ToLower(strings.TrimSpace(hdr))] = i
	}
	return index
}

func getFieldAny(rec []string, index map[string]int, names ...string) string {
	for _, name := range names {
		if i, ok := index[name]; ok && i < len(rec) {
			return rec[i]
		}
	}
	return ""
}

func normalizeTrim(v string) string {
	return strings.TrimSpace(v)
}

func normalizeEnum(v string, fallback string, allowed ...string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, a := range allowed {
		if v == a {
			return a
		}
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ";") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, fmt.Errorf("missing preferred date")
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", v)
}

func parseIntField(v string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(v))
	return n
}

func parseFloatField(v string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f
}

func parseBoolField(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "1" || v == "true" || v == "yes"
}
