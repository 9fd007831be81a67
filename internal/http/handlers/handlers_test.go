package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/swiftrelo/backend/internal/estimate"
	"github.com/swiftrelo/backend/internal/models"
)

func estimateRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &Handler{
		Estimator: estimate.NewEstimator(estimate.DefaultTables()),
		Validator: validator.New(),
		Logger:    zerolog.Nop(),
	}
	r := gin.New()
	r.POST("/api/estimate", h.Estimate)
	return r
}

func TestEstimateEndpoint(t *testing.T) {
	body := `{
		"services": ["moving"],
		"crew_size": 2,
		"living_area_m2": 80,
		"property_class": "apartment",
		"volume_m3": 24,
		"distance_km": 26.8,
		"traffic": "normal",
		"origin": {"floors": 0, "elevator": "none", "parking_dist_m": 10},
		"destination": {"floors": 0, "elevator": "none", "parking_dist_m": 10}
	}`

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/estimate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	estimateRouter().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var result models.DurationResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.TotalHours < 6.0 || result.TotalHours > 7.5 {
		t.Fatalf("unexpected total hours %.2f", result.TotalHours)
	}
	if result.CrewSize != 2 {
		t.Fatalf("expected crew size 2, got %d", result.CrewSize)
	}
}

func TestEstimateEndpointRejectsBadService(t *testing.T) {
	body := `{"services": ["teleporting"], "crew_size": 2, "volume_m3": 10}`

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/estimate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	estimateRouter().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "VALIDATION_ERROR") {
		t.Fatalf("expected VALIDATION_ERROR envelope, got %s", w.Body.String())
	}
}

func TestParseJobsCSV(t *testing.T) {
	content := "id,preferred_date,flexibility,priority,services,crew_size,volume_m3,living_area_m2,distance_km,property_class,has_piano\n" +
		"JOB-1,2026-09-15,flexible,high,moving;packing,3,24,80,26.8,apartment,true\n"
	fh := makeMultipartFile(t, "jobs", "jobs.csv", content)

	jobs, errs := parseJobsCSV(fh)
	if len(errs) > 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	j := jobs[0]
	if j.ID != "JOB-1" || j.Flexibility != models.FlexibilityFlexible || j.Priority != models.PriorityHigh {
		t.Fatalf("unexpected job %+v", j)
	}
	if len(j.Services) != 2 || j.Services[0] != "moving" || j.Services[1] != "packing" {
		t.Fatalf("unexpected services %v", j.Services)
	}
	if !j.HasPiano {
		t.Fatalf("expected piano flag to be parsed")
	}
	if j.PreferredDate.Format("2006-01-02") != "2026-09-15" {
		t.Fatalf("unexpected preferred date %v", j.PreferredDate)
	}
}

func TestParseJobsCSVHeaderAliases(t *testing.T) {
	content := "job_id,date,volume,area,distance,lng,lat\nJ-9,2026-10-01,12,40,8.5,18.06,59.33\n"
	fh := makeMultipartFile(t, "jobs", "jobs.csv", content)

	jobs, errs := parseJobsCSV(fh)
	if len(errs) > 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if jobs[0].ID != "J-9" || jobs[0].VolumeM3 != 12 || jobs[0].Location.Lon != 18.06 {
		t.Fatalf("aliases not resolved: %+v", jobs[0])
	}
	if jobs[0].Flexibility != models.FlexibilityFixed {
		t.Fatalf("expected fixed flexibility default, got %q", jobs[0].Flexibility)
	}
	if len(jobs[0].Services) != 1 || jobs[0].Services[0] != models.ServiceMoving {
		t.Fatalf("expected moving service default, got %v", jobs[0].Services)
	}
}

func TestParseJobsCSVBadDate(t *testing.T) {
	content := "id,preferred_date,volume_m3\nJOB-1,someday,10\n"
	fh := makeMultipartFile(t, "jobs", "jobs.csv", content)

	jobs, errs := parseJobsCSV(fh)
	if len(jobs) != 0 {
		t.Fatalf("expected row to be rejected, got %d jobs", len(jobs))
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
}

func TestParseCrewsCSV(t *testing.T) {
	content := "id,name,size,skills,vehicle_capacity_m3,shift_start_hour,shift_end_hour,rating,lat,lon\n" +
		"CREW-1,Alpha,3,piano;fragile,30,8,17,0.85,59.33,18.06\n" +
		"CREW-2,Beta,0,,20,8,17,0.5,59.33,18.06\n"
	fh := makeMultipartFile(t, "crews", "crews.csv", content)

	crews, errs := parseCrewsCSV(fh)
	if len(crews) != 1 {
		t.Fatalf("expected 1 valid crew, got %d", len(crews))
	}
	if len(errs) != 1 {
		t.Fatalf("expected zero-size row to error, got %v", errs)
	}
	c := crews[0]
	if c.ID != "CREW-1" || c.Size != 3 || c.Rating != 0.85 {
		t.Fatalf("unexpected crew %+v", c)
	}
	if len(c.Skills) != 2 || c.Skills[0] != "piano" {
		t.Fatalf("unexpected skills %v", c.Skills)
	}
}

func TestValidateExt(t *testing.T) {
	if !validateExt("jobs.CSV") {
		t.Fatal("expected case-insensitive csv match")
	}
	if validateExt("jobs.xlsx") {
		t.Fatal("expected xlsx to be rejected")
	}
}

func makeMultipartFile(t *testing.T, fieldName, filename, content string) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(fieldName, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write content: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(int64(buf.Len()))
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	files := form.File[fieldName]
	if len(files) == 0 {
		t.Fatalf("no file headers found")
	}
	return files[0]
}
