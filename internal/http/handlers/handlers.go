package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/swiftrelo/backend/internal/availability"
	"github.com/swiftrelo/backend/internal/db"
	"github.com/swiftrelo/backend/internal/estimate"
	"github.com/swiftrelo/backend/internal/geocode"
	"github.com/swiftrelo/backend/internal/models"
	"github.com/swiftrelo/backend/internal/schedule"
	"github.com/swiftrelo/backend/internal/service"
)

type Handler struct {
	Store          *db.Store
	Estimator      *estimate.Estimator
	Scheduler      *schedule.Scheduler
	Batch          *service.BatchService
	Geocoder       geocode.Geocoder
	Validator      *validator.Validate
	Logger         zerolog.Logger
	CountryDefault string
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type EndpointPayload struct {
	Floors       int     `json:"floors" validate:"gte=0"`
	Elevator     string  `json:"elevator"`
	ParkingDistM float64 `json:"parking_dist_m" validate:"gte=0"`
}

type EstimateRequest struct {
	Services      []string        `json:"services" validate:"required,min=1,dive,oneof=moving packing cleaning"`
	CrewSize      int             `json:"crew_size" validate:"required,min=1,max=6"`
	LivingAreaM2  float64         `json:"living_area_m2" validate:"gte=0"`
	PropertyClass string          `json:"property_class"`
	VolumeM3      float64         `json:"volume_m3" validate:"gte=0"`
	DistanceKm    float64         `json:"distance_km" validate:"gte=0"`
	Traffic       string          `json:"traffic"`
	Origin        EndpointPayload `json:"origin"`
	Destination   EndpointPayload `json:"destination"`
	Rooms         map[string]int  `json:"rooms"`
	HasPiano      bool            `json:"has_piano"`
	HasFragile    bool            `json:"has_fragile"`
	HasHeavy      bool            `json:"has_heavy"`
}

// @Summary Estimate job duration
// @Description Standalone duration estimate for quoting, no scheduling involved
// @Tags estimate
// @Accept json
// @Produce json
// @Param request body EstimateRequest true "job attributes"
// @Success 200 {object} models.DurationResult
// @Failure 400 {object} map[string]any
// @Router /api/estimate [post]
func (h *Handler) Estimate(c *gin.Context) {
	var req EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	job := models.Job{
		Services:      req.Services,
		CrewSize:      req.CrewSize,
		LivingAreaM2:  req.LivingAreaM2,
		PropertyClass: req.PropertyClass,
		VolumeM3:      req.VolumeM3,
		DistanceKm:    req.DistanceKm,
		Traffic:       req.Traffic,
		Origin:        models.Endpoint(req.Origin),
		Destination:   models.Endpoint(req.Destination),
		Rooms:         req.Rooms,
		HasPiano:      req.HasPiano,
		HasFragile:    req.HasFragile,
		HasHeavy:      req.HasHeavy,
	}

	result, err := h.Estimator.Estimate(job, req.CrewSize)
	if err != nil {
		if errors.Is(err, estimate.ErrInvalidJobAttributes) {
			writeError(c, http.StatusBadRequest, schedule.ReasonInvalidJob, "Invalid job attributes", err.Error())
			return
		}
		writeError(c, http.StatusInternalServerError, "ESTIMATE_ERROR", "Estimation failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary Schedule a single job
// @Tags schedule
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} models.SchedulingResult
// @Failure 422 {object} map[string]any
// @Router /api/jobs/{id}/schedule [post]
func (h *Handler) ScheduleJob(c *gin.Context) {
	job, err := h.Store.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load job", err.Error())
		return
	}
	crews, err := h.Store.ListCrews(c.Request.Context(), "", 0)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load crews", err.Error())
		return
	}

	result, err := h.Scheduler.ScheduleJob(c.Request.Context(), job, crews)
	if err != nil {
		h.writeSchedulingFailure(c, job, err)
		return
	}

	if err := h.Batch.SaveScheduled(c.Request.Context(), result); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to persist result", err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) writeSchedulingFailure(c *gin.Context, job models.Job, err error) {
	reason := schedule.ReasonFor(err)
	switch {
	case errors.Is(err, estimate.ErrInvalidJobAttributes):
		writeError(c, http.StatusBadRequest, reason, "Invalid job attributes", err.Error())
	case errors.Is(err, schedule.ErrNoCapableCrew):
		writeError(c, http.StatusUnprocessableEntity, reason, "No crew meets the job requirements", err.Error())
	case errors.Is(err, schedule.ErrNoAvailableSlot):
		writeError(c, http.StatusUnprocessableEntity, reason, "No crew is free within the flexibility window", err.Error())
	case errors.Is(err, schedule.ErrWindowTimeout):
		writeError(c, http.StatusGatewayTimeout, reason, "Scheduling timed out", err.Error())
	case errors.Is(err, availability.ErrOracle):
		writeError(c, http.StatusBadGateway, reason, "Availability check failed", err.Error())
	default:
		writeError(c, http.StatusInternalServerError, reason, "Scheduling failed", err.Error())
	}
	h.Logger.Warn().Err(err).Str("job_id", job.ID).Str("reason_code", reason).Msg("scheduling failed")
}

// @Summary Run batch optimization
// @Tags optimize
// @Produce json
// @Success 200 {object} service.RunSummary
// @Router /api/optimize [post]
func (h *Handler) Optimize(c *gin.Context) {
	runID, err := h.Store.CreateRun(c.Request.Context(), "RUNNING")
	if err != nil {
		h.Logger.Error().Err(err).Msg("failed to create run")
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to create run", err.Error())
		return
	}

	debug := c.Query("debug")
	summary, err := h.Batch.ProcessJobs(c.Request.Context(), debug == "1" || strings.EqualFold(debug, "true"))
	status := "SUCCESS"
	if err != nil {
		status = "FAILED"
	}
	b := summary.Marshal()
	if finishErr := h.Store.FinishRun(c.Request.Context(), runID, status, b); finishErr != nil {
		h.Logger.Error().Err(finishErr).Msg("failed to finish run")
	}

	if err != nil {
		h.Logger.Error().Err(err).Msg("batch optimization failed")
		writeError(c, http.StatusInternalServerError, "PROCESSING_ERROR", "Batch optimization failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, summary)
}

// @Summary Latest run
// @Tags runs
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/runs/latest [get]
func (h *Handler) RunsLatest(c *gin.Context) {
	result, err := h.Store.GetLatestRun(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "No runs found", err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) JobsList(c *gin.Context) {
	priority := strings.ToLower(strings.TrimSpace(c.Query("priority")))
	flexibility := strings.ToLower(strings.TrimSpace(c.Query("flexibility")))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.Store.ListJobs(c.Request.Context(), priority, flexibility, limit, offset)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list jobs", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "limit": limit, "offset": offset})
}

func (h *Handler) JobDetails(c *gin.Context) {
	result, err := h.Store.GetJobDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to get job", err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) CrewsList(c *gin.Context) {
	skill := strings.ToLower(strings.TrimSpace(c.Query("skill")))
	minSize, _ := strconv.Atoi(c.DefaultQuery("min_size", "0"))
	items, err := h.Store.ListCrews(c.Request.Context(), skill, minSize)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list crews", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// @Summary Debug capability filter
// @Tags debug
// @Produce json
// @Param job_id query string true "Job ID"
// @Success 200 {object} map[string]any
// @Router /api/debug/capability [get]
func (h *Handler) DebugCapability(c *gin.Context) {
	jobID := strings.TrimSpace(c.Query("job_id"))
	if jobID == "" {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "job_id is required", nil)
		return
	}

	job, err := h.Store.GetJob(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load job", err.Error())
		return
	}

	req, err := estimate.DeriveRequirements(job, h.Estimator.Tables)
	if err != nil {
		writeError(c, http.StatusBadRequest, schedule.ReasonInvalidJob, "Invalid job attributes", err.Error())
		return
	}
	crews, err := h.Store.ListCrews(c.Request.Context(), "", 0)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load crews", err.Error())
		return
	}

	filtered := schedule.FilterCapableCrews(crews, req)
	stageIDs := map[string][]string{}
	for _, stage := range filtered.Stages {
		var ids []string
		for _, crew := range stage.Candidates {
			ids = append(ids, crew.ID)
		}
		stageIDs[stage.Name] = ids
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id":       job.ID,
		"requirements": req,
		"stages":       stageIDs,
		"final": gin.H{
			"eligible":    stageIDs["skills_rule"],
			"reason_code": filtered.ReasonCode,
			"reason_text": filtered.ReasonText,
		},
	})
}

type ReassignRequest struct {
	CrewID string `json:"crew_id" validate:"required"`
	Date   string `json:"date" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}

// Reassign manually pins a job to a crew and date, recording an override
// when the crew fails the capability filter.
func (h *Handler) Reassign(c *gin.Context) {
	var req ReassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "date must be YYYY-MM-DD", err.Error())
		return
	}

	job, err := h.Store.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Job not found", err.Error())
		return
	}
	crew, err := h.Store.GetCrew(c.Request.Context(), req.CrewID)
	if err != nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Crew not found", err.Error())
		return
	}

	requirements, err := estimate.DeriveRequirements(job, h.Estimator.Tables)
	if err != nil {
		writeError(c, http.StatusBadRequest, schedule.ReasonInvalidJob, "Invalid job attributes", err.Error())
		return
	}
	filtered := schedule.FilterCapableCrews([]models.Crew{crew}, requirements)
	override := len(filtered.Eligible) == 0

	est, err := h.Estimator.Estimate(job, crew.Size)
	if err != nil {
		writeError(c, http.StatusBadRequest, schedule.ReasonInvalidJob, "Invalid job attributes", err.Error())
		return
	}
	travelMin := schedule.TravelMinutes(crew.HomeBase, job.Location)

	result := models.SchedulingResult{
		JobID:         job.ID,
		CrewID:        crew.ID,
		Date:          date,
		StartHour:     crew.ShiftStartHour,
		TravelMinutes: travelMin,
		DurationHours: est.TotalHours + 2*travelMin/60,
		Notes:         []string{"manual reassignment: " + req.Reason},
		CreatedAt:     time.Now().UTC(),
	}
	if err := h.Batch.SaveManual(c.Request.Context(), result, override); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to reassign", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "override": override})
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
