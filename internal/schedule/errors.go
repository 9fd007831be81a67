package schedule

import (
	"errors"

	"github.com/swiftrelo/backend/internal/availability"
	"github.com/swiftrelo/backend/internal/estimate"
)

var (
	// ErrNoCapableCrew means no crew meets the size, capacity, and skill
	// requirements. Remediation is hiring or equipping, not rescheduling.
	ErrNoCapableCrew = errors.New("no capable crew")

	// ErrNoAvailableSlot means capable crews exist but none is free inside
	// the job's flexibility window.
	ErrNoAvailableSlot = errors.New("no available slot")

	// ErrWindowTimeout means the per-job deadline expired while probing the
	// flexibility window, not that the oracle itself failed.
	ErrWindowTimeout = errors.New("window probing timed out")
)

const (
	ReasonScheduled       = "SCHEDULED"
	ReasonNoCapableCrew   = "NO_CAPABLE_CREW"
	ReasonNoAvailableSlot = "NO_AVAILABLE_SLOT"
	ReasonInvalidJob      = "INVALID_JOB_ATTRIBUTES"
	ReasonOracleError     = "AVAILABILITY_ORACLE_ERROR"
	ReasonTimeout         = "SCHEDULING_TIMEOUT"
	ReasonCrewTooSmall    = "CREW_TOO_SMALL"
	ReasonVehicleTooSmall = "VEHICLE_TOO_SMALL"
	ReasonMissingSkills   = "MISSING_SKILLS"
)

// ReasonFor maps a scheduling failure to its persisted reason code.
func ReasonFor(err error) string {
	switch {
	case errors.Is(err, ErrNoCapableCrew):
		return ReasonNoCapableCrew
	case errors.Is(err, ErrNoAvailableSlot):
		return ReasonNoAvailableSlot
	case errors.Is(err, estimate.ErrInvalidJobAttributes):
		return ReasonInvalidJob
	case errors.Is(err, ErrWindowTimeout):
		return ReasonTimeout
	case errors.Is(err, availability.ErrOracle):
		return ReasonOracleError
	default:
		return "SCHEDULING_ERROR"
	}
}
