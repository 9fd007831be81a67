package availability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPOracle queries an external scheduling service.
type HTTPOracle struct {
	BaseURL string
	Client  *http.Client
}

type checkRequest struct {
	CrewID        string  `json:"crew_id"`
	Date          string  `json:"date"`
	DurationHours float64 `json:"duration_hours"`
}

type checkResponse struct {
	Available bool `json:"available"`
}

func (h HTTPOracle) IsAvailable(ctx context.Context, crewID string, date time.Time, durationHours float64) (bool, error) {
	if h.Client == nil {
		h.Client = &http.Client{Timeout: 10 * time.Second}
	}

	payload := checkRequest{
		CrewID:        crewID,
		Date:          date.Format("2006-01-02"),
		DurationHours: durationHours,
	}
	b, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+"/availability/check", bytes.NewBuffer(b))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrOracle, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.Client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrOracle, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("%w: status %s", ErrOracle, resp.Status)
	}

	var r checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return false, fmt.Errorf("%w: %v", ErrOracle, err)
	}
	return r.Available, nil
}
