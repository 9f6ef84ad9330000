// Package gardener watches a running farm simulation through its HTTP API
// and flags runs that have stalled or faulted.
package gardener

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/talgya/farmsim/internal/events"
)

// Snapshot holds all data collected during an observation cycle.
type Snapshot struct {
	Status Status         `json:"status"`
	Events []events.Event `json:"events"` // medium severity and above
}

// Status mirrors GET /api/v1/status.
type Status struct {
	Ticks      int      `json:"ticks"`
	Time       string   `json:"time"`
	Minute     int      `json:"minute"`
	Phase      string   `json:"phase"`
	FarmStage  int      `json:"farm_stage"`
	Plots      int      `json:"plots"`
	HeroLevel  int      `json:"hero_level"`
	Gold       int      `json:"gold"`
	Energy     int      `json:"energy"`
	Water      int      `json:"water"`
	Seeds      int      `json:"seeds"`
	Screen     string   `json:"screen"`
	Screens    []string `json:"screens"`
	IsComplete bool     `json:"is_complete"`
	IsStuck    bool     `json:"is_stuck"`
	Running    bool     `json:"running"`
}

// Observer fetches run state from the API.
type Observer struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewObserver creates an Observer targeting the given API base URL.
func NewObserver(baseURL string) *Observer {
	return &Observer{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Observe fetches status and recent notable events.
func (o *Observer) Observe() (*Snapshot, error) {
	snap := &Snapshot{}
	if err := o.fetchJSON("/api/v1/status", &snap.Status); err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	if err := o.fetchJSON("/api/v1/events?severity=medium&limit=100", &snap.Events); err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}
	return snap, nil
}

// Ready reports whether the status endpoint answers.
func (o *Observer) Ready() bool {
	resp, err := o.HTTPClient.Get(o.BaseURL + "/api/v1/status")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// fetchJSON GETs a path and decodes the JSON response into target.
func (o *Observer) fetchJSON(path string, target any) error {
	resp, err := o.HTTPClient.Get(o.BaseURL + path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
