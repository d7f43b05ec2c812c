// ABOUTME: Embedded season dataset types and loading for the primary provider.
// ABOUTME: Parses seasons.json once at construction via go:embed.

package f1data

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
)

//go:embed seasons.json
var datasetFS embed.FS

// Dataset errors returned by capabilities. The dispatch engine treats any
// capability error uniformly, so these exist for logging and tests.
var (
	ErrSeasonNotCovered = errors.New("season not covered by dataset")
	ErrEventNotFound    = errors.New("event not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrDriverNotFound   = errors.New("driver not found")
	ErrTelemetryMissing = errors.New("no telemetry recorded")
)

// Driver is one entry in a season's championship standings.
type Driver struct {
	DriverCode  string `json:"driverCode"`
	GivenName   string `json:"givenName"`
	FamilyName  string `json:"familyName"`
	Points      int    `json:"points"`
	Position    int    `json:"position"`
	Team        string `json:"team"`
	Wins        int    `json:"wins"`
	Number      int    `json:"number"`
	Nationality string `json:"nationality"`
}

// Event is one round of a season's calendar.
type Event struct {
	Round   int    `json:"round"`
	Name    string `json:"name"`
	Date    string `json:"date"`
	Circuit string `json:"circuit"`
	Country string `json:"country"`
}

// SessionResult is one classified finisher within a session.
type SessionResult struct {
	Position   int    `json:"position"`
	DriverCode string `json:"driverCode"`
	Points     int    `json:"points"`
}

// Session holds the classification for a single session of an event.
type Session struct {
	Event   string          `json:"event"`
	Session string          `json:"session"`
	Results []SessionResult `json:"results"`
}

// Telemetry is a per-driver per-session telemetry summary.
type Telemetry struct {
	Event       string  `json:"event"`
	Session     string  `json:"session"`
	DriverCode  string  `json:"driverCode"`
	Laps        int     `json:"laps"`
	FastestLap  string  `json:"fastestLap"`
	TopSpeedKph float64 `json:"topSpeedKph"`
	AvgSpeedKph float64 `json:"avgSpeedKph"`
}

// Season bundles everything the dataset knows about one championship year.
type Season struct {
	Year      int         `json:"year"`
	Drivers   []Driver    `json:"drivers"`
	Events    []Event     `json:"events"`
	Sessions  []Session   `json:"sessions"`
	Telemetry []Telemetry `json:"telemetry"`
}

type dataset struct {
	Seasons []Season `json:"seasons"`
}

// loadDataset parses the embedded season data.
func loadDataset() (map[int]*Season, error) {
	raw, err := datasetFS.ReadFile("seasons.json")
	if err != nil {
		return nil, fmt.Errorf("reading embedded dataset: %w", err)
	}

	var ds dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("parsing embedded dataset: %w", err)
	}
	if len(ds.Seasons) == 0 {
		return nil, errors.New("embedded dataset contains no seasons")
	}

	seasons := make(map[int]*Season, len(ds.Seasons))
	for i := range ds.Seasons {
		s := &ds.Seasons[i]
		seasons[s.Year] = s
	}
	return seasons, nil
}
