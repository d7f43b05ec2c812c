// ABOUTME: Ergast-backed fallback provider for standings and schedule tools.
// ABOUTME: Re-projects upstream JSON into the primary payload field names.

package fallback

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/notsedano/f1-mcp-server/internal/tools"
)

// maxStandingsEntries caps the standings payload at the top finishers,
// matching what the primary would be asked for in practice.
const maxStandingsEntries = 10

// StandingEntry is one driver re-projected from the Ergast standings
// response. Field names are a fixed contract with the primary payload.
type StandingEntry struct {
	DriverCode string `json:"driverCode"`
	GivenName  string `json:"givenName"`
	FamilyName string `json:"familyName"`
	Points     string `json:"points"`
	Position   string `json:"position"`
}

// ScheduleEntry is one race re-projected from the Ergast season response.
type ScheduleEntry struct {
	EventName   string `json:"EventName"`
	EventDate   string `json:"EventDate"`
	CircuitName string `json:"CircuitName"`
	RoundNumber string `json:"RoundNumber"`
}

// Provider issues synchronous reads against the Ergast API.
type Provider struct {
	baseURL string
	year    int
	client  *http.Client
	logger  *slog.Logger
}

// Config contains construction options for the Provider.
type Config struct {
	BaseURL string
	Year    int
	Timeout time.Duration
	Logger  *slog.Logger
}

// New creates a fallback provider with a bounded request timeout.
func New(cfg Config) *Provider {
	return &Provider{
		baseURL: cfg.BaseURL,
		year:    cfg.Year,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  cfg.Logger,
	}
}

// Attempt tries to serve the named tool from the upstream. The second
// return value reports whether the fallback handled the call; transport
// errors, non-2xx statuses, and shape mismatches all return (nil, false)
// and are never raised to the caller.
func (p *Provider) Attempt(ctx context.Context, name string, args map[string]any) (any, bool) {
	switch name {
	case tools.ToolChampionshipStandings:
		return p.driverStandings(ctx)
	case tools.ToolEventSchedule:
		return p.raceSchedule(ctx)
	default:
		// Unsupported tools never touch the network.
		return nil, false
	}
}

// Ergast response shapes, trimmed to the fields we re-project.

type standingsResponse struct {
	MRData struct {
		StandingsTable struct {
			StandingsLists []struct {
				DriverStandings []struct {
					Position string `json:"position"`
					Points   string `json:"points"`
					Driver   struct {
						Code       string `json:"code"`
						GivenName  string `json:"givenName"`
						FamilyName string `json:"familyName"`
					} `json:"Driver"`
				} `json:"DriverStandings"`
			} `json:"StandingsLists"`
		} `json:"StandingsTable"`
	} `json:"MRData"`
}

type scheduleResponse struct {
	MRData struct {
		RaceTable struct {
			Races []struct {
				RaceName string `json:"raceName"`
				Date     string `json:"date"`
				Round    string `json:"round"`
				Circuit  struct {
					CircuitName string `json:"circuitName"`
				} `json:"Circuit"`
			} `json:"Races"`
		} `json:"RaceTable"`
	} `json:"MRData"`
}

// driverStandings fetches and re-projects the season driver standings.
func (p *Provider) driverStandings(ctx context.Context) (any, bool) {
	var resp standingsResponse
	if !p.fetch(ctx, fmt.Sprintf("%s/%d/driverStandings.json", p.baseURL, p.year), &resp) {
		return nil, false
	}

	lists := resp.MRData.StandingsTable.StandingsLists
	if len(lists) == 0 {
		p.logger.Warn("ergast standings response has no standings lists")
		return nil, false
	}

	standings := lists[0].DriverStandings
	if len(standings) > maxStandingsEntries {
		standings = standings[:maxStandingsEntries]
	}

	entries := make([]StandingEntry, len(standings))
	for i, ds := range standings {
		entries[i] = StandingEntry{
			DriverCode: ds.Driver.Code,
			GivenName:  ds.Driver.GivenName,
			FamilyName: ds.Driver.FamilyName,
			Points:     ds.Points,
			Position:   ds.Position,
		}
	}
	return map[string]any{"drivers": entries}, true
}

// raceSchedule fetches and re-projects the season race list.
func (p *Provider) raceSchedule(ctx context.Context) (any, bool) {
	var resp scheduleResponse
	if !p.fetch(ctx, fmt.Sprintf("%s/%d.json", p.baseURL, p.year), &resp) {
		return nil, false
	}

	races := resp.MRData.RaceTable.Races
	if len(races) == 0 {
		p.logger.Warn("ergast schedule response has no races")
		return nil, false
	}

	entries := make([]ScheduleEntry, len(races))
	for i, race := range races {
		entries[i] = ScheduleEntry{
			EventName:   race.RaceName,
			EventDate:   race.Date,
			CircuitName: race.Circuit.CircuitName,
			RoundNumber: race.Round,
		}
	}
	return entries, true
}

// fetch performs one GET and decodes the body into out. Returns false on
// any transport error, non-2xx status, or undecodable body.
func (p *Provider) fetch(ctx context.Context, url string, out any) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		p.logger.Warn("building ergast request failed", "url", url, "error", err)
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Warn("ergast request failed", "url", url, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.logger.Warn("ergast returned non-2xx status", "url", url, "status", resp.StatusCode)
		return false
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		p.logger.Warn("decoding ergast response failed", "url", url, "error", err)
		return false
	}
	return true
}
