// ABOUTME: Primary capability set serving tool calls from the embedded dataset.
// ABOUTME: Exposes the fixed eight F1 tools as a registry capability map.

package f1data

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/notsedano/f1-mcp-server/internal/tools"
)

// Provider answers tool calls from the embedded season dataset.
type Provider struct {
	seasons map[int]*Season
	logger  *slog.Logger
}

// New loads the embedded dataset and returns a provider ready to serve.
func New(logger *slog.Logger) (*Provider, error) {
	seasons, err := loadDataset()
	if err != nil {
		return nil, err
	}
	return &Provider{seasons: seasons, logger: logger}, nil
}

// Capabilities returns the tool-name to capability map the registry is
// built from. The set is fixed; every tool name maps to exactly one
// capability.
func (p *Provider) Capabilities() map[string]tools.Capability {
	return map[string]tools.Capability{
		tools.ToolChampionshipStandings: p.ChampionshipStandings,
		tools.ToolEventSchedule:         p.EventSchedule,
		tools.ToolEventInfo:             p.EventInfo,
		tools.ToolSessionResults:        p.SessionResults,
		tools.ToolDriverInfo:            p.DriverInfo,
		tools.ToolDriverPerformance:     p.DriverPerformance,
		tools.ToolCompareDrivers:        p.CompareDrivers,
		tools.ToolTelemetry:             p.Telemetry,
	}
}

// season resolves the year argument to a covered season.
func (p *Provider) season(args map[string]any) (*Season, error) {
	year, ok := intArg(args, "year")
	if !ok {
		return nil, fmt.Errorf("year argument is required")
	}
	s, ok := p.seasons[year]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrSeasonNotCovered, year)
	}
	return s, nil
}

// ChampionshipStandings returns the season's drivers sorted by points
// descending, champion first.
func (p *Provider) ChampionshipStandings(ctx context.Context, args map[string]any) (any, error) {
	s, err := p.season(args)
	if err != nil {
		return nil, err
	}

	standings := make([]Driver, len(s.Drivers))
	copy(standings, s.Drivers)
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Points > standings[j].Points
	})

	return map[string]any{"drivers": standings}, nil
}

// EventSchedule returns the season's calendar in round order.
func (p *Provider) EventSchedule(ctx context.Context, args map[string]any) (any, error) {
	s, err := p.season(args)
	if err != nil {
		return nil, err
	}

	schedule := make([]map[string]any, len(s.Events))
	for i, e := range s.Events {
		schedule[i] = map[string]any{
			"EventName":   e.Name,
			"EventDate":   e.Date,
			"CircuitName": e.Circuit,
			"RoundNumber": e.Round,
			"Country":     e.Country,
		}
	}
	return schedule, nil
}

// EventInfo returns details for a single event matched by identifier.
func (p *Provider) EventInfo(ctx context.Context, args map[string]any) (any, error) {
	s, err := p.season(args)
	if err != nil {
		return nil, err
	}
	event, err := s.findEvent(stringArg(args, "event_identifier"))
	if err != nil {
		return nil, err
	}
	return event, nil
}

// SessionResults returns the classification for one session of an event.
func (p *Provider) SessionResults(ctx context.Context, args map[string]any) (any, error) {
	s, err := p.season(args)
	if err != nil {
		return nil, err
	}
	event, err := s.findEvent(stringArg(args, "event_identifier"))
	if err != nil {
		return nil, err
	}
	session, err := s.findSession(event.Name, stringArg(args, "session_name"))
	if err != nil {
		return nil, err
	}
	return session, nil
}

// DriverInfo returns the season record for one driver.
func (p *Provider) DriverInfo(ctx context.Context, args map[string]any) (any, error) {
	s, err := p.season(args)
	if err != nil {
		return nil, err
	}
	driver, err := s.findDriver(stringArg(args, "driver_identifier"))
	if err != nil {
		return nil, err
	}
	return driver, nil
}

// DriverPerformance summarizes a driver's season from the recorded race
// sessions plus their standings entry.
func (p *Provider) DriverPerformance(ctx context.Context, args map[string]any) (any, error) {
	s, err := p.season(args)
	if err != nil {
		return nil, err
	}
	driver, err := s.findDriver(stringArg(args, "driver_identifier"))
	if err != nil {
		return nil, err
	}

	var races, wins, podiums, finishSum int
	for _, sess := range s.Sessions {
		if !strings.EqualFold(sess.Session, "Race") {
			continue
		}
		for _, res := range sess.Results {
			if res.DriverCode != driver.DriverCode {
				continue
			}
			races++
			finishSum += res.Position
			if res.Position == 1 {
				wins++
			}
			if res.Position <= 3 {
				podiums++
			}
		}
	}

	avgFinish := 0.0
	if races > 0 {
		avgFinish = float64(finishSum) / float64(races)
	}

	return map[string]any{
		"driver":          driver,
		"races_analyzed":  races,
		"wins":            wins,
		"podiums":         podiums,
		"average_finish":  avgFinish,
		"season_points":   driver.Points,
		"season_position": driver.Position,
	}, nil
}

// CompareDrivers returns the standings entries for the requested drivers
// in the order given. Accepts a list argument or a comma-separated string.
func (p *Provider) CompareDrivers(ctx context.Context, args map[string]any) (any, error) {
	s, err := p.season(args)
	if err != nil {
		return nil, err
	}

	idents := driverListArg(args, "drivers")
	if len(idents) < 2 {
		return nil, fmt.Errorf("drivers argument must name at least two drivers")
	}

	entries := make([]*Driver, 0, len(idents))
	for _, id := range idents {
		driver, err := s.findDriver(id)
		if err != nil {
			return nil, err
		}
		entries = append(entries, driver)
	}
	return map[string]any{"drivers": entries}, nil
}

// Telemetry returns the telemetry summary for one driver in one session.
func (p *Provider) Telemetry(ctx context.Context, args map[string]any) (any, error) {
	s, err := p.season(args)
	if err != nil {
		return nil, err
	}
	event, err := s.findEvent(stringArg(args, "event_identifier"))
	if err != nil {
		return nil, err
	}
	driver, err := s.findDriver(stringArg(args, "driver_identifier"))
	if err != nil {
		return nil, err
	}
	sessionName := stringArg(args, "session_name")

	for _, tel := range s.Telemetry {
		if tel.Event == event.Name &&
			strings.EqualFold(tel.Session, sessionName) &&
			tel.DriverCode == driver.DriverCode {
			return tel, nil
		}
	}
	return nil, fmt.Errorf("%w for %s in %s %s", ErrTelemetryMissing, driver.DriverCode, event.Name, sessionName)
}

// findEvent matches an event by exact name first, then by case-insensitive
// substring. Partial matches are deliberate here: callers send identifiers
// like "Bahrain" for "Bahrain Grand Prix".
func (s *Season) findEvent(identifier string) (*Event, error) {
	if identifier == "" {
		return nil, fmt.Errorf("event_identifier argument is required")
	}
	for i := range s.Events {
		if s.Events[i].Name == identifier {
			return &s.Events[i], nil
		}
	}
	lower := strings.ToLower(identifier)
	for i := range s.Events {
		if strings.Contains(strings.ToLower(s.Events[i].Name), lower) {
			return &s.Events[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q in %d", ErrEventNotFound, identifier, s.Year)
}

// findSession matches a session of the named event case-insensitively.
func (s *Season) findSession(eventName, sessionName string) (*Session, error) {
	if sessionName == "" {
		return nil, fmt.Errorf("session_name argument is required")
	}
	for i := range s.Sessions {
		if s.Sessions[i].Event == eventName && strings.EqualFold(s.Sessions[i].Session, sessionName) {
			return &s.Sessions[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q for %s", ErrSessionNotFound, sessionName, eventName)
}

// findDriver matches by code, family name, or full name, case-insensitively.
func (s *Season) findDriver(identifier string) (*Driver, error) {
	if identifier == "" {
		return nil, fmt.Errorf("driver_identifier argument is required")
	}
	for i := range s.Drivers {
		d := &s.Drivers[i]
		if strings.EqualFold(d.DriverCode, identifier) ||
			strings.EqualFold(d.FamilyName, identifier) ||
			strings.EqualFold(d.GivenName+" "+d.FamilyName, identifier) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %q in %d", ErrDriverNotFound, identifier, s.Year)
}

// intArg extracts an integer argument, tolerating the numeric forms JSON
// decoding produces (float64, json.Number) as well as numeric strings.
func intArg(args map[string]any, key string) (int, bool) {
	v, ok := args[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// stringArg extracts a string argument, returning "" when absent.
func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// driverListArg extracts a driver identifier list from either a JSON array
// or a comma-separated string.
func driverListArg(args map[string]any, key string) []string {
	switch v := args[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	default:
		return nil
	}
}
