// ABOUTME: Tests for the Ergast fallback provider against a stub upstream.
// ABOUTME: Covers re-projection, top-10 capping, and not-handled conversions.

package fallback

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notsedano/f1-mcp-server/internal/tools"
)

// standingsFixture builds an Ergast driverStandings body with n drivers.
func standingsFixture(n int) []byte {
	drivers := make([]map[string]any, n)
	for i := 0; i < n; i++ {
		drivers[i] = map[string]any{
			"position": fmt.Sprintf("%d", i+1),
			"points":   fmt.Sprintf("%d", 400-i*20),
			"Driver": map[string]any{
				"code":       fmt.Sprintf("D%02d", i+1),
				"givenName":  fmt.Sprintf("Given%d", i+1),
				"familyName": fmt.Sprintf("Family%d", i+1),
			},
		}
	}
	body, _ := json.Marshal(map[string]any{
		"MRData": map[string]any{
			"StandingsTable": map[string]any{
				"StandingsLists": []any{
					map[string]any{"DriverStandings": drivers},
				},
			},
		},
	})
	return body
}

func scheduleFixture() []byte {
	body, _ := json.Marshal(map[string]any{
		"MRData": map[string]any{
			"RaceTable": map[string]any{
				"Races": []any{
					map[string]any{
						"raceName": "Bahrain Grand Prix",
						"date":     "2024-03-02",
						"round":    "1",
						"Circuit":  map[string]any{"circuitName": "Bahrain International Circuit"},
					},
					map[string]any{
						"raceName": "Saudi Arabian Grand Prix",
						"date":     "2024-03-09",
						"round":    "2",
						"Circuit":  map[string]any{"circuitName": "Jeddah Corniche Circuit"},
					},
				},
			},
		},
	})
	return body
}

// newStubProvider starts a stub Ergast server and returns a provider
// pointed at it plus a counter of requests received.
func newStubProvider(t *testing.T, handler http.HandlerFunc) (*Provider, *atomic.Int64) {
	t.Helper()
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	p := New(Config{
		BaseURL: srv.URL,
		Year:    2024,
		Timeout: 2 * time.Second,
		Logger:  slog.Default(),
	})
	return p, &requests
}

func TestAttemptStandings(t *testing.T) {
	p, _ := newStubProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2024/driverStandings.json", r.URL.Path)
		w.Write(standingsFixture(22))
	})

	payload, ok := p.Attempt(context.Background(), tools.ToolChampionshipStandings, nil)
	require.True(t, ok)

	result, ok := payload.(map[string]any)
	require.True(t, ok)
	entries, ok := result["drivers"].([]StandingEntry)
	require.True(t, ok)

	// Upstream returned 22 drivers; the payload is capped at the top 10.
	require.Len(t, entries, 10)
	assert.Equal(t, "D01", entries[0].DriverCode)
	assert.Equal(t, "Given1", entries[0].GivenName)
	assert.Equal(t, "Family1", entries[0].FamilyName)
	assert.Equal(t, "400", entries[0].Points)
	assert.Equal(t, "1", entries[0].Position)
}

func TestAttemptSchedule(t *testing.T) {
	p, _ := newStubProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2024.json", r.URL.Path)
		w.Write(scheduleFixture())
	})

	payload, ok := p.Attempt(context.Background(), tools.ToolEventSchedule, nil)
	require.True(t, ok)

	entries, ok := payload.([]ScheduleEntry)
	require.True(t, ok)
	require.Len(t, entries, 2)
	assert.Equal(t, "Bahrain Grand Prix", entries[0].EventName)
	assert.Equal(t, "2024-03-02", entries[0].EventDate)
	assert.Equal(t, "Bahrain International Circuit", entries[0].CircuitName)
	assert.Equal(t, "1", entries[0].RoundNumber)
}

func TestAttemptUnsupportedToolNoNetworkCall(t *testing.T) {
	p, requests := newStubProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(standingsFixture(5))
	})

	_, ok := p.Attempt(context.Background(), tools.ToolTelemetry, nil)
	assert.False(t, ok)
	assert.Equal(t, int64(0), requests.Load(), "unsupported tool must not reach upstream")
}

func TestAttemptNon200(t *testing.T) {
	p, _ := newStubProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, ok := p.Attempt(context.Background(), tools.ToolChampionshipStandings, nil)
	assert.False(t, ok)
}

func TestAttemptMalformedBody(t *testing.T) {
	p, _ := newStubProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	})

	_, ok := p.Attempt(context.Background(), tools.ToolChampionshipStandings, nil)
	assert.False(t, ok)
}

func TestAttemptEmptyStandingsLists(t *testing.T) {
	p, _ := newStubProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"MRData":{"StandingsTable":{"StandingsLists":[]}}}`))
	})

	_, ok := p.Attempt(context.Background(), tools.ToolChampionshipStandings, nil)
	assert.False(t, ok)
}

func TestAttemptUnreachableUpstream(t *testing.T) {
	p := New(Config{
		BaseURL: "http://127.0.0.1:1",
		Year:    2024,
		Timeout: 500 * time.Millisecond,
		Logger:  slog.Default(),
	})

	_, ok := p.Attempt(context.Background(), tools.ToolChampionshipStandings, nil)
	assert.False(t, ok)
}
