// ABOUTME: Tests for the dispatch engine covering fallback gating and metrics.
// ABOUTME: Uses stub capabilities and a recording fallback provider.

package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notsedano/f1-mcp-server/internal/metrics"
	"github.com/notsedano/f1-mcp-server/internal/store"
	"github.com/notsedano/f1-mcp-server/internal/tools"
)

// fakeFallback records Attempt calls and returns a canned response.
type fakeFallback struct {
	calls   int
	payload any
	handled bool
}

func (f *fakeFallback) Attempt(ctx context.Context, name string, args map[string]any) (any, bool) {
	f.calls++
	return f.payload, f.handled
}

// memoryAudit collects audit records in memory.
type memoryAudit struct {
	records []*store.DispatchRecord
}

func (m *memoryAudit) SaveDispatch(ctx context.Context, rec *store.DispatchRecord) error {
	m.records = append(m.records, rec)
	return nil
}

type engineFixture struct {
	engine   *Engine
	metrics  *metrics.Aggregator
	fallback *fakeFallback
	audit    *memoryAudit
}

// newTestEngine builds an engine over the given capabilities with year
// 2024 as the fallback-eligible season.
func newTestEngine(t *testing.T, caps map[string]tools.Capability, fb *fakeFallback) *engineFixture {
	t.Helper()
	agg := metrics.New()
	audit := &memoryAudit{}
	engine := NewEngine(Config{
		Registry:     tools.NewRegistry(caps),
		Fallback:     fb,
		Metrics:      agg,
		Audit:        audit,
		FallbackYear: 2024,
		Logger:       slog.Default(),
	})
	return &engineFixture{engine: engine, metrics: agg, fallback: fb, audit: audit}
}

func succeedWith(payload any) tools.Capability {
	return func(ctx context.Context, args map[string]any) (any, error) {
		return payload, nil
	}
}

func failWith(err error) tools.Capability {
	return func(ctx context.Context, args map[string]any) (any, error) {
		return nil, err
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	fx := newTestEngine(t, map[string]tools.Capability{}, &fakeFallback{})

	_, err := fx.engine.Dispatch(context.Background(), Request{
		Name:      "get_lap_chart",
		Arguments: map[string]any{"year": 2024},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, tools.ErrUnknownTool))
	assert.Contains(t, err.Error(), "unknown tool")

	snap := fx.metrics.Snapshot()
	assert.Equal(t, int64(1), snap.ToolCalls)
	assert.Equal(t, 0.0, snap.SuccessRate)
	assert.Equal(t, int64(1), snap.Errors["get_lap_chart"])

	// Unknown tools never reach the fallback, even for the eligible year.
	assert.Equal(t, 0, fx.fallback.calls)
}

func TestDispatchPrimarySuccess(t *testing.T) {
	fx := newTestEngine(t, map[string]tools.Capability{
		tools.ToolDriverInfo: succeedWith(map[string]any{"driverCode": "VER"}),
	}, &fakeFallback{})

	result, err := fx.engine.Dispatch(context.Background(), Request{
		Name:      tools.ToolDriverInfo,
		Arguments: map[string]any{"year": 2023, "driver_identifier": "VER"},
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	snap := fx.metrics.Snapshot()
	assert.Equal(t, int64(1), snap.ToolCalls)
	assert.Equal(t, 100.0, snap.SuccessRate)
	assert.Zero(t, snap.Errors[tools.ToolDriverInfo])
	assert.Equal(t, 0, fx.fallback.calls)
}

func TestDispatchFallbackRescue(t *testing.T) {
	primaryErr := errors.New("season not covered by dataset: 2024")
	fb := &fakeFallback{payload: map[string]any{"drivers": []string{"stub"}}, handled: true}
	fx := newTestEngine(t, map[string]tools.Capability{
		tools.ToolChampionshipStandings: failWith(primaryErr),
	}, fb)

	result, err := fx.engine.Dispatch(context.Background(), Request{
		Name:      tools.ToolChampionshipStandings,
		Arguments: map[string]any{"year": 2024},
	})
	require.NoError(t, err)
	assert.Equal(t, fb.payload, result)
	assert.Equal(t, 1, fb.calls)

	// The primary failure stays recorded even though the caller got data.
	snap := fx.metrics.Snapshot()
	assert.Equal(t, int64(1), snap.ToolCalls)
	assert.Equal(t, 100.0, snap.SuccessRate)
	assert.Equal(t, int64(1), snap.Errors[tools.ToolChampionshipStandings])
}

func TestDispatchFallbackMiss(t *testing.T) {
	primaryErr := errors.New("upstream exploded")
	fb := &fakeFallback{handled: false}
	fx := newTestEngine(t, map[string]tools.Capability{
		tools.ToolChampionshipStandings: failWith(primaryErr),
	}, fb)

	_, err := fx.engine.Dispatch(context.Background(), Request{
		Name:      tools.ToolChampionshipStandings,
		Arguments: map[string]any{"year": 2024},
	})
	require.Error(t, err)
	// The original primary error propagates, not a fallback error.
	assert.Equal(t, primaryErr, err)
	assert.Equal(t, 1, fb.calls)
}

func TestDispatchOtherYearSkipsFallback(t *testing.T) {
	fb := &fakeFallback{handled: true, payload: "should never be seen"}
	fx := newTestEngine(t, map[string]tools.Capability{
		tools.ToolChampionshipStandings: failWith(errors.New("boom")),
	}, fb)

	_, err := fx.engine.Dispatch(context.Background(), Request{
		Name:      tools.ToolChampionshipStandings,
		Arguments: map[string]any{"year": 2022},
	})
	require.Error(t, err)
	assert.Equal(t, 0, fb.calls, "non-fallback year must not reach the provider")
}

func TestDispatchMissingYearSkipsFallback(t *testing.T) {
	fb := &fakeFallback{handled: true}
	fx := newTestEngine(t, map[string]tools.Capability{
		tools.ToolEventSchedule: failWith(errors.New("boom")),
	}, fb)

	_, err := fx.engine.Dispatch(context.Background(), Request{
		Name:      tools.ToolEventSchedule,
		Arguments: map[string]any{},
	})
	require.Error(t, err)
	assert.Equal(t, 0, fb.calls)
}

func TestDispatchFloatYearEligible(t *testing.T) {
	// JSON bodies decode numbers as float64; 2024.0 must still gate in.
	fb := &fakeFallback{handled: true, payload: "rescued"}
	fx := newTestEngine(t, map[string]tools.Capability{
		tools.ToolEventSchedule: failWith(errors.New("boom")),
	}, fb)

	result, err := fx.engine.Dispatch(context.Background(), Request{
		Name:      tools.ToolEventSchedule,
		Arguments: map[string]any{"year": float64(2024)},
	})
	require.NoError(t, err)
	assert.Equal(t, "rescued", result)
	assert.Equal(t, 1, fb.calls)
}

func TestDispatchAuditTrail(t *testing.T) {
	fb := &fakeFallback{handled: true, payload: "rescued"}
	fx := newTestEngine(t, map[string]tools.Capability{
		tools.ToolDriverInfo:            succeedWith("data"),
		tools.ToolChampionshipStandings: failWith(errors.New("boom")),
	}, fb)
	ctx := context.Background()

	_, _ = fx.engine.Dispatch(ctx, Request{Name: tools.ToolDriverInfo, Arguments: map[string]any{}})
	_, _ = fx.engine.Dispatch(ctx, Request{Name: tools.ToolChampionshipStandings, Arguments: map[string]any{"year": 2024}})
	_, _ = fx.engine.Dispatch(ctx, Request{Name: "nope", Arguments: map[string]any{}})

	require.Len(t, fx.audit.records, 3)

	first := fx.audit.records[0]
	assert.True(t, first.OK)
	assert.False(t, first.FallbackUsed)

	second := fx.audit.records[1]
	assert.True(t, second.OK)
	assert.True(t, second.FallbackUsed)

	third := fx.audit.records[2]
	assert.False(t, third.OK)
	assert.True(t, strings.Contains(third.Error, "unknown tool"))
}

func TestDispatchNilAuditSink(t *testing.T) {
	engine := NewEngine(Config{
		Registry: tools.NewRegistry(map[string]tools.Capability{
			tools.ToolDriverInfo: succeedWith("data"),
		}),
		Fallback:     &fakeFallback{},
		Metrics:      metrics.New(),
		Audit:        nil,
		FallbackYear: 2024,
		Logger:       slog.Default(),
	})

	_, err := engine.Dispatch(context.Background(), Request{Name: tools.ToolDriverInfo})
	require.NoError(t, err)
}
