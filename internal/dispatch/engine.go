// ABOUTME: Dispatch engine routing tool calls through primary and fallback.
// ABOUTME: Updates metrics on every attempt and writes one audit record per dispatch.

package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/notsedano/f1-mcp-server/internal/metrics"
	"github.com/notsedano/f1-mcp-server/internal/store"
	"github.com/notsedano/f1-mcp-server/internal/tools"
)

// Request is one tool invocation. Immutable once received; arguments are
// passed to the capability unchanged, with no coercion or default-filling.
type Request struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// FallbackProvider substitutes the external data source when the primary
// capability fails. The bool reports whether the fallback handled the call.
type FallbackProvider interface {
	Attempt(ctx context.Context, name string, args map[string]any) (any, bool)
}

// AuditSink receives one record per dispatch. Implemented by store.SQLiteStore.
type AuditSink interface {
	SaveDispatch(ctx context.Context, rec *store.DispatchRecord) error
}

// Engine routes tool requests through the registry with conditional fallback.
type Engine struct {
	registry     *tools.Registry
	fallback     FallbackProvider
	metrics      *metrics.Aggregator
	audit        AuditSink
	fallbackYear int
	logger       *slog.Logger
}

// Config contains construction options for the Engine.
type Config struct {
	Registry     *tools.Registry
	Fallback     FallbackProvider
	Metrics      *metrics.Aggregator
	Audit        AuditSink // optional; nil disables the audit trail
	FallbackYear int
	Logger       *slog.Logger
}

// NewEngine creates a dispatch engine.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		registry:     cfg.Registry,
		fallback:     cfg.Fallback,
		metrics:      cfg.Metrics,
		audit:        cfg.Audit,
		fallbackYear: cfg.FallbackYear,
		logger:       cfg.Logger,
	}
}

// Dispatch handles one tool request end to end and returns the payload or
// the error the caller should see.
//
// Every dispatch counts toward total calls regardless of outcome. An
// unknown tool is itself a failure (it increments that name's error count)
// and never reaches the fallback: fallback is only defined for resolvable
// tools that failed during execution, and only when the request's year
// argument equals the configured fallback year. A fallback success still
// leaves the primary error recorded; the error counter measures
// primary-path failures, not end-to-end failure.
func (e *Engine) Dispatch(ctx context.Context, req Request) (any, error) {
	e.metrics.RecordCall()
	start := time.Now()

	capability, err := e.registry.Resolve(req.Name)
	if err != nil {
		e.metrics.RecordError(req.Name)
		e.logger.Warn("tool not found", "tool", req.Name)
		e.recordAudit(ctx, req.Name, start, false, false, err)
		return nil, err
	}

	result, err := capability(ctx, req.Arguments)
	if err == nil {
		e.metrics.RecordSuccess()
		e.logger.Info("tool call succeeded", "tool", req.Name, "duration", time.Since(start))
		e.recordAudit(ctx, req.Name, start, true, false, nil)
		return result, nil
	}

	e.metrics.RecordError(req.Name)
	e.logger.Warn("primary capability failed", "tool", req.Name, "error", err)

	if e.fallbackEligible(req.Arguments) {
		if payload, ok := e.fallback.Attempt(ctx, req.Name, req.Arguments); ok {
			e.metrics.RecordSuccess()
			e.logger.Info("fallback satisfied request", "tool", req.Name, "year", e.fallbackYear)
			e.recordAudit(ctx, req.Name, start, true, true, nil)
			return payload, nil
		}
		e.logger.Warn("fallback did not handle request", "tool", req.Name)
	}

	e.recordAudit(ctx, req.Name, start, false, false, err)
	return nil, err
}

// fallbackEligible reports whether the arguments carry a year equal to the
// configured fallback year. Any other year, or a missing or non-numeric
// year, is ineligible.
func (e *Engine) fallbackEligible(args map[string]any) bool {
	year, ok := yearArg(args)
	return ok && year == e.fallbackYear
}

// yearArg extracts the year argument in the numeric forms JSON decoding
// produces.
func yearArg(args map[string]any) (int, bool) {
	v, ok := args["year"]
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

// recordAudit writes the dispatch's audit record. Audit failures are
// logged and never affect the dispatch outcome.
func (e *Engine) recordAudit(ctx context.Context, tool string, start time.Time, ok, fallbackUsed bool, dispatchErr error) {
	if e.audit == nil {
		return
	}

	rec := &store.DispatchRecord{
		ID:           uuid.New().String(),
		Tool:         tool,
		OK:           ok,
		FallbackUsed: fallbackUsed,
		DurationMS:   time.Since(start).Milliseconds(),
		CreatedAt:    time.Now(),
	}
	if dispatchErr != nil {
		rec.Error = dispatchErr.Error()
	}

	if err := e.audit.SaveDispatch(ctx, rec); err != nil {
		e.logger.Error("failed to save audit record", "tool", tool, "error", err)
	}
}
