// ABOUTME: Fixed registry resolving tool names to in-process capabilities.
// ABOUTME: Built once at construction; resolution is case-sensitive exact match.

package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownTool indicates the requested tool name is not registered.
var ErrUnknownTool = errors.New("unknown tool")

// Canonical tool names. Every capability set registered with the gateway
// uses these names; the fallback provider supports a subset of them.
const (
	ToolChampionshipStandings = "get_championship_standings"
	ToolEventSchedule         = "get_event_schedule"
	ToolEventInfo             = "get_event_info"
	ToolSessionResults        = "get_session_results"
	ToolDriverInfo            = "get_driver_info"
	ToolDriverPerformance     = "analyze_driver_performance"
	ToolCompareDrivers        = "compare_drivers"
	ToolTelemetry             = "get_telemetry"
)

// Capability is a single named data-retrieval operation. Arguments are
// passed through from the request unchanged; the returned payload is
// arbitrary structured data.
type Capability func(ctx context.Context, args map[string]any) (any, error)

// Registry maps tool names to capabilities. Immutable after construction.
type Registry struct {
	caps map[string]Capability
}

// NewRegistry builds a registry from the given capability set.
// The map is copied; later mutation of the argument has no effect.
func NewRegistry(caps map[string]Capability) *Registry {
	m := make(map[string]Capability, len(caps))
	for name, c := range caps {
		m[name] = c
	}
	return &Registry{caps: m}
}

// Resolve returns the capability for the given tool name.
// Unmatched names always return ErrUnknownTool; there is no fuzzy matching.
func (r *Registry) Resolve(name string) (Capability, error) {
	c, ok := r.caps[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return c, nil
}

// Names returns all registered tool names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.caps))
	for name := range r.caps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.caps)
}
