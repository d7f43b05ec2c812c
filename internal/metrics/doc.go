// Package metrics provides process-wide counters for tool dispatches,
// owned by the gateway instance and exposed read-only through the health
// endpoint.
package metrics
