// Package fallback wraps the Ergast HTTP API behind the tool-name
// interface. It serves a fixed subset of tools for a single configured
// season and converts every upstream failure into "not handled" so the
// dispatch engine can surface the primary error instead.
package fallback
