// Package store persists a dispatch audit trail in SQLite. Every tool
// dispatch leaves one record, including the fallback-rescued ones, so the
// primary-versus-fallback behavior can be inspected after the fact.
package store
