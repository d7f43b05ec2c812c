// Package dispatch orchestrates tool invocation: registry lookup, primary
// execution, conditional fallback, metrics, and the audit trail. Fallback
// is attempted at most once per dispatch and only when the request's year
// argument equals the configured fallback year.
package dispatch
