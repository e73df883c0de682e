// Package dispatch resolves the configured provider for a request and runs
// it.
//
// Both dispatchers are total: ProcessSearch always returns a non-nil slice
// (empty on any failure) and ProcessQuery always returns a string, with
// failures rendered as "[AI Error: <message>]". Callers treat an empty
// result list as "try another provider", not as a hard failure.
package dispatch
