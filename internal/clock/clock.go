// Package clock centralizes UTC normalization for every timestamp that
// crosses the ingestion/repository boundary, so no package compares a naive
// local time against a UTC one by accident.
package clock

import "time"

// nowFunc is overridden in tests to make time-dependent pipeline stages
// (pruning, run IDs) deterministic.
var nowFunc = time.Now

// Now returns the current instant, always in UTC.
func Now() time.Time {
	return nowFunc().UTC()
}

// ToUTC normalizes t to UTC. Call this at every point a timestamp enters the
// core: parsed from an upstream feed, read from a request, or constructed
// from user input.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// AtBoundary normalizes t for output (DTOs, reports). It is the identity on
// an already-UTC time; it exists as a named seam so a future presentation
// layer has exactly one place to add a display-timezone conversion without
// touching internal storage or comparison logic.
func AtBoundary(t time.Time) time.Time {
	return t.UTC()
}
