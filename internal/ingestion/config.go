// Package ingestion implements the daily update-and-reconciliation
// pipeline: fetch, filter, upsert asteroids, compute and upsert close
// approaches, derive and upsert threat assessments, and prune stale rows.
package ingestion

import "time"

// Config tunes the pipeline's batch sizes, worker counts, and retention
// windows, per spec.md §4.6's stated defaults. internal/app overrides every
// field from internal/config except ApproachWindow and
// MaxApproachDistanceAU, which always keep their DefaultConfig values.
type Config struct {
	// MaxAsteroidsPerRun bounds how many PHAs get close-approach lookups
	// in a single run (default 50).
	MaxAsteroidsPerRun int
	// ApproachWorkers bounds the fan-out worker pool for close-approach
	// lookups, itself bounded by the CloseApproach client's bulkhead
	// (default 3).
	ApproachWorkers int
	// InterCallDelay is the minimum spacing between close-approach calls
	// made by one worker (default 2s).
	InterCallDelay time.Duration
	// ApproachWindow bounds how far forward the close-approach query
	// looks (default 10 years).
	ApproachWindow time.Duration
	// MaxApproachDistanceAU is the upstream dist-max query parameter and
	// the record-acceptance boundary (default 1.0 AU).
	MaxApproachDistanceAU float64
	// ThreatChunkSize batches threat-assessment upserts (default 100).
	ThreatChunkSize int
	// SmallBodyLimit caps how many hazardous designations are listed per
	// run; zero uses the SmallBody client's own default (3000).
	SmallBodyLimit int
	// PruneOlderThan deletes approaches whose approach_time precedes
	// now minus this duration (default 24h).
	PruneOlderThan time.Duration
	// PruneFartherThan deletes approaches whose approach_time exceeds
	// now plus this duration (default 10 years).
	PruneFartherThan time.Duration
}

// DefaultConfig matches spec.md §4.6's stated numeric defaults.
func DefaultConfig() Config {
	return Config{
		MaxAsteroidsPerRun:    50,
		ApproachWorkers:       3,
		InterCallDelay:        2 * time.Second,
		ApproachWindow:        10 * 365 * 24 * time.Hour,
		MaxApproachDistanceAU: 1.0,
		ThreatChunkSize:       100,
		PruneOlderThan:        24 * time.Hour,
		PruneFartherThan:      10 * 365 * 24 * time.Hour,
	}
}
