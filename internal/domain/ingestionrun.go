package domain

import "time"

// IngestionRun is the persisted audit record for one pipeline execution,
// written once at the end of a run as a best-effort side-effect — a
// failure to record it must never fail the run itself.
type IngestionRun struct {
	ID                    int64
	RunID                 string
	Status                string
	StartedAt             time.Time
	FinishedAt            time.Time
	AsteroidsTotal        int
	AsteroidsPHA          int
	AsteroidsCreated      int
	AsteroidsUpdated      int
	ApproachesComputed    int
	ApproachesSaved       int
	ApproachesWithThreats int
	PrunedPast            int
	PrunedFarFuture       int
	ErrorMessage          *string
	CreatedAt             time.Time
}
