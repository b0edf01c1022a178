package repository

import (
	"github.com/jackc/pgx/v5"

	"github.com/wisbric/skywatch/internal/domain"
)

var ingestionRunColumns = []string{
	"id", "run_id", "status", "started_at", "finished_at",
	"asteroids_total", "asteroids_pha", "asteroids_created", "asteroids_updated",
	"approaches_computed", "approaches_saved", "approaches_with_threats",
	"pruned_past", "pruned_far_future", "error_message", "created_at",
}

func scanIngestionRun(row interface {
	Scan(dest ...any) error
}) (domain.IngestionRun, error) {
	var r domain.IngestionRun
	err := row.Scan(
		&r.ID, &r.RunID, &r.Status, &r.StartedAt, &r.FinishedAt,
		&r.AsteroidsTotal, &r.AsteroidsPHA, &r.AsteroidsCreated, &r.AsteroidsUpdated,
		&r.ApproachesComputed, &r.ApproachesSaved, &r.ApproachesWithThreats,
		&r.PrunedPast, &r.PrunedFarFuture, &r.ErrorMessage, &r.CreatedAt,
	)
	return r, err
}

func assembleIngestionRun(r domain.IngestionRun) ([]string, []any) {
	cols := []string{
		"run_id", "status", "started_at", "finished_at",
		"asteroids_total", "asteroids_pha", "asteroids_created", "asteroids_updated",
		"approaches_computed", "approaches_saved", "approaches_with_threats",
		"pruned_past", "pruned_far_future", "error_message",
	}
	args := []any{
		r.RunID, r.Status, r.StartedAt, r.FinishedAt,
		r.AsteroidsTotal, r.AsteroidsPHA, r.AsteroidsCreated, r.AsteroidsUpdated,
		r.ApproachesComputed, r.ApproachesSaved, r.ApproachesWithThreats,
		r.PrunedPast, r.PrunedFarFuture, r.ErrorMessage,
	}
	return cols, args
}

// IngestionRunMetadata wires domain.IngestionRun onto the ingestion_runs
// audit table. It has no upsert path: one row per run, write-once.
func IngestionRunMetadata() Metadata[domain.IngestionRun] {
	return Metadata[domain.IngestionRun]{
		Table:    "ingestion_runs",
		Columns:  ingestionRunColumns,
		ScanRow:  func(row pgx.Row) (domain.IngestionRun, error) { return scanIngestionRun(row) },
		ScanRows: func(rows pgx.Rows) (domain.IngestionRun, error) { return scanIngestionRun(rows) },
		Assemble: assembleIngestionRun,
		IDOf:     func(r domain.IngestionRun) int64 { return r.ID },
	}
}

// IngestionRunRepository wraps Base[domain.IngestionRun].
type IngestionRunRepository struct {
	*Base[domain.IngestionRun]
}

// NewIngestionRunRepository constructs an IngestionRunRepository bound to db.
func NewIngestionRunRepository(db Queryer) *IngestionRunRepository {
	return &IngestionRunRepository{Base: NewBase(db, IngestionRunMetadata())}
}
