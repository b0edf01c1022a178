package repository

import (
	"github.com/jackc/pgx/v5"

	"github.com/wisbric/skywatch/internal/domain"
)

var closeApproachColumns = []string{
	"id", "asteroid_id", "approach_time", "distance_au", "distance_km", "velocity_km_s",
	"asteroid_designation", "asteroid_name", "data_source", "calculation_batch_id",
	"created_at", "updated_at",
}

func scanCloseApproach(row interface {
	Scan(dest ...any) error
}) (domain.CloseApproach, error) {
	var c domain.CloseApproach
	err := row.Scan(
		&c.ID, &c.AsteroidID, &c.ApproachTime, &c.DistanceAU, &c.DistanceKm, &c.VelocityKmS,
		&c.AsteroidDesignation, &c.AsteroidName, &c.DataSource, &c.CalculationBatchID,
		&c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func assembleCloseApproach(c domain.CloseApproach) ([]string, []any) {
	cols := []string{
		"asteroid_id", "approach_time", "distance_au", "distance_km", "velocity_km_s",
		"asteroid_designation", "asteroid_name", "data_source", "calculation_batch_id",
	}
	args := []any{
		c.AsteroidID, c.ApproachTime, c.DistanceAU, c.DistanceKm, c.VelocityKmS,
		c.AsteroidDesignation, c.AsteroidName, c.DataSource, c.CalculationBatchID,
	}
	return cols, args
}

// CloseApproachMetadata wires domain.CloseApproach onto the
// close_approaches table, keyed for upsert by (asteroid_id, approach_time).
func CloseApproachMetadata() Metadata[domain.CloseApproach] {
	return Metadata[domain.CloseApproach]{
		Table:    "close_approaches",
		Columns:  closeApproachColumns,
		ScanRow:  func(row pgx.Row) (domain.CloseApproach, error) { return scanCloseApproach(row) },
		ScanRows: func(rows pgx.Rows) (domain.CloseApproach, error) { return scanCloseApproach(rows) },
		Assemble: assembleCloseApproach,
		ConflictFields: []string{"asteroid_id", "approach_time"},
		UpdateColumns: []string{
			"distance_au", "distance_km", "velocity_km_s", "asteroid_designation",
			"asteroid_name", "data_source", "calculation_batch_id",
		},
		IDOf: func(c domain.CloseApproach) int64 { return c.ID },
	}
}

// CloseApproachRepository wraps Base[domain.CloseApproach].
type CloseApproachRepository struct {
	*Base[domain.CloseApproach]
}

// NewCloseApproachRepository constructs a CloseApproachRepository bound to db.
func NewCloseApproachRepository(db Queryer) *CloseApproachRepository {
	return &CloseApproachRepository{Base: NewBase(db, CloseApproachMetadata())}
}
