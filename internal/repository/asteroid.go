package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/wisbric/skywatch/internal/domain"
)

var asteroidColumns = []string{
	"id", "designation", "name", "perihelion_au", "aphelion_au", "earth_moid_au",
	"absolute_magnitude", "estimated_diameter_km", "accurate_diameter", "albedo",
	"diameter_source", "orbit_id", "orbit_class", "created_at", "updated_at",
}

func scanAsteroid(row interface {
	Scan(dest ...any) error
}) (domain.Asteroid, error) {
	var a domain.Asteroid
	err := row.Scan(
		&a.ID, &a.Designation, &a.Name, &a.PerihelionAU, &a.AphelionAU, &a.EarthMOIDAU,
		&a.AbsoluteMagnitude, &a.EstimatedDiameterKm, &a.AccurateDiameter, &a.Albedo,
		&a.DiameterSource, &a.OrbitID, &a.OrbitClass, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

func assembleAsteroid(a domain.Asteroid) ([]string, []any) {
	cols := []string{
		"designation", "name", "perihelion_au", "aphelion_au", "earth_moid_au",
		"absolute_magnitude", "estimated_diameter_km", "accurate_diameter", "albedo",
		"diameter_source", "orbit_id", "orbit_class",
	}
	args := []any{
		a.Designation, a.Name, a.PerihelionAU, a.AphelionAU, a.EarthMOIDAU,
		a.AbsoluteMagnitude, a.EstimatedDiameterKm, a.AccurateDiameter, a.Albedo,
		a.DiameterSource, a.OrbitID, a.OrbitClass,
	}
	return cols, args
}

// AsteroidMetadata is the Metadata descriptor wiring domain.Asteroid onto
// the asteroids table, per spec.md §4.4's conflict-field table.
func AsteroidMetadata() Metadata[domain.Asteroid] {
	return Metadata[domain.Asteroid]{
		Table:   "asteroids",
		Columns: asteroidColumns,
		ScanRow: func(row pgx.Row) (domain.Asteroid, error) { return scanAsteroid(row) },
		ScanRows: func(rows pgx.Rows) (domain.Asteroid, error) { return scanAsteroid(rows) },
		Assemble: assembleAsteroid,
		ConflictFields: []string{"designation"},
		UpdateColumns: []string{
			"name", "perihelion_au", "aphelion_au", "earth_moid_au",
			"absolute_magnitude", "estimated_diameter_km", "accurate_diameter", "albedo",
			"diameter_source", "orbit_id", "orbit_class",
		},
		IDOf: func(a domain.Asteroid) int64 { return a.ID },
	}
}

// AsteroidRepository wraps Base[domain.Asteroid] with the designation
// lookups the ingestion pipeline and query services need.
type AsteroidRepository struct {
	*Base[domain.Asteroid]
}

// NewAsteroidRepository constructs an AsteroidRepository bound to db.
func NewAsteroidRepository(db Queryer) *AsteroidRepository {
	return &AsteroidRepository{Base: NewBase(db, AsteroidMetadata())}
}

// ResolveDesignations batch-resolves a set of designations to their
// asteroid ids in one query, per spec.md §4.4's referential-binding rule.
// Designations with no matching row are simply absent from the result.
func (r *AsteroidRepository) ResolveDesignations(ctx context.Context, designations []string) (map[string]int64, error) {
	out := make(map[string]int64, len(designations))
	if len(designations) == 0 {
		return out, nil
	}

	rows, err := r.db.Query(ctx, "SELECT id, designation FROM asteroids WHERE designation = ANY($1)", designations)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var designation string
		if err := rows.Scan(&id, &designation); err != nil {
			return nil, err
		}
		out[designation] = id
	}
	return out, rows.Err()
}
