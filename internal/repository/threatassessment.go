package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/wisbric/skywatch/internal/domain"
)

var threatAssessmentColumns = []string{
	"id", "asteroid_id", "designation", "fullname", "ip", "ts_max", "ps_max",
	"diameter", "v_inf", "h", "n_imp", "impact_years", "last_obs",
	"threat_level", "energy_megatons", "impact_category",
}

func scanThreatAssessment(row interface {
	Scan(dest ...any) error
}) (domain.ThreatAssessment, error) {
	var t domain.ThreatAssessment
	err := row.Scan(
		&t.ID, &t.AsteroidID, &t.Designation, &t.Fullname, &t.IP, &t.TSMax, &t.PSMax,
		&t.Diameter, &t.VInf, &t.H, &t.NImp, &t.ImpactYears, &t.LastObs,
		&t.ThreatLevel, &t.EnergyMegatons, &t.ImpactCategory,
	)
	return t, err
}

func assembleThreatAssessment(t domain.ThreatAssessment) ([]string, []any) {
	cols := []string{
		"asteroid_id", "designation", "fullname", "ip", "ts_max", "ps_max",
		"diameter", "v_inf", "h", "n_imp", "impact_years", "last_obs",
		"threat_level", "energy_megatons", "impact_category",
	}
	args := []any{
		t.AsteroidID, t.Designation, t.Fullname, t.IP, t.TSMax, t.PSMax,
		t.Diameter, t.VInf, t.H, t.NImp, t.ImpactYears, t.LastObs,
		t.ThreatLevel, t.EnergyMegatons, t.ImpactCategory,
	}
	return cols, args
}

// ThreatAssessmentMetadata wires domain.ThreatAssessment onto the
// threat_assessments table, keyed for upsert by asteroid_id.
func ThreatAssessmentMetadata() Metadata[domain.ThreatAssessment] {
	return Metadata[domain.ThreatAssessment]{
		Table:          "threat_assessments",
		Columns:        threatAssessmentColumns,
		ScanRow:        func(row pgx.Row) (domain.ThreatAssessment, error) { return scanThreatAssessment(row) },
		ScanRows:       func(rows pgx.Rows) (domain.ThreatAssessment, error) { return scanThreatAssessment(rows) },
		Assemble:       assembleThreatAssessment,
		ConflictFields: []string{"asteroid_id"},
		UpdateColumns: []string{
			"designation", "fullname", "ip", "ts_max", "ps_max", "diameter", "v_inf", "h",
			"n_imp", "impact_years", "last_obs", "threat_level", "energy_megatons", "impact_category",
		},
		IDOf: func(t domain.ThreatAssessment) int64 { return t.ID },
	}
}

// ThreatAssessmentRepository wraps Base[domain.ThreatAssessment].
type ThreatAssessmentRepository struct {
	*Base[domain.ThreatAssessment]
}

// NewThreatAssessmentRepository constructs a ThreatAssessmentRepository bound to db.
func NewThreatAssessmentRepository(db Queryer) *ThreatAssessmentRepository {
	return &ThreatAssessmentRepository{Base: NewBase(db, ThreatAssessmentMetadata())}
}

// ExistingAsteroidIDs returns the subset of asteroidIDs that already have a
// stored ThreatAssessment, so the pipeline can skip recomputation for
// asteroids already assessed in a prior run.
func (r *ThreatAssessmentRepository) ExistingAsteroidIDs(ctx context.Context, asteroidIDs []int64) (map[int64]bool, error) {
	out := make(map[int64]bool, len(asteroidIDs))
	if len(asteroidIDs) == 0 {
		return out, nil
	}

	rows, err := r.db.Query(ctx, "SELECT asteroid_id FROM threat_assessments WHERE asteroid_id = ANY($1)", asteroidIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}
