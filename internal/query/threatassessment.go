package query

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wisbric/skywatch/internal/domain"
	"github.com/wisbric/skywatch/internal/errs"
	"github.com/wisbric/skywatch/internal/repository"
	"github.com/wisbric/skywatch/internal/uow"
)

// ThreatAssessmentDTO is the read-only projection of a
// domain.ThreatAssessment.
type ThreatAssessmentDTO struct {
	ID             int64   `json:"id"`
	AsteroidID     int64   `json:"asteroid_id"`
	Designation    string  `json:"designation"`
	Fullname       string  `json:"fullname"`
	IP             float64 `json:"ip"`
	TSMax          int     `json:"ts_max"`
	PSMax          float64 `json:"ps_max"`
	Diameter       float64 `json:"diameter"`
	VInf           float64 `json:"v_inf"`
	H              float64 `json:"h"`
	NImp           int     `json:"n_imp"`
	ImpactYears    []int   `json:"impact_years"`
	LastObs        string  `json:"last_obs"`
	ThreatLevel    string  `json:"threat_level"`
	EnergyMegatons float64 `json:"energy_megatons"`
	ImpactCategory string  `json:"impact_category"`
}

func toThreatAssessmentDTO(t domain.ThreatAssessment) ThreatAssessmentDTO {
	return ThreatAssessmentDTO{
		ID:             t.ID,
		AsteroidID:     t.AsteroidID,
		Designation:    t.Designation,
		Fullname:       t.Fullname,
		IP:             t.IP,
		TSMax:          t.TSMax,
		PSMax:          t.PSMax,
		Diameter:       t.Diameter,
		VInf:           t.VInf,
		H:              t.H,
		NImp:           t.NImp,
		ImpactYears:    t.ImpactYears,
		LastObs:        t.LastObs,
		ThreatLevel:    t.ThreatLevel,
		EnergyMegatons: t.EnergyMegatons,
		ImpactCategory: t.ImpactCategory,
	}
}

// ThreatAssessmentQueryService answers read-only questions about derived
// threat assessments.
type ThreatAssessmentQueryService struct {
	pool *pgxpool.Pool
}

// NewThreatAssessmentQueryService constructs a ThreatAssessmentQueryService.
func NewThreatAssessmentQueryService(pool *pgxpool.Pool) *ThreatAssessmentQueryService {
	return &ThreatAssessmentQueryService{pool: pool}
}

// ByDesignation returns the threat assessment for one asteroid designation.
func (s *ThreatAssessmentQueryService) ByDesignation(ctx context.Context, designation string) (*ThreatAssessmentDTO, error) {
	var dto ThreatAssessmentDTO
	err := uow.Run(ctx, s.pool, func(ctx context.Context, u *uow.UnitOfWork) error {
		rows, err := u.ThreatRepo.FindByFields(ctx, map[string]any{"designation": designation})
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return errs.NotFoundf(fmt.Sprintf("no threat assessment found for designation %q", designation))
		}
		dto = toThreatAssessmentDTO(rows[0])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// TopByEnergy returns the highest-energy threat assessments, most
// energetic first.
func (s *ThreatAssessmentQueryService) TopByEnergy(ctx context.Context, limit int) ([]ThreatAssessmentDTO, error) {
	var out []ThreatAssessmentDTO
	err := uow.Run(ctx, s.pool, func(ctx context.Context, u *uow.UnitOfWork) error {
		rows, err := u.ThreatRepo.Filter(ctx, []repository.Condition{}, 0, boundLimit(limit), "energy_megatons", true)
		if err != nil {
			return err
		}
		out = make([]ThreatAssessmentDTO, len(rows))
		for i, t := range rows {
			out[i] = toThreatAssessmentDTO(t)
		}
		return nil
	})
	return out, err
}
