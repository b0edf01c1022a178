// Package query implements read-only DTO facades over the repository
// layer, per spec.md §4.7: each service opens a short-lived Unit of Work
// per call and maps rows onto plain response structs, carrying no
// business logic beyond pagination bounds-checking.
package query

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wisbric/skywatch/internal/domain"
	"github.com/wisbric/skywatch/internal/repository"
	"github.com/wisbric/skywatch/internal/uow"
)

// AsteroidDTO is the read-only projection of a domain.Asteroid.
type AsteroidDTO struct {
	ID                  int64    `json:"id"`
	Designation         string   `json:"designation"`
	Name                *string  `json:"name,omitempty"`
	PerihelionAU        *float64 `json:"perihelion_au,omitempty"`
	AphelionAU          *float64 `json:"aphelion_au,omitempty"`
	EarthMOIDAU         *float64 `json:"earth_moid_au,omitempty"`
	AbsoluteMagnitude   float64  `json:"absolute_magnitude"`
	EstimatedDiameterKm float64  `json:"estimated_diameter_km"`
	AccurateDiameter    bool     `json:"accurate_diameter"`
	Albedo              float64  `json:"albedo"`
	DiameterSource      string   `json:"diameter_source"`
	OrbitID             *string  `json:"orbit_id,omitempty"`
	OrbitClass          *string  `json:"orbit_class,omitempty"`
	CreatedAt           string   `json:"created_at"`
	UpdatedAt           string   `json:"updated_at"`
}

func toAsteroidDTO(a domain.Asteroid) AsteroidDTO {
	return AsteroidDTO{
		ID:                  a.ID,
		Designation:         a.Designation,
		Name:                a.Name,
		PerihelionAU:        a.PerihelionAU,
		AphelionAU:          a.AphelionAU,
		EarthMOIDAU:         a.EarthMOIDAU,
		AbsoluteMagnitude:   a.AbsoluteMagnitude,
		EstimatedDiameterKm: a.EstimatedDiameterKm,
		AccurateDiameter:    a.AccurateDiameter,
		Albedo:              a.Albedo,
		DiameterSource:      a.DiameterSource,
		OrbitID:             a.OrbitID,
		OrbitClass:          a.OrbitClass,
		CreatedAt:           a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           a.UpdatedAt.Format(time.RFC3339),
	}
}

// AsteroidQueryService answers read-only questions about cataloged
// asteroids.
type AsteroidQueryService struct {
	pool *pgxpool.Pool
}

// NewAsteroidQueryService constructs an AsteroidQueryService.
func NewAsteroidQueryService(pool *pgxpool.Pool) *AsteroidQueryService {
	return &AsteroidQueryService{pool: pool}
}

const maxListLimit = 500

func boundLimit(limit int) int {
	if limit <= 0 || limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func boundSkip(skip int) int {
	if skip < 0 {
		return 0
	}
	return skip
}

// ListHazardous returns cataloged asteroids whose earth_moid_au is below
// the PHA threshold, ordered by id.
func (s *AsteroidQueryService) ListHazardous(ctx context.Context, skip, limit int) ([]AsteroidDTO, error) {
	var out []AsteroidDTO
	err := uow.Run(ctx, s.pool, func(ctx context.Context, u *uow.UnitOfWork) error {
		rows, err := u.AsteroidRepo.Filter(ctx, []repository.Condition{
			{Field: "earth_moid_au", Op: repository.OpLt, Value: domain.PHAThreshold},
		}, boundSkip(skip), boundLimit(limit), "id", false)
		if err != nil {
			return err
		}
		out = make([]AsteroidDTO, len(rows))
		for i, a := range rows {
			out[i] = toAsteroidDTO(a)
		}
		return nil
	})
	return out, err
}

// ByDesignation returns the asteroid with the given designation, or
// errs.NotFound.
func (s *AsteroidQueryService) ByDesignation(ctx context.Context, designation string) (*AsteroidDTO, error) {
	var dto AsteroidDTO
	err := uow.Run(ctx, s.pool, func(ctx context.Context, u *uow.UnitOfWork) error {
		rows, err := u.AsteroidRepo.FindByFields(ctx, map[string]any{"designation": designation})
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return errNotFound(designation)
		}
		dto = toAsteroidDTO(rows[0])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}
