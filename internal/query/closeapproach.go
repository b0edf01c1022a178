package query

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wisbric/skywatch/internal/clock"
	"github.com/wisbric/skywatch/internal/domain"
	"github.com/wisbric/skywatch/internal/repository"
	"github.com/wisbric/skywatch/internal/uow"
)

// CloseApproachDTO is the read-only projection of a domain.CloseApproach.
type CloseApproachDTO struct {
	ID                  int64   `json:"id"`
	AsteroidID          int64   `json:"asteroid_id"`
	AsteroidDesignation string  `json:"asteroid_designation"`
	AsteroidName        *string `json:"asteroid_name,omitempty"`
	ApproachTime        string  `json:"approach_time"`
	DistanceAU          float64 `json:"distance_au"`
	DistanceKm          float64 `json:"distance_km"`
	VelocityKmS         float64 `json:"velocity_km_s"`
	DataSource          string  `json:"data_source"`
	CalculationBatchID  *string `json:"calculation_batch_id,omitempty"`
}

func toCloseApproachDTO(c domain.CloseApproach) CloseApproachDTO {
	return CloseApproachDTO{
		ID:                  c.ID,
		AsteroidID:          c.AsteroidID,
		AsteroidDesignation: c.AsteroidDesignation,
		AsteroidName:        c.AsteroidName,
		ApproachTime:        c.ApproachTime.Format(time.RFC3339),
		DistanceAU:          c.DistanceAU,
		DistanceKm:          c.DistanceKm,
		VelocityKmS:         c.VelocityKmS,
		DataSource:          c.DataSource,
		CalculationBatchID:  c.CalculationBatchID,
	}
}

// CloseApproachQueryService answers read-only questions about predicted
// close approaches.
type CloseApproachQueryService struct {
	pool *pgxpool.Pool
}

// NewCloseApproachQueryService constructs a CloseApproachQueryService.
func NewCloseApproachQueryService(pool *pgxpool.Pool) *CloseApproachQueryService {
	return &CloseApproachQueryService{pool: pool}
}

// Upcoming returns approaches whose approach_time falls within the next
// `within` duration, nearest first.
func (s *CloseApproachQueryService) Upcoming(ctx context.Context, within time.Duration, limit int) ([]CloseApproachDTO, error) {
	var out []CloseApproachDTO
	err := uow.Run(ctx, s.pool, func(ctx context.Context, u *uow.UnitOfWork) error {
		now := clock.Now()
		rows, err := u.ApproachRepo.Filter(ctx, []repository.Condition{
			{Field: "approach_time", Op: repository.OpGe, Value: now},
			{Field: "approach_time", Op: repository.OpLe, Value: now.Add(within)},
		}, 0, boundLimit(limit), "approach_time", false)
		if err != nil {
			return err
		}
		out = make([]CloseApproachDTO, len(rows))
		for i, c := range rows {
			out[i] = toCloseApproachDTO(c)
		}
		return nil
	})
	return out, err
}

// ForAsteroid returns every recorded approach for one asteroid id, most
// recent first.
func (s *CloseApproachQueryService) ForAsteroid(ctx context.Context, asteroidID int64, skip, limit int) ([]CloseApproachDTO, error) {
	var out []CloseApproachDTO
	err := uow.Run(ctx, s.pool, func(ctx context.Context, u *uow.UnitOfWork) error {
		rows, err := u.ApproachRepo.Filter(ctx, []repository.Condition{
			repository.Eq("asteroid_id", asteroidID),
		}, boundSkip(skip), boundLimit(limit), "approach_time", true)
		if err != nil {
			return err
		}
		out = make([]CloseApproachDTO, len(rows))
		for i, c := range rows {
			out[i] = toCloseApproachDTO(c)
		}
		return nil
	})
	return out, err
}
