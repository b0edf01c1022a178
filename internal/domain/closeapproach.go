package domain

import (
	"time"

	"github.com/wisbric/skywatch/internal/errs"
)

// AUToKm is the conversion factor from astronomical units to kilometers,
// used whenever an upstream record omits distance_km.
const AUToKm = 149597870.7

// DefaultCloseApproachDataSource is used when a record does not specify
// its originating feed.
const DefaultCloseApproachDataSource = "CloseApproach feed"

// CloseApproach is a predicted near-Earth encounter, owned by exactly one
// Asteroid.
type CloseApproach struct {
	ID                  int64
	AsteroidID          int64
	ApproachTime        time.Time
	DistanceAU          float64
	DistanceKm          float64
	VelocityKmS         float64
	AsteroidDesignation string
	AsteroidName        *string
	DataSource          string
	CalculationBatchID  *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewCloseApproach constructs a CloseApproach, deriving DistanceKm from
// DistanceAU when a zero distanceKm is supplied and enforcing the
// distance_au <= 1.0 boundary from spec.md law 9.
func NewCloseApproach(asteroidDesignation string, approachTime time.Time, distanceAU, distanceKm, velocityKmS float64) (*CloseApproach, error) {
	if asteroidDesignation == "" {
		return nil, errs.Invariant("asteroid_designation is required", nil)
	}
	if distanceAU < 0 {
		return nil, errs.Invariant("distance_au must be non-negative", nil)
	}
	if distanceAU > 1.0 {
		return nil, errs.Invariant("distance_au must not exceed 1.0 AU", nil)
	}
	if velocityKmS < 0 {
		return nil, errs.Invariant("velocity_km_s must be non-negative", nil)
	}

	if distanceKm <= 0 {
		distanceKm = distanceAU * AUToKm
	}

	return &CloseApproach{
		AsteroidDesignation: asteroidDesignation,
		ApproachTime:        approachTime.UTC(),
		DistanceAU:          distanceAU,
		DistanceKm:          distanceKm,
		VelocityKmS:         velocityKmS,
		DataSource:          DefaultCloseApproachDataSource,
	}, nil
}
