package domain

import (
	"fmt"
	"time"

	"github.com/wisbric/skywatch/internal/errs"
)

// Diameter source enum values, per spec.md §3.
const (
	DiameterSourceMeasured   = "measured"
	DiameterSourceComputed   = "computed"
	DiameterSourceCalculated = "calculated"
)

func validDiameterSource(s string) bool {
	switch s {
	case DiameterSourceMeasured, DiameterSourceComputed, DiameterSourceCalculated:
		return true
	default:
		return false
	}
}

// defaultAlbedo is substituted whenever an albedo is missing or falls
// outside the valid (0,1] range.
const defaultAlbedo = 0.15

// defaultAbsoluteMagnitude is substituted when H could not be determined
// upstream, matching the SmallBody client's fallback-record convention.
const defaultAbsoluteMagnitude = 18.0

// minDiameterKm is the smallest diameter the store will accept; a
// non-positive reported or derived diameter is clamped up to this floor
// rather than rejected outright.
const minDiameterKm = 1e-6

// Asteroid is a tracked small body, the aggregate root owning its close
// approaches and threat assessment.
type Asteroid struct {
	ID                  int64
	Designation         string
	Name                *string
	PerihelionAU        *float64
	AphelionAU          *float64
	EarthMOIDAU         *float64
	AbsoluteMagnitude   float64
	EstimatedDiameterKm float64
	AccurateDiameter    bool
	Albedo              float64
	DiameterSource      string
	OrbitID             *string
	OrbitClass          *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewAsteroid constructs an Asteroid, applying the invariant-repair rules
// spec.md §4.3 mandates at construction time: albedo and diameter are
// clamped rather than rejected, H defaults when absent, but the
// designation and orbital ordering invariants are hard failures.
func NewAsteroid(designation string, h float64, diameterKm float64, accurate bool, albedo float64, source string) (*Asteroid, error) {
	if designation == "" {
		return nil, errs.Invariant("designation is required", nil)
	}
	if len(designation) > 50 {
		return nil, errs.Invariant("designation exceeds 50 characters", nil)
	}
	if !validDiameterSource(source) {
		return nil, errs.Invariant(fmt.Sprintf("invalid diameter_source %q", source), nil)
	}

	if h == 0 {
		h = defaultAbsoluteMagnitude
	}
	if albedo <= 0 || albedo > 1 {
		albedo = defaultAlbedo
	}
	if diameterKm <= 0 {
		diameterKm = minDiameterKm
	}

	return &Asteroid{
		Designation:         designation,
		AbsoluteMagnitude:   h,
		EstimatedDiameterKm: diameterKm,
		AccurateDiameter:    accurate,
		Albedo:              albedo,
		DiameterSource:      source,
	}, nil
}

// SetOrbit validates and sets the optional perihelion/aphelion/MOID triple.
// An aphelion not greater than a present perihelion is rejected, matching
// the asteroids.check_aphelion_gt_perihelion constraint.
func (a *Asteroid) SetOrbit(perihelionAU, aphelionAU, earthMOIDAU *float64) error {
	if perihelionAU != nil && *perihelionAU <= 0 {
		return errs.Invariant("perihelion_au must be positive", nil)
	}
	if perihelionAU != nil && aphelionAU != nil && *aphelionAU <= *perihelionAU {
		return errs.Invariant("aphelion_au must exceed perihelion_au", nil)
	}
	if earthMOIDAU != nil && *earthMOIDAU < 0 {
		return errs.Invariant("earth_moid_au must be non-negative", nil)
	}
	a.PerihelionAU = perihelionAU
	a.AphelionAU = aphelionAU
	a.EarthMOIDAU = earthMOIDAU
	return nil
}
