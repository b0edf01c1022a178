// Package domain holds the three core entities and the pure, deterministic
// derivation functions spec.md §4.3 describes. Every function here is
// side-effect-free and safe to unit-test directly against the laws in
// spec.md §8.
package domain

import (
	"fmt"
	"math"
)

// DiameterFromAlbedo computes an asteroid's diameter in kilometers from its
// albedo and absolute magnitude H, using the standard size-albedo relation.
// Returns an error when albedo <= 0 (the relation is undefined).
func DiameterFromAlbedo(albedo, h float64) (float64, error) {
	if albedo <= 0 {
		return 0, fmt.Errorf("albedo must be positive, got %v", albedo)
	}
	return 1329 / math.Sqrt(albedo) * math.Pow(10, -0.2*h), nil
}

// DiameterFromH computes a diameter assuming the standard default albedo of
// 0.15, used when no albedo measurement is available.
func DiameterFromH(h float64) float64 {
	d, _ := DiameterFromAlbedo(0.15, h) // 0.15 is always a valid albedo.
	return d
}

const (
	// asteroidDensityKgM3 is the assumed bulk density used for mass
	// estimation: roughly a stony/rubble-pile asteroid.
	asteroidDensityKgM3 = 2000.0
	// joulesPerMegaton converts joules to megatons of TNT equivalent.
	joulesPerMegaton = 4.184e15
)

// ImpactEnergyMegatons estimates the kinetic-impact energy, in megatons of
// TNT equivalent, of a spherical body of the given diameter (km) moving at
// the given velocity (km/s), at the assumed bulk density. Returns 0 when
// diameterKm is non-positive (no object, no energy) — this also makes
// ImpactEnergyMegatons(0, v) == 0 regardless of v.
func ImpactEnergyMegatons(diameterKm, velocityKmS float64) float64 {
	if diameterKm <= 0 {
		return 0
	}

	radiusM := diameterKm * 1000 / 2
	volumeM3 := (4.0 / 3.0) * math.Pi * math.Pow(radiusM, 3)
	massKg := volumeM3 * asteroidDensityKgM3

	velocityMS := velocityKmS * 1000
	energyJoules := 0.5 * massKg * velocityMS * velocityMS

	return energyJoules / joulesPerMegaton
}

// ImpactCategory classifies an impact energy into the three-value severity
// enum stored on ThreatAssessment.
func ImpactCategory(energyMt float64) string {
	switch {
	case energyMt < 1:
		return ImpactCategoryLocal
	case energyMt < 100:
		return ImpactCategoryRegional
	default:
		return ImpactCategoryGlobal
	}
}

// Impact category enum values, per spec.md §3.
const (
	ImpactCategoryLocal    = "local"
	ImpactCategoryRegional = "regional"
	ImpactCategoryGlobal   = "global"
)

// Threat level machine keys, per spec.md §4.3. These are stable keys a
// presentation layer would localize, not final display strings — see
// DESIGN.md's Open Questions.
const (
	ThreatLevelZero     = "zero"
	ThreatLevelVeryLow  = "very low"
	ThreatLevelLow      = "low"
	ThreatLevelMedium   = "medium"
	ThreatLevelElevated = "elevated"
	ThreatLevelHigh     = "high"
	ThreatLevelCritical = "critical"
)

// ThreatLevel derives the Torino/Palermo-scale threat level key from a
// peak Torino-scale value and peak Palermo-scale value, per spec.md §4.3's
// table.
func ThreatLevel(tsMax int, psMax float64) string {
	switch {
	case tsMax == 0:
		if psMax < -2 {
			return ThreatLevelZero
		}
		return ThreatLevelVeryLow
	case tsMax >= 1 && tsMax <= 4:
		return ThreatLevelLow
	case tsMax == 5:
		return ThreatLevelMedium
	case tsMax == 6:
		return ThreatLevelElevated
	case tsMax == 7:
		return ThreatLevelHigh
	default: // tsMax >= 8
		return ThreatLevelCritical
	}
}

// PHAThreshold is the Earth-MOID cutoff, in AU, below which an object is
// classified a Potentially Hazardous Asteroid.
const PHAThreshold = 0.05

// PHAFilter reports whether an AsteroidRecord meets the PHA criterion: an
// Earth MOID below PHAThreshold. The upstream PHA flag is not consulted —
// the criterion is the MOID threshold alone.
func PHAFilter(r AsteroidRecord) bool {
	return r.EarthMOIDAU != nil && *r.EarthMOIDAU < PHAThreshold
}
