package domain

import "time"

// AsteroidRecord is the normalized output of the SmallBody client: one
// upstream physical/orbital parameter set for a single designation,
// before it is turned into a persisted Asteroid by a repository upsert.
type AsteroidRecord struct {
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

	// UpstreamPHAFlag is the SmallBody feed's own hazardous marker. It is
	// retained for display/reporting but PHAFilter does not consult it —
	// the filter criterion is the MOID threshold alone.
	UpstreamPHAFlag bool

	// Fallback marks a record synthesized from a failed per-designation
	// lookup (H=18.0, diameter computed from H), per the SmallBody
	// client's tolerance contract.
	Fallback bool
}

// ApproachRecord is the normalized output of the CloseApproach client: one
// predicted encounter, keyed by the owning asteroid's designation until a
// repository resolves it to an asteroid id.
type ApproachRecord struct {
	AsteroidDesignation string
	AsteroidName        *string
	ApproachTime        time.Time
	DistanceAU          float64
	DistanceKm          float64
	VelocityKmS         float64
}

// ThreatRecord is the normalized output of the ImpactRisk client: a
// field-for-field mirror of ThreatAssessment minus the fields the pipeline
// derives locally when absent.
type ThreatRecord struct {
	Designation string
	Fullname    string
	IP          float64
	TSMax       int
	PSMax       float64
	Diameter    float64
	VInf        float64
	H           float64
	NImp        int
	ImpactYears []int
	LastObs     string

	// ThreatLevel, EnergyMegatons and ImpactCategory (with their Has*
	// flags) are not filled by the ImpactRisk client and are not read by
	// the pipeline, which always derives all three locally via
	// ThreatLevel/ImpactEnergyMegatons/ImpactCategory.
	ThreatLevel    string
	HasThreatLevel bool
	EnergyMegatons float64
	HasEnergy      bool
	ImpactCategory string
	HasCategory    bool
}
