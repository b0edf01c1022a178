package domain

import (
	"github.com/wisbric/skywatch/internal/errs"
)

// ThreatAssessment is a per-asteroid impact-risk summary, one-to-one with
// an Asteroid.
type ThreatAssessment struct {
	ID             int64
	AsteroidID     int64
	Designation    string
	Fullname       string
	IP             float64
	TSMax          int
	PSMax          float64
	Diameter       float64
	VInf           float64
	H              float64
	NImp           int
	ImpactYears    []int
	LastObs        string
	ThreatLevel    string
	EnergyMegatons float64
	ImpactCategory string
}

// NewThreatAssessment constructs a ThreatAssessment, always deriving
// ThreatLevel, EnergyMegatons and ImpactCategory from the physical
// parameters (it takes no precomputed values), per spec.md §4.3.
func NewThreatAssessment(designation, fullname string, ip float64, tsMax int, psMax, diameter, vInf, h float64, nImp int, impactYears []int, lastObs string) (*ThreatAssessment, error) {
	if designation == "" {
		return nil, errs.Invariant("designation is required", nil)
	}
	if tsMax < 0 || tsMax > 10 {
		return nil, errs.Invariant("ts_max must be in [0, 10]", nil)
	}
	if ip < 0 {
		return nil, errs.Invariant("ip must be non-negative", nil)
	}
	if diameter < 0 || vInf < 0 || h < 0 {
		return nil, errs.Invariant("diameter, v_inf and h must be non-negative", nil)
	}
	if nImp < 0 {
		return nil, errs.Invariant("n_imp must be non-negative", nil)
	}

	energy := ImpactEnergyMegatons(diameter, vInf)

	return &ThreatAssessment{
		Designation:    designation,
		Fullname:       fullname,
		IP:             ip,
		TSMax:          tsMax,
		PSMax:          psMax,
		Diameter:       diameter,
		VInf:           vInf,
		H:              h,
		NImp:           nImp,
		ImpactYears:    impactYears,
		LastObs:        lastObs,
		ThreatLevel:    ThreatLevel(tsMax, psMax),
		EnergyMegatons: energy,
		ImpactCategory: ImpactCategory(energy),
	}, nil
}
