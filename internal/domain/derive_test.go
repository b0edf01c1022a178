package domain

import (
	"math"
	"testing"
)

func TestPHAFilterMatchesMOIDThreshold(t *testing.T) {
	below := 0.049
	above := 0.05
	atThreshold := PHAThreshold

	cases := []struct {
		name string
		rec  AsteroidRecord
		want bool
	}{
		{"below threshold", AsteroidRecord{EarthMOIDAU: &below}, true},
		{"at threshold is not below", AsteroidRecord{EarthMOIDAU: &atThreshold}, false},
		{"above threshold", AsteroidRecord{EarthMOIDAU: &above}, false},
		{"nil moid, no flag", AsteroidRecord{}, false},
		{"nil moid, upstream flag set is not consulted", AsteroidRecord{UpstreamPHAFlag: true}, false},
		{"above threshold, upstream flag set is not consulted", AsteroidRecord{EarthMOIDAU: &above, UpstreamPHAFlag: true}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := PHAFilter(c.rec); got != c.want {
				t.Errorf("PHAFilter(%+v) = %v, want %v", c.rec, got, c.want)
			}
		})
	}
}

func TestDiameterFromAlbedoMatchesDiameterFromH(t *testing.T) {
	for _, h := range []float64{0, 5, 10.5, 18, 25, 30.123} {
		want := DiameterFromH(h)
		got, err := DiameterFromAlbedo(0.15, h)
		if err != nil {
			t.Fatalf("DiameterFromAlbedo(0.15, %v) returned error: %v", h, err)
		}
		if got != want {
			t.Errorf("DiameterFromAlbedo(0.15, %v) = %v, want %v (DiameterFromH)", h, got, want)
		}
	}
}

func TestDiameterFromAlbedoRejectsNonPositiveAlbedo(t *testing.T) {
	for _, albedo := range []float64{0, -0.1, -1} {
		if _, err := DiameterFromAlbedo(albedo, 18); err == nil {
			t.Errorf("DiameterFromAlbedo(%v, 18) did not error", albedo)
		}
	}
}

func TestImpactEnergyMegatonsZeroCases(t *testing.T) {
	if e := ImpactEnergyMegatons(0.1, 0); e != 0 {
		t.Errorf("ImpactEnergyMegatons(0.1, 0) = %v, want 0", e)
	}
	if e := ImpactEnergyMegatons(0, 20); e != 0 {
		t.Errorf("ImpactEnergyMegatons(0, 20) = %v, want 0", e)
	}
	if e := ImpactEnergyMegatons(-1, 20); e != 0 {
		t.Errorf("ImpactEnergyMegatons(-1, 20) = %v, want 0", e)
	}
}

func TestImpactEnergyMegatonsKnownValue(t *testing.T) {
	// d=0.1 km, v=20 km/s ~ 50.05 Mt, per scenario S4.
	got := ImpactEnergyMegatons(0.1, 20)
	want := 50.05
	if diff := math.Abs(got - want); diff > 0.5 {
		t.Errorf("ImpactEnergyMegatons(0.1, 20) = %v, want ~%v", got, want)
	}
	if cat := ImpactCategory(got); cat != ImpactCategoryRegional {
		t.Errorf("ImpactCategory(%v) = %q, want %q", got, cat, ImpactCategoryRegional)
	}
}

func TestImpactCategoryBoundaries(t *testing.T) {
	cases := []struct {
		energy float64
		want   string
	}{
		{0.5, ImpactCategoryLocal},
		{0.999, ImpactCategoryLocal},
		{1, ImpactCategoryRegional},
		{99.999, ImpactCategoryRegional},
		{100, ImpactCategoryGlobal},
		{1000, ImpactCategoryGlobal},
	}
	for _, c := range cases {
		if got := ImpactCategory(c.energy); got != c.want {
			t.Errorf("ImpactCategory(%v) = %q, want %q", c.energy, got, c.want)
		}
	}
}

func TestThreatLevelScenarioS3(t *testing.T) {
	cases := []struct {
		tsMax int
		psMax float64
		want  string
	}{
		{0, -3, ThreatLevelZero},
		{0, -1, ThreatLevelVeryLow},
		{5, 0, ThreatLevelMedium},
		{8, 0, ThreatLevelCritical},
	}
	for _, c := range cases {
		if got := ThreatLevel(c.tsMax, c.psMax); got != c.want {
			t.Errorf("ThreatLevel(%d, %v) = %q, want %q", c.tsMax, c.psMax, got, c.want)
		}
	}
}

func TestThreatLevelFullTable(t *testing.T) {
	cases := []struct {
		tsMax int
		want  string
	}{
		{1, ThreatLevelLow},
		{2, ThreatLevelLow},
		{4, ThreatLevelLow},
		{6, ThreatLevelElevated},
		{7, ThreatLevelHigh},
		{9, ThreatLevelCritical},
		{10, ThreatLevelCritical},
	}
	for _, c := range cases {
		if got := ThreatLevel(c.tsMax, 0); got != c.want {
			t.Errorf("ThreatLevel(%d, 0) = %q, want %q", c.tsMax, got, c.want)
		}
	}
}
