package feeds

import (
	"context"
	"testing"

	"github.com/wisbric/skywatch/internal/domain"
)

func canceledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

func physParType(name, value, notes, ref string) []struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Notes string `json:"notes"`
	Ref   string `json:"ref"`
} {
	return []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
		Notes string `json:"notes"`
		Ref   string `json:"ref"`
	}{{Name: name, Value: value, Notes: notes, Ref: ref}}
}

func TestParsePhysicalDiameterTagsMeasured(t *testing.T) {
	phys := physParType("diameter", "1.5", "derived from radar observations", "")
	km, source, accurate, ok := parsePhysicalDiameter(phys)
	if !ok {
		t.Fatal("expected diameter to parse")
	}
	if km != 1.5 {
		t.Errorf("km = %v", km)
	}
	if source != domain.DiameterSourceMeasured {
		t.Errorf("source = %q, want measured", source)
	}
	if !accurate {
		t.Error("expected accurate=true for radar-tagged diameter")
	}
}

func TestParsePhysicalDiameterTagsComputed(t *testing.T) {
	phys := physParType("diameter", "2.1", "assumed typical albedo", "")
	_, source, accurate, ok := parsePhysicalDiameter(phys)
	if !ok {
		t.Fatal("expected diameter to parse")
	}
	if source != domain.DiameterSourceComputed {
		t.Errorf("source = %q, want computed", source)
	}
	if accurate {
		t.Error("expected accurate=false for assumed diameter")
	}
}

func TestParsePhysicalDiameterDefaultsToMeasured(t *testing.T) {
	phys := physParType("diameter", "3.2", "", "Smith et al. 2019")
	_, source, accurate, ok := parsePhysicalDiameter(phys)
	if !ok {
		t.Fatal("expected diameter to parse")
	}
	if source != domain.DiameterSourceMeasured {
		t.Errorf("source = %q, want measured (unmarked notes/ref default to measured)", source)
	}
	if !accurate {
		t.Error("expected accurate=true for the unmarked default")
	}
}

func TestParsePhysicalDiameterMissingFallsBackToFalse(t *testing.T) {
	_, _, _, ok := parsePhysicalDiameter(nil)
	if ok {
		t.Fatal("expected no diameter reported")
	}
}

func TestParseAlbedoRejectsOutOfRangeValue(t *testing.T) {
	phys := physParType("albedo", "1.5", "", "")
	if _, ok := parseAlbedo(phys); ok {
		t.Fatal("expected out-of-range albedo to be rejected")
	}
}

func TestParseAlbedoAcceptsValidValue(t *testing.T) {
	phys := physParType("albedo", "0.25", "", "")
	v, ok := parseAlbedo(phys)
	if !ok || v != 0.25 {
		t.Fatalf("parseAlbedo = %v, %v", v, ok)
	}
}

func TestFetchOneWithFallbackUsesCalculatedSource(t *testing.T) {
	c := NewSmallBodyClient(DefaultSmallBodyConfig("http://example.invalid"))
	rec, err := c.fetchOneWithFallback(canceledContext(), "2023 FAIL")
	if err != nil {
		t.Fatalf("fallback should never error: %v", err)
	}
	if !rec.Fallback {
		t.Error("expected Fallback=true")
	}
	if rec.DiameterSource != domain.DiameterSourceCalculated {
		t.Errorf("DiameterSource = %q, want calculated", rec.DiameterSource)
	}
	if rec.AbsoluteMagnitude != 18.0 {
		t.Errorf("AbsoluteMagnitude = %v, want 18.0", rec.AbsoluteMagnitude)
	}
}
