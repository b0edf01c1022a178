package ingestion

import (
	"context"
	"log/slog"
	"io"
	"testing"
	"time"

	"github.com/wisbric/skywatch/internal/domain"
	"github.com/wisbric/skywatch/internal/feeds"
)

func moid(v float64) *float64 { return &v }

type fakeSmallBodyFetcher struct {
	records []domain.AsteroidRecord
	err     error
}

func (f fakeSmallBodyFetcher) FetchHazardous(ctx context.Context, limit int) ([]domain.AsteroidRecord, error) {
	return f.records, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPipelineRunReturnsEmptyReportWhenFeedHasNothing(t *testing.T) {
	p := &Pipeline{
		SmallBody: fakeSmallBodyFetcher{records: nil},
		Logger:    discardLogger(),
		Cfg:       DefaultConfig(),
	}

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.Status != StatusSuccess {
		t.Errorf("Status = %q, want success", report.Status)
	}
	if report.Asteroids.Total != 0 {
		t.Errorf("Asteroids.Total = %d, want 0", report.Asteroids.Total)
	}
}

func TestPipelineRunReturnsEmptyReportWhenNoneAreHazardous(t *testing.T) {
	p := &Pipeline{
		SmallBody: fakeSmallBodyFetcher{records: []domain.AsteroidRecord{
			{Designation: "safe", EarthMOIDAU: moid(0.9)},
		}},
		Logger: discardLogger(),
		Cfg:    DefaultConfig(),
	}

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.Asteroids.PHACount != 0 {
		t.Errorf("PHACount = %d, want 0", report.Asteroids.PHACount)
	}
}

var _ closeApproachFetcher = (*feeds.CloseApproachClient)(nil)
var _ impactRiskFetcher = (*feeds.ImpactRiskClient)(nil)
var _ smallBodyFetcher = (*feeds.SmallBodyClient)(nil)

func TestFilterPHAKeepsOnlyLowMOID(t *testing.T) {
	records := []domain.AsteroidRecord{
		{Designation: "flagged-but-high-moid", UpstreamPHAFlag: true, EarthMOIDAU: moid(0.5)},
		{Designation: "close", EarthMOIDAU: moid(0.01)},
		{Designation: "safe", EarthMOIDAU: moid(0.5)},
		{Designation: "unknown"},
	}

	got := filterPHA(records)
	if len(got) != 1 {
		t.Fatalf("filterPHA returned %d records, want 1", len(got))
	}
	if got[0].Designation != "close" {
		t.Errorf("filterPHA kept %q, want close", got[0].Designation)
	}
}

func TestCountApproachesSumsAcrossDesignations(t *testing.T) {
	byDesignation := map[string][]domain.ApproachRecord{
		"a": {{}, {}},
		"b": {{}},
	}
	if n := countApproaches(byDesignation); n != 3 {
		t.Errorf("countApproaches = %d, want 3", n)
	}
}

func TestOrDefaultFallsBackToCalculated(t *testing.T) {
	if got := orDefault(""); got != domain.DiameterSourceCalculated {
		t.Errorf("orDefault(\"\") = %q, want calculated", got)
	}
	if got := orDefault(domain.DiameterSourceMeasured); got != domain.DiameterSourceMeasured {
		t.Errorf("orDefault preserved source, got %q", got)
	}
}

func TestOrFullnameFallsBackToDesignation(t *testing.T) {
	if got := orFullname("", "2023 AB"); got != "2023 AB" {
		t.Errorf("orFullname(\"\", ...) = %q", got)
	}
	if got := orFullname("2023 AB (test)", "2023 AB"); got != "2023 AB (test)" {
		t.Errorf("orFullname did not preserve supplied fullname, got %q", got)
	}
}

func TestBuildThreatAssessmentPrefersUpstreamOverLocal(t *testing.T) {
	asteroid := domain.Asteroid{
		EstimatedDiameterKm: 0.2,
		AbsoluteMagnitude:   20.0,
	}
	tr := domain.ThreatRecord{
		Designation: "2023 AB",
		Diameter:    0.5,
		VInf:        15.0,
		H:           19.0,
		TSMax:       4,
		PSMax:       -1.2,
	}

	ta := buildThreatAssessment(asteroid, "2023 AB", 12.0, tr)
	if ta.Diameter != 0.5 {
		t.Errorf("Diameter = %v, want upstream 0.5", ta.Diameter)
	}
	if ta.VInf != 15.0 {
		t.Errorf("VInf = %v, want upstream 15.0", ta.VInf)
	}
	if ta.ThreatLevel == "" {
		t.Error("expected a derived threat level")
	}
}

func TestBuildThreatAssessmentFallsBackToLocalWhenUpstreamEmpty(t *testing.T) {
	asteroid := domain.Asteroid{
		EstimatedDiameterKm: 0.3,
		AbsoluteMagnitude:   18.5,
	}
	ta := buildThreatAssessment(asteroid, "2023 CD", 9.0, domain.ThreatRecord{})
	if ta.Diameter != 0.3 {
		t.Errorf("Diameter = %v, want local 0.3", ta.Diameter)
	}
	if ta.VInf != 9.0 {
		t.Errorf("VInf = %v, want approach velocity 9.0", ta.VInf)
	}
	if ta.H != 18.5 {
		t.Errorf("H = %v, want local 18.5", ta.H)
	}
}

func TestNewRunIDFormat(t *testing.T) {
	at := time.Date(2029, time.April, 13, 21, 46, 5, 0, time.UTC)
	got := newRunID(at)
	want := "update_20290413_214605"
	if got != want {
		t.Errorf("newRunID = %q, want %q", got, want)
	}
}
