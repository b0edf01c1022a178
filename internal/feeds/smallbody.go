package feeds

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/wisbric/skywatch/internal/domain"
	"github.com/wisbric/skywatch/internal/resilience"
	"github.com/wisbric/skywatch/internal/unitconv"
)

// SmallBodyConfig configures the SmallBody client's batching and
// resilience behavior, per spec.md §4.2/§4.1 defaults.
type SmallBodyConfig struct {
	BaseURL        string
	DefaultLimit   int           // default 3000
	BatchSize      int           // default 50
	BatchDelay     time.Duration // default 1s
	Timeout        time.Duration // default 30s
	CircuitBreaker resilience.CircuitBreakerConfig
	Bulkhead       resilience.BulkheadConfig
}

// DefaultSmallBodyConfig matches spec.md's stated defaults for the
// small-body database endpoint: largest bulkhead of the three clients.
func DefaultSmallBodyConfig(baseURL string) SmallBodyConfig {
	return SmallBodyConfig{
		BaseURL:        baseURL,
		DefaultLimit:   3000,
		BatchSize:      50,
		BatchDelay:     time.Second,
		Timeout:        30 * time.Second,
		CircuitBreaker: resilience.DefaultCircuitBreakerConfig(),
		Bulkhead:       resilience.BulkheadConfig{MaxConcurrent: 10, QueueSize: 40},
	}
}

var measuredDiameterMarkers = []string{
	"radar", "iras", "wise", "neowise", "spitzer", "thermal", "occultation",
	"adaptive optics", "hst", "hubble", "keck", "vlt", "arecibo",
}

var computedDiameterMarkers = []string{
	"assumed", "typical", "standard", "default", "estimated from", "derived from",
}

// SmallBodyClient fetches the hazardous-object list and enriches each
// designation with physical/orbital parameters via per-object detail
// lookups, batched and rate-limited.
type SmallBodyClient struct {
	http     *httpClient
	cfg      SmallBodyConfig
	endpoint *resilience.Endpoint
	retry    resilience.RetryConfig
}

// NewSmallBodyClient constructs a SmallBodyClient.
func NewSmallBodyClient(cfg SmallBodyConfig) *SmallBodyClient {
	return &SmallBodyClient{
		http:     newHTTPClient(cfg.BaseURL, cfg.Timeout),
		cfg:      cfg,
		endpoint: resilience.NewEndpoint("smallbody", cfg.CircuitBreaker, cfg.Bulkhead, cfg.Timeout),
		retry:    resilience.DefaultRetryConfig(),
	}
}

type sbdbListResponse struct {
	Data   [][]string `json:"data"`
	Fields []string   `json:"fields"`
}

type sbdbObjectResponse struct {
	Object struct {
		Designation string `json:"des"`
		Fullname    string `json:"fullname"`
		PHA         string `json:"pha"`
	} `json:"object"`
	Orbit struct {
		Elements []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"elements"`
		MOID map[string]any `json:"moid"`
	} `json:"orbit"`
	PhysPar []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
		Notes string `json:"notes"`
		Ref   string `json:"ref"`
	} `json:"phys_par"`
}

// FetchHazardous lists up to limit PHAs (cfg.DefaultLimit when limit <= 0)
// and enriches each with a per-designation physical-parameter lookup,
// batched by cfg.BatchSize with cfg.BatchDelay between batches.
func (c *SmallBodyClient) FetchHazardous(ctx context.Context, limit int) ([]domain.AsteroidRecord, error) {
	if limit <= 0 {
		limit = c.cfg.DefaultLimit
	}

	designations, err := c.listHazardous(ctx, limit)
	if err != nil {
		return nil, err
	}

	records := make([]domain.AsteroidRecord, 0, len(designations))
	for start := 0; start < len(designations); start += c.cfg.BatchSize {
		end := start + c.cfg.BatchSize
		if end > len(designations) {
			end = len(designations)
		}
		batch := designations[start:end]

		for _, des := range batch {
			rec, err := c.fetchOneWithFallback(ctx, des)
			if err != nil {
				continue
			}
			records = append(records, rec)
		}

		if end < len(designations) {
			select {
			case <-ctx.Done():
				return records, ctx.Err()
			case <-time.After(c.cfg.BatchDelay):
			}
		}
	}
	return records, nil
}

func (c *SmallBodyClient) listHazardous(ctx context.Context, limit int) ([]string, error) {
	var resp sbdbListResponse
	err := c.endpoint.Execute(ctx, func(ctx context.Context) error {
		_, err := resilience.Retry(ctx, c.retry, func() (struct{}, error) {
			return struct{}{}, c.http.getJSON(ctx, "/sbdb_query.api", map[string]string{
				"fields":   "pdes",
				"sb-group": "pha",
				"limit":    strconv.Itoa(limit),
			}, &resp)
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(resp.Data))
	for _, row := range resp.Data {
		if len(row) > 0 {
			out = append(out, strings.TrimSpace(row[0]))
		}
	}
	return out, nil
}

// fetchOneWithFallback fetches detail for one designation, substituting a
// fallback record (H=18.0, calculated diameter) when the lookup fails,
// per spec.md §4.2's per-designation tolerance contract.
func (c *SmallBodyClient) fetchOneWithFallback(ctx context.Context, designation string) (domain.AsteroidRecord, error) {
	rec, err := c.fetchOne(ctx, designation)
	if err == nil {
		return rec, nil
	}
	diameter := domain.DiameterFromH(18.0)
	return domain.AsteroidRecord{
		Designation:         designation,
		AbsoluteMagnitude:   18.0,
		EstimatedDiameterKm: diameter,
		Albedo:              0.15,
		DiameterSource:      domain.DiameterSourceCalculated,
		Fallback:            true,
	}, nil
}

func (c *SmallBodyClient) fetchOne(ctx context.Context, designation string) (domain.AsteroidRecord, error) {
	var resp sbdbObjectResponse
	err := c.endpoint.Execute(ctx, func(ctx context.Context) error {
		_, err := resilience.Retry(ctx, c.retry, func() (struct{}, error) {
			return struct{}{}, c.http.getJSON(ctx, "/sbdb.api", map[string]string{
				"sstr":     designation,
				"phys-par": "true",
			}, &resp)
		})
		return err
	})
	if err != nil {
		return domain.AsteroidRecord{}, err
	}
	return parseObjectResponse(designation, resp), nil
}

func parseObjectResponse(designation string, resp sbdbObjectResponse) domain.AsteroidRecord {
	rec := domain.AsteroidRecord{
		Designation:       designation,
		AbsoluteMagnitude: defaultAbsoluteMagnitudeIfMissing(resp),
		Albedo:            0.15,
	}
	if resp.Object.Fullname != "" {
		name := resp.Object.Fullname
		rec.Name = &name
	}
	rec.UpstreamPHAFlag = strings.EqualFold(resp.Object.PHA, "Y")

	elements := make(map[string]string, len(resp.Orbit.Elements))
	for _, el := range resp.Orbit.Elements {
		elements[el.Name] = el.Value
	}

	perihelion, aphelion := parsePerihelionAphelion(elements)
	rec.PerihelionAU = perihelion
	rec.AphelionAU = aphelion
	rec.EarthMOIDAU = parseMOID(resp.Orbit.MOID)

	diameterKm, source, accurate, haveDiameter := parsePhysicalDiameter(resp.PhysPar)
	albedo, haveAlbedo := parseAlbedo(resp.PhysPar)
	if haveAlbedo {
		rec.Albedo = albedo
	}

	switch {
	case haveDiameter:
		rec.EstimatedDiameterKm = diameterKm
		rec.DiameterSource = source
		rec.AccurateDiameter = accurate
	default:
		rec.EstimatedDiameterKm = domain.DiameterFromH(rec.AbsoluteMagnitude)
		rec.DiameterSource = domain.DiameterSourceCalculated
	}

	return rec
}

func defaultAbsoluteMagnitudeIfMissing(resp sbdbObjectResponse) float64 {
	for _, p := range resp.PhysPar {
		if strings.EqualFold(p.Name, "H") {
			if v, ok := unitconv.ParseMagnitude(p.Value); ok {
				return v
			}
		}
	}
	return 18.0
}

func parsePerihelionAphelion(elements map[string]string) (perihelion, aphelion *float64) {
	if q, ok := elements["q"]; ok {
		if v, ok := unitconv.ParseLength(q); ok {
			perihelion = &v
		}
	}
	if ad, ok := elements["ad"]; ok {
		if v, ok := unitconv.ParseLength(ad); ok {
			aphelion = &v
		}
	}
	if perihelion != nil && aphelion != nil {
		return perihelion, aphelion
	}

	a, haveA := elements["a"]
	e, haveE := elements["e"]
	if !haveA || !haveE {
		return perihelion, aphelion
	}
	av, okA := unitconv.ParseMagnitude(a)
	ev, okE := unitconv.ParseMagnitude(e)
	if !okA || !okE {
		return perihelion, aphelion
	}
	if perihelion == nil {
		p := av * (1 - ev)
		perihelion = &p
	}
	if aphelion == nil {
		ap := av * (1 + ev)
		aphelion = &ap
	}
	return perihelion, aphelion
}

func parseMOID(moid map[string]any) *float64 {
	if moid == nil {
		return nil
	}
	for _, key := range []string{"earth", "moid", "moid_earth"} {
		if v, ok := moid[key]; ok {
			if f, ok := unitconv.ParseLength(v); ok {
				return &f
			}
		}
	}
	return nil
}

func parseAlbedo(phys []struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Notes string `json:"notes"`
	Ref   string `json:"ref"`
}) (float64, bool) {
	for _, p := range phys {
		if !strings.EqualFold(p.Name, "albedo") {
			continue
		}
		if v, ok := unitconv.ParseMagnitude(p.Value); ok && v > 0 && v <= 1 {
			return v, true
		}
	}
	return 0, false
}

func parsePhysicalDiameter(phys []struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Notes string `json:"notes"`
	Ref   string `json:"ref"`
}) (km float64, source string, accurate bool, ok bool) {
	for _, p := range phys {
		if !strings.EqualFold(p.Name, "diameter") {
			continue
		}
		v, parsed := unitconv.ParseLength(p.Value)
		if !parsed || v <= 0 {
			continue
		}
		context := strings.ToLower(p.Notes + " " + p.Ref)
		switch {
		case containsAny(context, measuredDiameterMarkers):
			return v, domain.DiameterSourceMeasured, true, true
		case containsAny(context, computedDiameterMarkers):
			return v, domain.DiameterSourceComputed, false, true
		default:
			// Neither marker list matches: default to measured, matching
			// _is_diameter_measured's own fallthrough in the upstream feed.
			return v, domain.DiameterSourceMeasured, true, true
		}
	}
	return 0, "", false, false
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
