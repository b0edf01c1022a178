package feeds

import (
	"context"
	"strconv"
	"time"

	"github.com/wisbric/skywatch/internal/domain"
	"github.com/wisbric/skywatch/internal/resilience"
)

// ImpactRiskConfig configures the ImpactRisk client, per spec.md §4.1's
// per-endpoint resilience defaults: 120s timeout, smallest bulkhead of the
// three clients.
type ImpactRiskConfig struct {
	BaseURL        string
	Timeout        time.Duration // default 120s
	CircuitBreaker resilience.CircuitBreakerConfig
	Bulkhead       resilience.BulkheadConfig
}

// DefaultImpactRiskConfig matches spec.md's stated defaults.
func DefaultImpactRiskConfig(baseURL string) ImpactRiskConfig {
	return ImpactRiskConfig{
		BaseURL:        baseURL,
		Timeout:        120 * time.Second,
		CircuitBreaker: resilience.DefaultCircuitBreakerConfig(),
		Bulkhead:       resilience.BulkheadConfig{MaxConcurrent: 2, QueueSize: 5},
	}
}

// ImpactRiskClient fetches Sentry impact-risk summaries, either the full
// list or a single designation.
type ImpactRiskClient struct {
	http     *httpClient
	endpoint *resilience.Endpoint
	retry    resilience.RetryConfig
}

// NewImpactRiskClient constructs an ImpactRiskClient.
func NewImpactRiskClient(cfg ImpactRiskConfig) *ImpactRiskClient {
	return &ImpactRiskClient{
		http:     newHTTPClient(cfg.BaseURL, cfg.Timeout),
		endpoint: resilience.NewEndpoint("impactrisk", cfg.CircuitBreaker, cfg.Bulkhead, cfg.Timeout),
		retry:    resilience.DefaultRetryConfig(),
	}
}

type sentryObject struct {
	Designation string   `json:"des"`
	Fullname    string   `json:"fullname"`
	IP          string   `json:"ip"`
	TSMax       string   `json:"ts_max"`
	PSMax       string   `json:"ps_max"`
	Diameter    string   `json:"diameter"`
	VInf        string   `json:"v_inf"`
	H           string   `json:"h"`
	NImp        string   `json:"n_imp"`
	ImpactYears []string `json:"range"`
	LastObs     string   `json:"last_obs"`
}

type sentryListResponse struct {
	Data []sentryObject `json:"data"`
}

type sentryObjectResponse struct {
	Summary *sentryObject `json:"summary"`
}

// FetchAll returns every object Sentry currently tracks.
func (c *ImpactRiskClient) FetchAll(ctx context.Context) ([]domain.ThreatRecord, error) {
	var resp sentryListResponse
	err := c.endpoint.Execute(ctx, func(ctx context.Context) error {
		_, err := resilience.Retry(ctx, c.retry, func() (struct{}, error) {
			return struct{}{}, c.http.getJSON(ctx, "/sentry.api", nil, &resp)
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.ThreatRecord, 0, len(resp.Data))
	for _, obj := range resp.Data {
		out = append(out, toThreatRecord(obj))
	}
	return out, nil
}

// FetchOne returns the Sentry summary for one designation, or nil if
// Sentry does not track that object (NotFound is not an error here, per
// spec.md §7).
func (c *ImpactRiskClient) FetchOne(ctx context.Context, designation string) (*domain.ThreatRecord, error) {
	var resp sentryObjectResponse
	err := c.endpoint.Execute(ctx, func(ctx context.Context) error {
		_, err := resilience.Retry(ctx, c.retry, func() (struct{}, error) {
			return struct{}{}, c.http.getJSON(ctx, "/sentry.api", map[string]string{"des": designation}, &resp)
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if resp.Summary == nil {
		return nil, nil
	}
	rec := toThreatRecord(*resp.Summary)
	return &rec, nil
}

func toThreatRecord(obj sentryObject) domain.ThreatRecord {
	rec := domain.ThreatRecord{
		Designation: obj.Designation,
		Fullname:    obj.Fullname,
		LastObs:     obj.LastObs,
	}
	rec.IP = parseFloatOr(obj.IP, 0)
	rec.TSMax = int(parseFloatOr(obj.TSMax, 0))
	rec.PSMax = parseFloatOr(obj.PSMax, -99)
	rec.Diameter = parseFloatOr(obj.Diameter, 0)
	rec.VInf = parseFloatOr(obj.VInf, 0)
	rec.H = parseFloatOr(obj.H, 0)
	rec.NImp = int(parseFloatOr(obj.NImp, 0))

	for _, y := range obj.ImpactYears {
		if v := int(parseFloatOr(y, -1)); v >= 0 {
			rec.ImpactYears = append(rec.ImpactYears, v)
		}
	}
	return rec
}

func parseFloatOr(s string, fallback float64) float64 {
	if s == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return f
}
