package feeds

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/wisbric/skywatch/internal/domain"
	"github.com/wisbric/skywatch/internal/resilience"
)

// CloseApproachConfig configures the CloseApproach client, per spec.md
// §4.1's per-endpoint resilience defaults: 60s timeout, mid-sized bulkhead.
type CloseApproachConfig struct {
	BaseURL        string
	Timeout        time.Duration // default 60s
	CircuitBreaker resilience.CircuitBreakerConfig
	Bulkhead       resilience.BulkheadConfig
}

// DefaultCloseApproachConfig matches spec.md's stated defaults.
func DefaultCloseApproachConfig(baseURL string) CloseApproachConfig {
	return CloseApproachConfig{
		BaseURL:        baseURL,
		Timeout:        60 * time.Second,
		CircuitBreaker: resilience.DefaultCircuitBreakerConfig(),
		Bulkhead:       resilience.BulkheadConfig{MaxConcurrent: 3, QueueSize: 10},
	}
}

// DateWindow bounds a close-approach query by date, per the upstream
// date-min/date-max parameters.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// CloseApproachClient fetches predicted close approaches in one window
// query and normalizes the column-indexed response.
type CloseApproachClient struct {
	http     *httpClient
	cfg      CloseApproachConfig
	endpoint *resilience.Endpoint
	retry    resilience.RetryConfig
}

// NewCloseApproachClient constructs a CloseApproachClient.
func NewCloseApproachClient(cfg CloseApproachConfig) *CloseApproachClient {
	return &CloseApproachClient{
		http:     newHTTPClient(cfg.BaseURL, cfg.Timeout),
		cfg:      cfg,
		endpoint: resilience.NewEndpoint("closeapproach", cfg.CircuitBreaker, cfg.Bulkhead, cfg.Timeout),
		retry:    resilience.DefaultRetryConfig(),
	}
}

type cadResponse struct {
	Fields []string   `json:"fields"`
	Data   [][]string `json:"data"`
}

// FetchApproaches issues one window query and groups the resulting
// normalized approach records by asteroid designation. When ids is
// non-empty, only matching designations are kept. maxAU bounds the
// upstream dist-max parameter.
func (c *CloseApproachClient) FetchApproaches(ctx context.Context, ids []string, window DateWindow, maxAU float64) (map[string][]domain.ApproachRecord, error) {
	var resp cadResponse
	err := c.endpoint.Execute(ctx, func(ctx context.Context) error {
		_, err := resilience.Retry(ctx, c.retry, func() (struct{}, error) {
			return struct{}{}, c.http.getJSON(ctx, "/cad.api", map[string]string{
				"date-min": window.Start.UTC().Format("2006-01-02"),
				"date-max": window.End.UTC().Format("2006-01-02"),
				"dist-max": strconv.FormatFloat(maxAU, 'f', -1, 64),
				"body":     "Earth",
				"sort":     "dist",
				"fullname": "true",
			}, &resp)
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	idx := fieldIndex(resp.Fields)
	filter := toSet(ids)

	out := make(map[string][]domain.ApproachRecord)
	for _, row := range resp.Data {
		rec, designation, ok := parseCADRow(row, idx)
		if !ok {
			continue
		}
		if filter != nil && !filter[designation] {
			continue
		}
		out[designation] = append(out[designation], rec)
	}
	return out, nil
}

func fieldIndex(fields []string) map[string]int {
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		idx[f] = i
	}
	return idx
}

func toSet(ids []string) map[string]bool {
	if len(ids) == 0 {
		return nil
	}
	s := make(map[string]bool, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

func parseCADRow(row []string, idx map[string]int) (domain.ApproachRecord, string, bool) {
	des, ok := cell(row, idx, "des")
	if !ok {
		return domain.ApproachRecord{}, "", false
	}
	cd, ok := cell(row, idx, "cd")
	if !ok {
		return domain.ApproachRecord{}, "", false
	}
	distStr, ok := cell(row, idx, "dist")
	if !ok {
		return domain.ApproachRecord{}, "", false
	}
	velStr, ok := cell(row, idx, "v_rel")
	if !ok {
		return domain.ApproachRecord{}, "", false
	}

	approachTime, ok := parseCADTimestamp(cd)
	if !ok {
		return domain.ApproachRecord{}, "", false
	}
	distanceAU, err := strconv.ParseFloat(distStr, 64)
	if err != nil {
		return domain.ApproachRecord{}, "", false
	}
	velocity, err := strconv.ParseFloat(velStr, 64)
	if err != nil {
		return domain.ApproachRecord{}, "", false
	}

	rec := domain.ApproachRecord{
		AsteroidDesignation: strings.TrimSpace(des),
		ApproachTime:        approachTime,
		DistanceAU:          distanceAU,
		DistanceKm:          distanceAU * domain.AUToKm,
		VelocityKmS:         velocity,
	}
	if fullname, ok := cell(row, idx, "fullname"); ok && fullname != "" {
		name := strings.TrimSpace(fullname)
		rec.AsteroidName = &name
	}
	return rec, rec.AsteroidDesignation, true
}

func cell(row []string, idx map[string]int, field string) (string, bool) {
	i, ok := idx[field]
	if !ok || i >= len(row) {
		return "", false
	}
	return row[i], true
}

// cadTimestampLayouts are tried in order; the primary format is
// "YYYY-MMM-DD HH:MM" with English month abbreviations, per spec.md §4.2.
// time.Parse's month matching is always English regardless of process
// locale, so no locale save/restore is needed the way the original
// Python client required.
var cadTimestampLayouts = []string{
	"2006-Jan-02 15:04",
	"2006-Jan-02 15:04:05",
	"2006-Jan-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
}

func parseCADTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range cadTimestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
