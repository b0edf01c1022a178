// Package feeds implements the three external astronomical data clients:
// SmallBody, CloseApproach and ImpactRisk. Each wraps its HTTP calls in a
// resilience.Endpoint (circuit breaker, bulkhead, timeout) and a bounded
// retry, and never lets a raw transport error escape to the ingestion
// pipeline — every failure is translated into the errs taxonomy.
package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/wisbric/skywatch/internal/errs"
)

// httpClient is the shared low-level transport for all three feed clients:
// one *http.Client, the base URL and the User-Agent. The endpoint-specific
// resilience wrapping and retry policy live on each feed client, not here.
type httpClient struct {
	base      *http.Client
	baseURL   string
	userAgent string
}

func newHTTPClient(baseURL string, timeout time.Duration) *httpClient {
	return &httpClient{
		base:      &http.Client{Timeout: timeout},
		baseURL:   baseURL,
		userAgent: "skywatch-ingestion/1.0",
	}
}

// getJSON issues a GET to path with the given query parameters and decodes
// the JSON response body into out. Non-2xx responses are translated into
// the errs taxonomy: 429 becomes RateLimited (honoring Retry-After), 5xx
// and network failures become TransientUpstream, anything else a plain
// error since it is not one the retry/resilience layer should act on.
func (c *httpClient) getJSON(ctx context.Context, path string, query map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	q := req.URL.Query()
	for k, v := range query {
		q.Set(k, v)
	}
	req.URL.RawQuery = q.Encode()

	resp, err := c.base.Do(req)
	if err != nil {
		return errs.Transient(fmt.Sprintf("request to %s failed", path), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Transient(fmt.Sprintf("reading response from %s", path), err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return errs.RateLimitedf(retryAfter(resp), fmt.Sprintf("rate limited by %s", path), nil)
	case resp.StatusCode >= 500:
		return errs.Transient(fmt.Sprintf("%s returned %d", path, resp.StatusCode), nil)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, truncate(body, 200))
	}

	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errs.Parse(fmt.Sprintf("decoding response from %s", path), err)
	}
	return nil
}

func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil {
		return time.Duration(secs) * time.Second
	}
	if when, err := http.ParseTime(h); err == nil {
		return time.Until(when)
	}
	return 0
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
