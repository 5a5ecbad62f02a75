package harvest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lysyi3m/cima-comb/app/source"
	"golang.org/x/net/html/charset"
)

const (
	ListingTimeout = 60 * time.Second
	DetailTimeout  = 30 * time.Second
	ProbeTimeout   = 10 * time.Second

	maxBodySize = 10 * 1024 * 1024
)

// Client issues GET requests with a fixed user agent and per-call timeouts.
type Client struct {
	http      *http.Client
	userAgent string
}

func NewClient(httpClient *http.Client, userAgent string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{http: httpClient, userAgent: userAgent}
}

// Fetch downloads rawURL, decodes the body to UTF-8 and parses it once.
// A non-2xx response is an error.
func (c *Client) Fetch(ctx context.Context, rawURL string, timeout time.Duration) (*source.Page, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ar,en;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
	}

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		reader = resp.Body
	}

	body, err := io.ReadAll(io.LimitReader(reader, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body from %s: %w", rawURL, err)
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	page, err := source.NewPage(finalURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", rawURL, err)
	}
	return page, nil
}

// ProbeResult reports a lightweight reachability check.
type ProbeResult struct {
	URL        string `json:"url"`
	Reachable  bool   `json:"reachable"`
	StatusCode int    `json:"status_code,omitempty"`
	LatencyMS  int64  `json:"latency_ms"`
	Error      string `json:"error,omitempty"`
}

// Probe sends a HEAD request. Any response below 500 counts as reachable.
func (c *Client) Probe(ctx context.Context, rawURL string) ProbeResult {
	result := ProbeResult{URL: rawURL}

	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	result.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		result.Error = err.Error()
		return result
	}
	resp.Body.Close()

	result.StatusCode = resp.StatusCode
	result.Reachable = resp.StatusCode < 500
	return result
}
