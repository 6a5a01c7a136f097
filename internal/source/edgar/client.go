package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"filingwatch/internal/source"
)

const (
	DefaultBaseURL    = "https://data.sec.gov"
	DefaultArchiveURL = "https://www.sec.gov/Archives/edgar/data"
	DefaultThrottle   = 200 * time.Millisecond

	sourceName = "sec"
)

// Client fetches filing listings from the EDGAR submissions API.
// The throttle is shared across all calls on one instance: EDGAR enforces a
// global request budget per client, not per ticker.
type Client struct {
	baseURL    string
	archiveURL string
	userAgent  string
	httpClient *http.Client

	minDelay time.Duration
	mu       sync.Mutex
	nextAt   time.Time
}

func NewClient(httpClient *http.Client, baseURL, archiveURL, userAgent string, minDelay time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if archiveURL == "" {
		archiveURL = DefaultArchiveURL
	}
	if minDelay <= 0 {
		minDelay = DefaultThrottle
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		archiveURL: strings.TrimRight(archiveURL, "/"),
		userAgent:  userAgent,
		httpClient: httpClient,
		minDelay:   minDelay,
	}
}

func (c *Client) Name() string {
	return sourceName
}

// ListFilings returns normalized records for one issuer, most-recent-first as
// EDGAR orders them. Records missing mandatory fields are dropped, not raised.
func (c *Client) ListFilings(ctx context.Context, symbol, externalID string, limit int) ([]source.FilingRecord, error) {
	cik := padCIK(externalID)
	if cik == "" {
		return nil, fmt.Errorf("%w: empty external id", source.ErrRejected)
	}
	body, err := c.doRequest(ctx, "/submissions/CIK"+cik+".json")
	if err != nil {
		return nil, err
	}

	var payload submissionsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode submissions: %v", source.ErrUnavailable, err)
	}
	return c.normalize(symbol, externalID, payload.Filings.Recent, limit), nil
}

func (c *Client) normalize(symbol, externalID string, recent recentFilings, limit int) []source.FilingRecord {
	n := len(recent.AccessionNumber)
	records := make([]source.FilingRecord, 0, n)
	for i := 0; i < n; i++ {
		if limit > 0 && len(records) >= limit {
			break
		}
		date, err := time.Parse("2006-01-02", recent.at(recent.FilingDate, i))
		if err != nil {
			continue
		}
		accession := recent.at(recent.AccessionNumber, i)
		record, err := source.NewFilingRecord(
			sourceName,
			symbol,
			accession,
			recent.at(recent.Form, i),
			recent.at(recent.PrimaryDocDescription, i),
			date,
			c.indexURL(externalID, accession),
			"",
		)
		if err != nil {
			continue
		}
		records = append(records, record)
	}
	return records
}

// indexURL builds the directory-style index link for a filing. Deep links to
// the primary document are avoided: sub-document naming is not stable in the
// listing.
func (c *Client) indexURL(externalID, accession string) string {
	return fmt.Sprintf("%s/%s/%s/",
		c.archiveURL,
		strings.TrimLeft(padCIK(externalID), "0"),
		strings.ReplaceAll(accession, "-", ""),
	)
}

func (c *Client) doRequest(ctx context.Context, path string) ([]byte, error) {
	if err := c.waitTurn(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrUnavailable, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", source.ErrRejected, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrUnavailable, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", source.ErrUnavailable, err)
	}
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, fmt.Errorf("%w: status %d", source.ErrRejected, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: status %d", source.ErrUnavailable, resp.StatusCode)
	}
}

// waitTurn reserves the next request slot under the shared throttle, then
// sleeps until that slot. Context cancellation releases the wait but not the
// reservation.
func (c *Client) waitTurn(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	at := c.nextAt
	if at.Before(now) {
		at = now
	}
	c.nextAt = at.Add(c.minDelay)
	c.mu.Unlock()

	wait := time.Until(at)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// padCIK zero-pads a numeric registry identifier to the fixed 10-digit width
// the submissions endpoint expects.
func padCIK(externalID string) string {
	id := strings.TrimSpace(externalID)
	if id == "" || len(id) > 10 {
		return ""
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return strings.Repeat("0", 10-len(id)) + id
}
