package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"filingwatch/internal/repository"
)

const (
	DefaultPrimaryURL  = "https://www.sec.gov/files/company_tickers.json"
	DefaultExchangeURL = "https://www.sec.gov/files/company_tickers_exchange.json"
)

// Loader seeds the ticker universe from the bulk SEC listing, either local
// files or the remote endpoints. The store side does not know which.
type Loader struct {
	httpClient  *http.Client
	primaryURL  string
	exchangeURL string
	userAgent   string
}

func NewLoader(httpClient *http.Client, primaryURL, exchangeURL, userAgent string) *Loader {
	if primaryURL == "" {
		primaryURL = DefaultPrimaryURL
	}
	if exchangeURL == "" {
		exchangeURL = DefaultExchangeURL
	}
	return &Loader{
		httpClient:  httpClient,
		primaryURL:  primaryURL,
		exchangeURL: exchangeURL,
		userAgent:   userAgent,
	}
}

// primaryEntry is one value of the company_tickers.json object, keyed by an
// arbitrary row index.
type primaryEntry struct {
	CIK    json.Number `json:"cik_str"`
	Ticker string      `json:"ticker"`
	Title  string      `json:"title"`
}

// FetchSeeds downloads the listing and the exchange enrichment file. A failed
// exchange fetch degrades to seeds without exchange data rather than failing
// the load.
func (l *Loader) FetchSeeds(ctx context.Context) ([]repository.TickerSeed, error) {
	primary, err := l.fetch(ctx, l.primaryURL)
	if err != nil {
		return nil, err
	}
	exchanges := map[int64]string{}
	if raw, err := l.fetch(ctx, l.exchangeURL); err == nil {
		exchanges, _ = parseExchangeMap(raw)
	}
	return buildSeeds(primary, exchanges)
}

// LoadSeedsFromFiles reads local copies of the same two SEC files. The
// exchange path is optional.
func (l *Loader) LoadSeedsFromFiles(primaryPath, exchangePath string) ([]repository.TickerSeed, error) {
	primary, err := os.ReadFile(primaryPath)
	if err != nil {
		return nil, err
	}
	exchanges := map[int64]string{}
	if exchangePath != "" {
		if raw, err := os.ReadFile(exchangePath); err == nil {
			exchanges, _ = parseExchangeMap(raw)
		}
	}
	return buildSeeds(primary, exchanges)
}

func buildSeeds(primary []byte, exchanges map[int64]string) ([]repository.TickerSeed, error) {
	var entries map[string]primaryEntry
	if err := json.Unmarshal(primary, &entries); err != nil {
		return nil, fmt.Errorf("decode ticker listing: %w", err)
	}
	seeds := make([]repository.TickerSeed, 0, len(entries))
	for _, entry := range entries {
		cik, err := entry.CIK.Int64()
		if err != nil || strings.TrimSpace(entry.Ticker) == "" {
			continue
		}
		seeds = append(seeds, repository.TickerSeed{
			Symbol:   strings.ToUpper(strings.TrimSpace(entry.Ticker)),
			Name:     strings.TrimSpace(entry.Title),
			CIK:      strconv.FormatInt(cik, 10),
			Exchange: exchanges[cik],
		})
	}
	return seeds, nil
}

// parseExchangeMap handles both shapes SEC has published for the exchange
// file: a dict of row objects, and a {"fields": [...], "data": [[...]]}
// table. Neither is treated as authoritative; whichever the payload is gets
// parsed.
func parseExchangeMap(raw []byte) (map[int64]string, error) {
	out := map[int64]string{}

	var table struct {
		Fields []string          `json:"fields"`
		Data   [][]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &table); err == nil && len(table.Fields) > 0 && len(table.Data) > 0 {
		cikIdx, exchIdx := indexOf(table.Fields, "cik"), indexOf(table.Fields, "exchange")
		if cikIdx < 0 || exchIdx < 0 {
			return out, nil
		}
		for _, row := range table.Data {
			if cikIdx >= len(row) || exchIdx >= len(row) {
				continue
			}
			var cik json.Number
			if err := json.Unmarshal(row[cikIdx], &cik); err != nil {
				continue
			}
			id, err := cik.Int64()
			if err != nil {
				continue
			}
			var exchange string
			if err := json.Unmarshal(row[exchIdx], &exchange); err != nil {
				continue
			}
			out[id] = exchange
		}
		return out, nil
	}

	var entries map[string]struct {
		CIK      json.Number `json:"cik_str"`
		Exchange string      `json:"exchange"`
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode exchange listing: %w", err)
	}
	for _, entry := range entries {
		if id, err := entry.CIK.Int64(); err == nil {
			out[id] = entry.Exchange
		}
	}
	return out, nil
}

func indexOf(fields []string, name string) int {
	for i, f := range fields {
		if strings.EqualFold(f, name) {
			return i
		}
	}
	return -1
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", l.userAgent)
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return body, nil
}
