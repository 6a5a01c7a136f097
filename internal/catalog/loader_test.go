package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"filingwatch/internal/repository"
)

const primaryFixture = `{
	"0": {"cik_str": 320193, "ticker": "aapl", "title": "Apple Inc."},
	"1": {"cik_str": 789019, "ticker": "MSFT", "title": "Microsoft Corp"},
	"2": {"cik_str": 111111, "ticker": "", "title": "No Symbol Inc"}
}`

const exchangeDictFixture = `{
	"0": {"cik_str": 320193, "ticker": "AAPL", "exchange": "Nasdaq"},
	"1": {"cik_str": 789019, "ticker": "MSFT", "exchange": "Nasdaq"}
}`

const exchangeTableFixture = `{
	"fields": ["cik", "name", "ticker", "exchange"],
	"data": [
		[320193, "Apple Inc.", "AAPL", "Nasdaq"],
		[789019, "Microsoft Corp", "MSFT", "Nasdaq"],
		[999999, "Broken Row"]
	]
}`

func bySymbol(seeds []repository.TickerSeed) map[string]repository.TickerSeed {
	out := make(map[string]repository.TickerSeed, len(seeds))
	for _, s := range seeds {
		out[s.Symbol] = s
	}
	return out
}

func TestFetchSeeds_DictExchangeShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/primary":
			w.Write([]byte(primaryFixture))
		case "/exchange":
			w.Write([]byte(exchangeDictFixture))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	loader := NewLoader(srv.Client(), srv.URL+"/primary", srv.URL+"/exchange", "test-agent")
	seeds, err := loader.FetchSeeds(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(seeds) != 2 {
		t.Fatalf("seeds=%d want 2", len(seeds))
	}
	got := bySymbol(seeds)
	aapl := got["AAPL"]
	if aapl.CIK != "320193" || aapl.Name != "Apple Inc." || aapl.Exchange != "Nasdaq" {
		t.Fatalf("aapl=%+v", aapl)
	}
}

func TestFetchSeeds_TableExchangeShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/primary" {
			w.Write([]byte(primaryFixture))
			return
		}
		w.Write([]byte(exchangeTableFixture))
	}))
	defer srv.Close()

	loader := NewLoader(srv.Client(), srv.URL+"/primary", srv.URL+"/exchange", "test-agent")
	seeds, err := loader.FetchSeeds(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	got := bySymbol(seeds)
	if got["MSFT"].Exchange != "Nasdaq" {
		t.Fatalf("msft=%+v", got["MSFT"])
	}
}

func TestFetchSeeds_ExchangeFailureDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/primary" {
			w.Write([]byte(primaryFixture))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	loader := NewLoader(srv.Client(), srv.URL+"/primary", srv.URL+"/exchange", "test-agent")
	seeds, err := loader.FetchSeeds(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(seeds) != 2 {
		t.Fatalf("seeds=%d want 2", len(seeds))
	}
	for _, s := range seeds {
		if s.Exchange != "" {
			t.Fatalf("exchange=%q want empty", s.Exchange)
		}
	}
}

func TestLoadSeedsFromFiles(t *testing.T) {
	dir := t.TempDir()
	primaryPath := filepath.Join(dir, "company_tickers.json")
	exchangePath := filepath.Join(dir, "company_tickers_exchange.json")
	if err := os.WriteFile(primaryPath, []byte(primaryFixture), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(exchangePath, []byte(exchangeTableFixture), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	loader := NewLoader(http.DefaultClient, "", "", "test-agent")
	seeds, err := loader.LoadSeedsFromFiles(primaryPath, exchangePath)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	symbols := make([]string, 0, len(seeds))
	for _, s := range seeds {
		symbols = append(symbols, s.Symbol)
	}
	sort.Strings(symbols)
	if len(symbols) != 2 || symbols[0] != "AAPL" || symbols[1] != "MSFT" {
		t.Fatalf("symbols=%v", symbols)
	}
}

func TestParseExchangeMap_TableMissingColumns(t *testing.T) {
	out, err := parseExchangeMap([]byte(`{"fields":["name"],"data":[["x"]]}`))
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(out) != 0 {
		t.Fatalf("out=%v want empty", out)
	}
}
