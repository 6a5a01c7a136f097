package service

import (
	"context"
	"fmt"
	"sync"

	"filingwatch/internal/models"
	"filingwatch/internal/repository"
	"filingwatch/internal/source"
)

// stubRepo is an in-memory Repository for service tests. Only the paths the
// sync and catalog services exercise are fully modeled; the rest are inert.
type stubRepo struct {
	mu sync.Mutex

	tickers   []models.Ticker
	watchlist map[uint]bool
	filings   map[string]*models.Filing
	alerts    []models.Alert
	states    map[string]models.SyncState

	nextFilingID uint
	nextAlertID  uint

	upsertErr error
	alertsErr error
	listErr   error
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		watchlist: map[uint]bool{},
		filings:   map[string]*models.Filing{},
		states:    map[string]models.SyncState{},
	}
}

func (r *stubRepo) addWatched(symbol string, cik *string) models.Ticker {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticker := models.Ticker{
		ID:     uint(len(r.tickers) + 1),
		Symbol: symbol,
		CIK:    cik,
	}
	r.tickers = append(r.tickers, ticker)
	r.watchlist[ticker.ID] = true
	return ticker
}

func strPtr(v string) *string { return &v }

func filingKey(src, externalID string) string { return src + "|" + externalID }

func (r *stubRepo) AddTicker(ctx context.Context, symbol string) (*models.Ticker, error) {
	t := r.addWatched(symbol, nil)
	return &t, nil
}

func (r *stubRepo) GetTickerBySymbol(ctx context.Context, symbol string) (*models.Ticker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.tickers {
		if r.tickers[i].Symbol == symbol {
			t := r.tickers[i]
			return &t, nil
		}
	}
	return nil, nil
}

func (r *stubRepo) UpsertTickerSeeds(ctx context.Context, rows []repository.TickerSeed) (int, error) {
	return len(rows), nil
}

func (r *stubRepo) ListTickers(ctx context.Context) ([]models.Ticker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Ticker(nil), r.tickers...), nil
}

func (r *stubRepo) CountTickers(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.tickers)), nil
}

func (r *stubRepo) CountTickersWithCIK(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, t := range r.tickers {
		if t.CIK != nil && *t.CIK != "" {
			n++
		}
	}
	return n, nil
}

func (r *stubRepo) SearchTickers(ctx context.Context, query string, limit int) ([]models.Ticker, error) {
	return nil, nil
}

func (r *stubRepo) AddToWatchlist(ctx context.Context, tickerID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchlist[tickerID] = true
	return nil
}

func (r *stubRepo) RemoveFromWatchlist(ctx context.Context, tickerID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.watchlist, tickerID)
	return nil
}

func (r *stubRepo) ListWatchlist(ctx context.Context) ([]models.Ticker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []models.Ticker
	for _, t := range r.tickers {
		if r.watchlist[t.ID] {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *stubRepo) AddNote(ctx context.Context, tickerID uint, title string, content, attachment *string) (*models.Note, error) {
	return &models.Note{TickerID: tickerID, Title: title}, nil
}

func (r *stubRepo) ListNotesForTicker(ctx context.Context, tickerID uint, limit int) ([]models.Note, error) {
	return nil, nil
}

func (r *stubRepo) DeleteNote(ctx context.Context, noteID uint) error { return nil }

func (r *stubRepo) UpsertFilings(ctx context.Context, ticker *models.Ticker, records []source.FilingRecord) ([]models.Filing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return nil, r.upsertErr
	}
	var inserted []models.Filing
	for _, rec := range records {
		key := filingKey(rec.Source, rec.ExternalID)
		if existing, ok := r.filings[key]; ok {
			existing.IsNew = false
			continue
		}
		r.nextFilingID++
		filing := models.Filing{
			ID:         r.nextFilingID,
			TickerID:   ticker.ID,
			Source:     rec.Source,
			ExternalID: rec.ExternalID,
			Type:       rec.Type,
			Title:      strPtr(rec.Title),
			IsNew:      true,
		}
		r.filings[key] = &filing
		inserted = append(inserted, filing)
	}
	return inserted, nil
}

func (r *stubRepo) ListFilings(ctx context.Context, params repository.ListFilingsParams) ([]models.Filing, error) {
	return nil, nil
}

func (r *stubRepo) LatestFilings(ctx context.Context, tickerID uint, limit int) ([]models.Filing, error) {
	return nil, nil
}

func (r *stubRepo) UpsertMetrics(ctx context.Context, filingID uint, rows []repository.MetricRow) ([]models.Metric, error) {
	return nil, nil
}

func (r *stubRepo) ListMetricsForFiling(ctx context.Context, filingID uint) ([]models.Metric, error) {
	return nil, nil
}

func (r *stubRepo) AddAlerts(ctx context.Context, filings []models.Filing) ([]models.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.alertsErr != nil {
		return nil, r.alertsErr
	}
	var out []models.Alert
	for _, f := range filings {
		r.nextAlertID++
		alert := models.Alert{ID: r.nextAlertID, FilingID: f.ID}
		r.alerts = append(r.alerts, alert)
		out = append(out, alert)
	}
	return out, nil
}

func (r *stubRepo) UnreadAlerts(ctx context.Context) ([]models.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Alert
	for _, a := range r.alerts {
		if !a.Read {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *stubRepo) MarkAlertsRead(ctx context.Context, ids []uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := map[uint]bool{}
	for _, id := range ids {
		want[id] = true
	}
	for i := range r.alerts {
		if want[r.alerts[i].ID] {
			r.alerts[i].Read = true
		}
	}
	return nil
}

func (r *stubRepo) UnreadAlertCounts(ctx context.Context) (map[uint]int64, error) {
	return map[uint]int64{}, nil
}

func (r *stubRepo) GetSyncState(ctx context.Context, scope string) (*models.SyncState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if state, ok := r.states[scope]; ok {
		out := state
		return &out, nil
	}
	return nil, nil
}

func (r *stubRepo) SaveSyncState(ctx context.Context, state *models.SyncState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[state.Scope] = *state
	return nil
}

func (r *stubRepo) ListSyncStates(ctx context.Context) ([]models.SyncState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.SyncState
	for _, s := range r.states {
		out = append(out, s)
	}
	return out, nil
}

var _ repository.Repository = (*stubRepo)(nil)

// stubAdapter returns canned batches per external id, or a per-id error.
type stubAdapter struct {
	mu      sync.Mutex
	batches map[string][]source.FilingRecord
	errs    map[string]error
	calls   []string
}

func (a *stubAdapter) Name() string { return "stub" }

func (a *stubAdapter) ListFilings(ctx context.Context, symbol, externalID string, limit int) ([]source.FilingRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, fmt.Sprintf("%s/%s", symbol, externalID))
	if err := a.errs[externalID]; err != nil {
		return nil, err
	}
	return a.batches[externalID], nil
}
