package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"filingwatch/internal/models"
	"filingwatch/internal/source"
)

// TickerSeed is one row from the catalog loader boundary. The store does not
// know whether it came from a bulk file or a remote fetch.
type TickerSeed struct {
	Symbol   string
	Name     string
	CIK      string
	Exchange string
}

type MetricRow struct {
	Var         string
	Value       decimal.Decimal
	PeriodStart *datatypes.Date
	PeriodEnd   *datatypes.Date
	Currency    *string
}

type ListFilingsParams struct {
	Symbols []string
	Limit   int
}

type Repository interface {
	// Tickers and watchlist.
	AddTicker(ctx context.Context, symbol string) (*models.Ticker, error)
	GetTickerBySymbol(ctx context.Context, symbol string) (*models.Ticker, error)
	UpsertTickerSeeds(ctx context.Context, rows []TickerSeed) (int, error)
	ListTickers(ctx context.Context) ([]models.Ticker, error)
	CountTickers(ctx context.Context) (int64, error)
	CountTickersWithCIK(ctx context.Context) (int64, error)
	SearchTickers(ctx context.Context, query string, limit int) ([]models.Ticker, error)
	AddToWatchlist(ctx context.Context, tickerID uint) error
	RemoveFromWatchlist(ctx context.Context, tickerID uint) error
	ListWatchlist(ctx context.Context) ([]models.Ticker, error)

	// Notes.
	AddNote(ctx context.Context, tickerID uint, title string, content, attachment *string) (*models.Note, error)
	ListNotesForTicker(ctx context.Context, tickerID uint, limit int) ([]models.Note, error)
	DeleteNote(ctx context.Context, noteID uint) error

	// Filings. UpsertFilings commits as a single unit of work and returns
	// only rows that did not exist before the call.
	UpsertFilings(ctx context.Context, ticker *models.Ticker, records []source.FilingRecord) ([]models.Filing, error)
	ListFilings(ctx context.Context, params ListFilingsParams) ([]models.Filing, error)
	LatestFilings(ctx context.Context, tickerID uint, limit int) ([]models.Filing, error)

	// Metrics.
	UpsertMetrics(ctx context.Context, filingID uint, rows []MetricRow) ([]models.Metric, error)
	ListMetricsForFiling(ctx context.Context, filingID uint) ([]models.Metric, error)

	// Alerts.
	AddAlerts(ctx context.Context, filings []models.Filing) ([]models.Alert, error)
	UnreadAlerts(ctx context.Context) ([]models.Alert, error)
	MarkAlertsRead(ctx context.Context, ids []uint) error
	UnreadAlertCounts(ctx context.Context) (map[uint]int64, error)

	// Sync state.
	GetSyncState(ctx context.Context, scope string) (*models.SyncState, error)
	SaveSyncState(ctx context.Context, state *models.SyncState) error
	ListSyncStates(ctx context.Context) ([]models.SyncState, error)
}
