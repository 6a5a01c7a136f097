package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"filingwatch/internal/models"
	"filingwatch/internal/repository"
	"filingwatch/internal/source"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- tickers and watchlist ---------------------------------------------------

func (s *Store) AddTicker(ctx context.Context, symbol string) (*models.Ticker, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, errors.New("empty symbol")
	}
	ticker := models.Ticker{Symbol: symbol}
	err := s.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		FirstOrCreate(&ticker).Error
	if err != nil {
		return nil, err
	}
	return &ticker, nil
}

func (s *Store) GetTickerBySymbol(ctx context.Context, symbol string) (*models.Ticker, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	var ticker models.Ticker
	err := s.db.WithContext(ctx).Where("symbol = ?", symbol).First(&ticker).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ticker, nil
}

// UpsertTickerSeeds merges catalog rows into ticker identity data. Existing
// non-empty fields are kept when the incoming row has blanks, so a thinner
// catalog file never erases identifiers loaded earlier.
func (s *Store) UpsertTickerSeeds(ctx context.Context, rows []repository.TickerSeed) (int, error) {
	count := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			symbol := strings.ToUpper(strings.TrimSpace(row.Symbol))
			if symbol == "" {
				continue
			}
			var existing models.Ticker
			err := tx.Where("symbol = ?", symbol).First(&existing).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				ticker := models.Ticker{
					Symbol:   symbol,
					Name:     optional(row.Name),
					CIK:      optional(row.CIK),
					Exchange: optional(row.Exchange),
				}
				if err := tx.Create(&ticker).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				updates := map[string]any{}
				if v := optional(row.Name); v != nil {
					updates["name"] = *v
				}
				if v := optional(row.CIK); v != nil {
					updates["cik"] = *v
				}
				if v := optional(row.Exchange); v != nil {
					updates["exchange"] = *v
				}
				if len(updates) > 0 {
					if err := tx.Model(&existing).Updates(updates).Error; err != nil {
						return err
					}
				}
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) ListTickers(ctx context.Context) ([]models.Ticker, error) {
	var tickers []models.Ticker
	err := s.db.WithContext(ctx).Order("symbol").Find(&tickers).Error
	return tickers, err
}

func (s *Store) CountTickers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Ticker{}).Count(&n).Error
	return n, err
}

func (s *Store) CountTickersWithCIK(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Ticker{}).
		Where("cik IS NOT NULL AND cik != ''").
		Count(&n).Error
	return n, err
}

// SearchTickers ranks case-insensitive matches: exact symbol, symbol prefix,
// symbol contains, name contains, cik contains.
func (s *Store) SearchTickers(ctx context.Context, query string, limit int) ([]models.Ticker, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	like := "%" + q + "%"
	starts := q + "%"
	var tickers []models.Ticker
	err := s.db.WithContext(ctx).
		Where("lower(symbol) LIKE ? OR lower(coalesce(name, '')) LIKE ? OR lower(coalesce(cik, '')) LIKE ?", like, like, like).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                "(lower(symbol) != ?), (lower(symbol) NOT LIKE ?), (lower(symbol) NOT LIKE ?), (lower(coalesce(name, '')) NOT LIKE ?), symbol",
			Vars:               []any{q, starts, like, like},
			WithoutParentheses: true,
		}}).
		Limit(normalizeLimit(limit, 20)).
		Find(&tickers).Error
	return tickers, err
}

func (s *Store) AddToWatchlist(ctx context.Context, tickerID uint) error {
	entry := models.WatchEntry{TickerID: tickerID}
	return s.db.WithContext(ctx).
		Where("ticker_id = ?", tickerID).
		FirstOrCreate(&entry).Error
}

func (s *Store) RemoveFromWatchlist(ctx context.Context, tickerID uint) error {
	return s.db.WithContext(ctx).
		Where("ticker_id = ?", tickerID).
		Delete(&models.WatchEntry{}).Error
}

func (s *Store) ListWatchlist(ctx context.Context) ([]models.Ticker, error) {
	var tickers []models.Ticker
	err := s.db.WithContext(ctx).
		Joins("JOIN watchlist ON watchlist.ticker_id = tickers.id").
		Order("tickers.symbol").
		Find(&tickers).Error
	return tickers, err
}

// --- notes -------------------------------------------------------------------

func (s *Store) AddNote(ctx context.Context, tickerID uint, title string, content, attachment *string) (*models.Note, error) {
	note := models.Note{
		TickerID:   tickerID,
		Title:      title,
		Content:    content,
		Attachment: attachment,
	}
	if err := s.db.WithContext(ctx).Create(&note).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

func (s *Store) ListNotesForTicker(ctx context.Context, tickerID uint, limit int) ([]models.Note, error) {
	var notes []models.Note
	err := s.db.WithContext(ctx).
		Where("ticker_id = ?", tickerID).
		Order("created_at DESC").
		Limit(normalizeLimit(limit, 100)).
		Find(&notes).Error
	return notes, err
}

func (s *Store) DeleteNote(ctx context.Context, noteID uint) error {
	return s.db.WithContext(ctx).Delete(&models.Note{}, noteID).Error
}

// --- filings -----------------------------------------------------------------

// UpsertFilings deduplicates on (source, external_id). Re-sighted rows get
// is_new cleared and title/url refreshed; unseen records are inserted with
// is_new set and associated to the ticker. The whole batch is one
// transaction: an error mid-batch rolls everything back.
func (s *Store) UpsertFilings(ctx context.Context, ticker *models.Ticker, records []source.FilingRecord) ([]models.Filing, error) {
	if ticker == nil || len(records) == 0 {
		return nil, nil
	}
	var inserted []models.Filing
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, record := range records {
			var existing models.Filing
			err := tx.Where("source = ? AND external_id = ?", record.Source, record.ExternalID).
				First(&existing).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				filing := models.Filing{
					TickerID:   ticker.ID,
					Source:     record.Source,
					ExternalID: record.ExternalID,
					Type:       record.Type,
					Title:      optional(record.Title),
					Date:       datatypes.Date(record.Date),
					URL:        optional(record.URL),
					IsNew:      true,
					Hash:       optional(record.Hash),
				}
				if err := tx.Create(&filing).Error; err != nil {
					return err
				}
				inserted = append(inserted, filing)
			case err != nil:
				return err
			default:
				updates := map[string]any{"is_new": false}
				if v := optional(record.Title); v != nil {
					updates["title"] = *v
				}
				if v := optional(record.URL); v != nil {
					updates["url"] = *v
				}
				if err := tx.Model(&existing).Updates(updates).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

func (s *Store) ListFilings(ctx context.Context, params repository.ListFilingsParams) ([]models.Filing, error) {
	query := s.db.WithContext(ctx).
		Preload("Ticker").
		Where(nonMockClause)
	if len(params.Symbols) > 0 {
		symbols := make([]string, 0, len(params.Symbols))
		for _, sym := range params.Symbols {
			if sym = strings.ToUpper(strings.TrimSpace(sym)); sym != "" {
				symbols = append(symbols, sym)
			}
		}
		query = query.
			Joins("JOIN tickers ON tickers.id = filings.ticker_id").
			Where("tickers.symbol IN ?", symbols)
	}
	var filings []models.Filing
	err := query.
		Order("filings.date DESC, filings.id DESC").
		Limit(normalizeLimit(params.Limit, 100)).
		Find(&filings).Error
	return filings, err
}

func (s *Store) LatestFilings(ctx context.Context, tickerID uint, limit int) ([]models.Filing, error) {
	var filings []models.Filing
	err := s.db.WithContext(ctx).
		Where("ticker_id = ?", tickerID).
		Order("date DESC, id DESC").
		Limit(normalizeLimit(limit, 20)).
		Find(&filings).Error
	return filings, err
}

// --- metrics -----------------------------------------------------------------

func (s *Store) UpsertMetrics(ctx context.Context, filingID uint, rows []repository.MetricRow) ([]models.Metric, error) {
	var out []models.Metric
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			if strings.TrimSpace(row.Var) == "" {
				continue
			}
			metric := models.Metric{
				FilingID:    filingID,
				Var:         row.Var,
				Value:       row.Value,
				PeriodStart: row.PeriodStart,
				PeriodEnd:   row.PeriodEnd,
				Currency:    row.Currency,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "filing_id"}, {Name: "var"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"value", "period_start", "period_end", "currency",
				}),
			}).Create(&metric).Error
			if err != nil {
				return err
			}
			out = append(out, metric)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ListMetricsForFiling(ctx context.Context, filingID uint) ([]models.Metric, error) {
	var metrics []models.Metric
	err := s.db.WithContext(ctx).
		Where("filing_id = ?", filingID).
		Order("var").
		Find(&metrics).Error
	return metrics, err
}

// --- alerts ------------------------------------------------------------------

func (s *Store) AddAlerts(ctx context.Context, filings []models.Filing) ([]models.Alert, error) {
	if len(filings) == 0 {
		return nil, nil
	}
	now := time.Now().UTC()
	alerts := make([]models.Alert, 0, len(filings))
	for _, filing := range filings {
		alerts = append(alerts, models.Alert{
			FilingID:  filing.ID,
			CreatedAt: now,
			Read:      false,
		})
	}
	if err := s.db.WithContext(ctx).Create(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

func (s *Store) UnreadAlerts(ctx context.Context) ([]models.Alert, error) {
	var alerts []models.Alert
	err := s.db.WithContext(ctx).
		Preload("Filing").
		Preload("Filing.Ticker").
		Where("read = ?", false).
		Order("created_at DESC, id DESC").
		Find(&alerts).Error
	return alerts, err
}

// MarkAlertsRead only ever sets read to true, so marking an already-read
// alert is a no-op and the read state stays monotonic.
func (s *Store) MarkAlertsRead(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Alert{}).
		Where("id IN ?", ids).
		Where("read = ?", false).
		Update("read", true).Error
}

func (s *Store) UnreadAlertCounts(ctx context.Context) (map[uint]int64, error) {
	var rows []struct {
		TickerID uint
		Count    int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.Alert{}).
		Select("filings.ticker_id AS ticker_id, count(alerts.id) AS count").
		Joins("JOIN filings ON filings.id = alerts.filing_id").
		Where("alerts.read = ?", false).
		Group("filings.ticker_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.TickerID] = row.Count
	}
	return counts, nil
}

// --- sync state --------------------------------------------------------------

func (s *Store) GetSyncState(ctx context.Context, scope string) (*models.SyncState, error) {
	var state models.SyncState
	err := s.db.WithContext(ctx).Where("scope = ?", scope).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *Store) SaveSyncState(ctx context.Context, state *models.SyncState) error {
	if state == nil || strings.TrimSpace(state.Scope) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scope"}},
		UpdateAll: true,
	}).Create(state).Error
}

func (s *Store) ListSyncStates(ctx context.Context) ([]models.SyncState, error) {
	var states []models.SyncState
	err := s.db.WithContext(ctx).Order("scope").Find(&states).Error
	return states, err
}

// --- helpers -----------------------------------------------------------------

// Mock/demo rows are tagged with a "mock" hash prefix by seed tooling and are
// excluded from display queries.
const nonMockClause = "(filings.hash IS NULL OR filings.hash NOT LIKE 'mock%')"

func optional(v string) *string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return limit
}
