package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"filingwatch/internal/models"
	"filingwatch/internal/repository"
	"filingwatch/internal/source"
)

const syncScopeFilings = "filings"

// SyncService runs one synchronization pass: fetch listings for watched
// tickers, upsert them, and raise alerts for genuinely new filings.
// Overlap prevention is the scheduler's job; RunOnce itself is sequential.
type SyncService struct {
	Repo             repository.Repository
	Source           source.Adapter
	Logger           *zap.Logger
	FilingsPerTicker int
}

type SyncResult struct {
	Tickers  int `json:"tickers"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
	Inserted int `json:"inserted"`
	Alerts   int `json:"alerts"`
}

// Status renders the one-line summary the presentation layer shows. Raw
// errors never travel this path.
func (r SyncResult) Status() string {
	s := fmt.Sprintf("filings refreshed (+%d new)", r.Inserted)
	if r.Failed > 0 {
		s += fmt.Sprintf(", %d ticker(s) failed", r.Failed)
	}
	return s
}

// RunOnce polls the watchlist, narrowed to the given symbols when non-empty
// (unknown symbols are ignored). A single ticker's source failure degrades to
// partial results; a store failure aborts the run.
func (s *SyncService) RunOnce(ctx context.Context, symbols []string) (SyncResult, error) {
	result := SyncResult{}

	tickers, err := s.Repo.ListWatchlist(ctx)
	if err != nil {
		s.writeSyncError(ctx, err)
		return result, fmt.Errorf("list watchlist: %w", err)
	}
	tickers = filterTickers(tickers, symbols)

	var inserted []models.Filing
	for _, ticker := range tickers {
		if ticker.CIK == nil || strings.TrimSpace(*ticker.CIK) == "" {
			result.Skipped++
			continue
		}
		records, err := s.Source.ListFilings(ctx, ticker.Symbol, *ticker.CIK, s.FilingsPerTicker)
		if err != nil {
			// Per-ticker source failures never abort the pass.
			if errors.Is(err, source.ErrUnavailable) || errors.Is(err, source.ErrRejected) {
				s.logWarn("source fetch failed", ticker.Symbol, err)
				result.Failed++
				continue
			}
			if ctx.Err() != nil {
				s.writeSyncError(ctx, err)
				return result, err
			}
			s.logWarn("source fetch failed", ticker.Symbol, err)
			result.Failed++
			continue
		}
		result.Tickers++
		batch, err := s.Repo.UpsertFilings(ctx, &ticker, records)
		if err != nil {
			s.writeSyncError(ctx, err)
			return result, fmt.Errorf("upsert filings for %s: %w", ticker.Symbol, err)
		}
		inserted = append(inserted, batch...)
	}
	result.Inserted = len(inserted)

	// Alerts are created only after every upsert in the run has landed, one
	// per inserted filing.
	if len(inserted) > 0 {
		alerts, err := s.Repo.AddAlerts(ctx, inserted)
		if err != nil {
			s.writeSyncError(ctx, err)
			return result, fmt.Errorf("add alerts: %w", err)
		}
		result.Alerts = len(alerts)
	}

	s.writeSyncSuccess(ctx, result)
	return result, nil
}

func filterTickers(tickers []models.Ticker, symbols []string) []models.Ticker {
	if len(symbols) == 0 {
		return tickers
	}
	wanted := make(map[string]bool, len(symbols))
	for _, sym := range symbols {
		if sym = strings.ToUpper(strings.TrimSpace(sym)); sym != "" {
			wanted[sym] = true
		}
	}
	out := tickers[:0]
	for _, ticker := range tickers {
		if wanted[ticker.Symbol] {
			out = append(out, ticker)
		}
	}
	return out
}

func (s *SyncService) logWarn(msg, symbol string, err error) {
	if s.Logger != nil {
		s.Logger.Warn(msg, zap.String("symbol", symbol), zap.Error(err))
	}
}

func (s *SyncService) writeSyncSuccess(ctx context.Context, result SyncResult) {
	now := time.Now().UTC()
	stats, _ := json.Marshal(result)
	state := &models.SyncState{
		Scope:         syncScopeFilings,
		LastSuccessAt: &now,
		LastAttemptAt: &now,
		StatsJSON:     stats,
	}
	if err := s.Repo.SaveSyncState(ctx, state); err != nil && s.Logger != nil {
		s.Logger.Warn("save sync state failed", zap.Error(err))
	}
}

func (s *SyncService) writeSyncError(ctx context.Context, cause error) {
	now := time.Now().UTC()
	msg := cause.Error()
	state := &models.SyncState{
		Scope:         syncScopeFilings,
		LastAttemptAt: &now,
		LastError:     &msg,
	}
	if prev, err := s.Repo.GetSyncState(ctx, syncScopeFilings); err == nil && prev != nil {
		state.LastSuccessAt = prev.LastSuccessAt
		state.StatsJSON = prev.StatsJSON
	}
	if err := s.Repo.SaveSyncState(ctx, state); err != nil && s.Logger != nil {
		s.Logger.Warn("save sync state failed", zap.Error(err))
	}
}
