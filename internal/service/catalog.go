package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"filingwatch/internal/catalog"
	"filingwatch/internal/models"
	"filingwatch/internal/repository"
)

const syncScopeCatalog = "catalog"

// CatalogService refreshes the ticker universe from the bulk listing. Local
// files are preferred when configured; the remote endpoints are the fallback.
type CatalogService struct {
	Repo   repository.Repository
	Loader *catalog.Loader
	Logger *zap.Logger

	LocalPath         string
	LocalExchangePath string
}

// Reload loads seeds and upserts them into ticker identity data. Returns the
// number of rows applied.
func (s *CatalogService) Reload(ctx context.Context) (int, error) {
	seeds, err := s.loadSeeds(ctx)
	if err != nil {
		s.writeState(ctx, 0, err)
		return 0, err
	}
	count, err := s.Repo.UpsertTickerSeeds(ctx, seeds)
	s.writeState(ctx, count, err)
	if err != nil {
		return 0, err
	}
	if s.Logger != nil {
		s.Logger.Info("ticker catalog reloaded", zap.Int("rows", count))
	}
	return count, nil
}

// EnsureLoaded reloads the catalog only when the store looks unseeded: fewer
// than a handful of tickers carry a registry identifier.
func (s *CatalogService) EnsureLoaded(ctx context.Context) error {
	withCIK, err := s.Repo.CountTickersWithCIK(ctx)
	if err != nil {
		return err
	}
	total, err := s.Repo.CountTickers(ctx)
	if err != nil {
		return err
	}
	if withCIK > 0 && total > 50 {
		return nil
	}
	_, err = s.Reload(ctx)
	return err
}

func (s *CatalogService) loadSeeds(ctx context.Context) ([]repository.TickerSeed, error) {
	if s.LocalPath != "" {
		seeds, err := s.Loader.LoadSeedsFromFiles(s.LocalPath, s.LocalExchangePath)
		if err == nil {
			return seeds, nil
		}
		if s.Logger != nil {
			s.Logger.Warn("local catalog load failed, falling back to remote", zap.Error(err))
		}
	}
	return s.Loader.FetchSeeds(ctx)
}

func (s *CatalogService) writeState(ctx context.Context, count int, cause error) {
	now := time.Now().UTC()
	state := &models.SyncState{
		Scope:         syncScopeCatalog,
		LastAttemptAt: &now,
	}
	if cause != nil {
		msg := cause.Error()
		state.LastError = &msg
	} else {
		state.LastSuccessAt = &now
		state.StatsJSON, _ = json.Marshal(map[string]int{"rows": count})
	}
	if err := s.Repo.SaveSyncState(ctx, state); err != nil && s.Logger != nil {
		s.Logger.Warn("save catalog sync state failed", zap.Error(err))
	}
}
