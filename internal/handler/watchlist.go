package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"filingwatch/internal/models"
	"filingwatch/internal/repository"
	"filingwatch/internal/scheduler"
)

type WatchlistHandler struct {
	Repo      repository.Repository
	Scheduler *scheduler.Scheduler
	Logger    *zap.Logger
}

func (h *WatchlistHandler) Register(r *gin.Engine) {
	group := r.Group("/api/watchlist")
	group.GET("", h.list)
	group.POST("", h.add)
	group.DELETE("/:symbol", h.remove)
}

type watchRow struct {
	models.Ticker
	UnreadAlerts int64 `json:"unread_alerts"`
}

func (h *WatchlistHandler) list(c *gin.Context) {
	ctx := c.Request.Context()
	tickers, err := h.Repo.ListWatchlist(ctx)
	if err != nil {
		Error(c, http.StatusInternalServerError, "watchlist unavailable", nil)
		return
	}
	counts, err := h.Repo.UnreadAlertCounts(ctx)
	if err != nil {
		Error(c, http.StatusInternalServerError, "alert counts unavailable", nil)
		return
	}
	rows := make([]watchRow, 0, len(tickers))
	var total int64
	for _, ticker := range tickers {
		n := counts[ticker.ID]
		total += n
		rows = append(rows, watchRow{Ticker: ticker, UnreadAlerts: n})
	}
	Ok(c, rows, map[string]any{"unread_total": total})
}

type addWatchRequest struct {
	Symbol string `json:"symbol" binding:"required"`
}

func (h *WatchlistHandler) add(c *gin.Context) {
	var req addWatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "symbol is required", nil)
		return
	}
	ctx := c.Request.Context()
	ticker, err := h.Repo.AddTicker(ctx, req.Symbol)
	if err != nil {
		Error(c, http.StatusInternalServerError, "add ticker failed", nil)
		return
	}
	if err := h.Repo.AddToWatchlist(ctx, ticker.ID); err != nil {
		Error(c, http.StatusInternalServerError, "watch failed", nil)
		return
	}
	// Ticker-added trigger: refresh just this symbol in the background.
	triggered := false
	if h.Scheduler != nil {
		triggered = h.Scheduler.Trigger("ticker-added", ticker.Symbol)
	}
	Ok(c, ticker, map[string]any{"sync_triggered": triggered})
}

func (h *WatchlistHandler) remove(c *gin.Context) {
	symbol := strings.TrimSpace(c.Param("symbol"))
	ctx := c.Request.Context()
	ticker, err := h.Repo.GetTickerBySymbol(ctx, symbol)
	if err != nil {
		Error(c, http.StatusInternalServerError, "lookup failed", nil)
		return
	}
	if ticker == nil {
		Error(c, http.StatusNotFound, "unknown symbol", nil)
		return
	}
	if err := h.Repo.RemoveFromWatchlist(ctx, ticker.ID); err != nil {
		Error(c, http.StatusInternalServerError, "unwatch failed", nil)
		return
	}
	Ok(c, gin.H{"symbol": ticker.Symbol}, nil)
}
