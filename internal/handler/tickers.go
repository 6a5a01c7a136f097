package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"filingwatch/internal/repository"
	"filingwatch/internal/service"
)

type TickersHandler struct {
	Repo    repository.Repository
	Catalog *service.CatalogService
	Logger  *zap.Logger
}

func (h *TickersHandler) Register(r *gin.Engine) {
	r.GET("/api/tickers", h.list)
	r.GET("/api/tickers/search", h.search)
	r.POST("/api/catalog/reload", h.reload)
}

func (h *TickersHandler) list(c *gin.Context) {
	tickers, err := h.Repo.ListTickers(c.Request.Context())
	if err != nil {
		Error(c, http.StatusInternalServerError, "tickers unavailable", nil)
		return
	}
	Ok(c, tickers, gin.H{"count": len(tickers)})
}

func (h *TickersHandler) search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		Error(c, http.StatusBadRequest, "q is required", nil)
		return
	}
	limit := intQuery(c, "limit", 20)
	tickers, err := h.Repo.SearchTickers(c.Request.Context(), q, limit)
	if err != nil {
		Error(c, http.StatusInternalServerError, "search failed", nil)
		return
	}
	Ok(c, tickers, gin.H{"query": q})
}

func (h *TickersHandler) reload(c *gin.Context) {
	count, err := h.Catalog.Reload(c.Request.Context())
	if err != nil {
		h.Logger.Error("catalog reload failed", zap.Error(err))
		Error(c, http.StatusBadGateway, "catalog reload failed", nil)
		return
	}
	Ok(c, gin.H{"rows": count}, nil)
}
