package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"filingwatch/internal/models"
	"filingwatch/internal/repository"
)

type FilingsHandler struct {
	Repo repository.Repository
}

func (h *FilingsHandler) Register(r *gin.Engine) {
	r.GET("/api/filings", h.list)
	r.GET("/api/tickers/:symbol/filings", h.latestForTicker)
	r.GET("/api/filings/:id/metrics", h.metrics)
	r.POST("/api/filings/:id/metrics", h.putMetrics)
}

type filingRow struct {
	ID     uint    `json:"id"`
	Symbol string  `json:"symbol"`
	Type   string  `json:"type"`
	Title  *string `json:"title"`
	Date   string  `json:"date"`
	URL    *string `json:"url"`
	Source string  `json:"source"`
	IsNew  bool    `json:"is_new"`
}

func (h *FilingsHandler) list(c *gin.Context) {
	filings, err := h.Repo.ListFilings(c.Request.Context(), repository.ListFilingsParams{
		Symbols: symbolsQuery(c, "symbols"),
		Limit:   intQuery(c, "limit", 100),
	})
	if err != nil {
		Error(c, http.StatusInternalServerError, "filings unavailable", nil)
		return
	}
	rows := make([]filingRow, 0, len(filings))
	for _, filing := range filings {
		rows = append(rows, toFilingRow(filing))
	}
	Ok(c, rows, nil)
}

func (h *FilingsHandler) latestForTicker(c *gin.Context) {
	ctx := c.Request.Context()
	symbol := strings.TrimSpace(c.Param("symbol"))
	ticker, err := h.Repo.GetTickerBySymbol(ctx, symbol)
	if err != nil {
		Error(c, http.StatusInternalServerError, "lookup failed", nil)
		return
	}
	if ticker == nil {
		Error(c, http.StatusNotFound, "unknown symbol", nil)
		return
	}
	filings, err := h.Repo.LatestFilings(ctx, ticker.ID, intQuery(c, "limit", 20))
	if err != nil {
		Error(c, http.StatusInternalServerError, "filings unavailable", nil)
		return
	}
	rows := make([]filingRow, 0, len(filings))
	for _, filing := range filings {
		row := toFilingRow(filing)
		row.Symbol = ticker.Symbol
		rows = append(rows, row)
	}
	Ok(c, rows, nil)
}

func (h *FilingsHandler) metrics(c *gin.Context) {
	id, ok := parseUint(strings.TrimSpace(c.Param("id")))
	if !ok || id == 0 {
		Error(c, http.StatusBadRequest, "bad filing id", nil)
		return
	}
	metrics, err := h.Repo.ListMetricsForFiling(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusInternalServerError, "metrics unavailable", nil)
		return
	}
	Ok(c, metrics, nil)
}

type metricInput struct {
	Var         string          `json:"var" binding:"required"`
	Value       decimal.Decimal `json:"value"`
	PeriodStart *string         `json:"period_start"`
	PeriodEnd   *string         `json:"period_end"`
	Currency    *string         `json:"currency"`
}

type putMetricsRequest struct {
	Metrics []metricInput `json:"metrics" binding:"required"`
}

func (h *FilingsHandler) putMetrics(c *gin.Context) {
	id, ok := parseUint(strings.TrimSpace(c.Param("id")))
	if !ok || id == 0 {
		Error(c, http.StatusBadRequest, "bad filing id", nil)
		return
	}
	var req putMetricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "metrics are required", nil)
		return
	}
	rows := make([]repository.MetricRow, 0, len(req.Metrics))
	for _, m := range req.Metrics {
		start, ok := parseDate(m.PeriodStart)
		if !ok {
			Error(c, http.StatusBadRequest, "bad period_start for "+m.Var, nil)
			return
		}
		end, ok := parseDate(m.PeriodEnd)
		if !ok {
			Error(c, http.StatusBadRequest, "bad period_end for "+m.Var, nil)
			return
		}
		rows = append(rows, repository.MetricRow{
			Var:         m.Var,
			Value:       m.Value,
			PeriodStart: start,
			PeriodEnd:   end,
			Currency:    m.Currency,
		})
	}
	metrics, err := h.Repo.UpsertMetrics(c.Request.Context(), id, rows)
	if err != nil {
		Error(c, http.StatusInternalServerError, "save metrics failed", nil)
		return
	}
	Ok(c, metrics, nil)
}

func parseDate(raw *string) (*datatypes.Date, bool) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(*raw))
	if err != nil {
		return nil, false
	}
	d := datatypes.Date(t)
	return &d, true
}

func toFilingRow(filing models.Filing) filingRow {
	row := filingRow{
		ID:     filing.ID,
		Type:   filing.Type,
		Title:  filing.Title,
		Date:   formatDate(filing.Date),
		URL:    filing.URL,
		Source: filing.Source,
		IsNew:  filing.IsNew,
	}
	if filing.Ticker != nil {
		row.Symbol = filing.Ticker.Symbol
	}
	return row
}

func formatDate(d datatypes.Date) string {
	return time.Time(d).Format("2006-01-02")
}
