package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"filingwatch/internal/models"
	"filingwatch/internal/repository"
)

type AlertsHandler struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

func (h *AlertsHandler) Register(r *gin.Engine) {
	group := r.Group("/api/alerts")
	group.GET("/unread", h.unread)
	group.GET("/counts", h.counts)
	group.POST("/read", h.markRead)
}

type alertRow struct {
	ID        uint    `json:"id"`
	Symbol    string  `json:"symbol"`
	Type      string  `json:"type"`
	Title     *string `json:"title"`
	Date      string  `json:"date"`
	URL       *string `json:"url"`
	CreatedAt string  `json:"created_at"`
}

// unread returns the unread alert list, newest first. Viewing the list marks
// the returned alerts read (pass ack=false to peek without acknowledging),
// which mirrors how the alert view consumes them.
func (h *AlertsHandler) unread(c *gin.Context) {
	ctx := c.Request.Context()
	alerts, err := h.Repo.UnreadAlerts(ctx)
	if err != nil {
		Error(c, http.StatusInternalServerError, "alerts unavailable", nil)
		return
	}
	rows := make([]alertRow, 0, len(alerts))
	ids := make([]uint, 0, len(alerts))
	for _, alert := range alerts {
		rows = append(rows, toAlertRow(alert))
		ids = append(ids, alert.ID)
	}
	if boolQueryDefault(c, "ack", true) && len(ids) > 0 {
		if err := h.Repo.MarkAlertsRead(ctx, ids); err != nil {
			// The list was already served once; failing the response now
			// would just re-surface the same alerts next call.
			if h.Logger != nil {
				h.Logger.Warn("mark alerts read failed", zap.Error(err))
			}
		}
	}
	Ok(c, rows, map[string]any{"count": len(rows)})
}

func (h *AlertsHandler) counts(c *gin.Context) {
	counts, err := h.Repo.UnreadAlertCounts(c.Request.Context())
	if err != nil {
		Error(c, http.StatusInternalServerError, "alert counts unavailable", nil)
		return
	}
	Ok(c, counts, nil)
}

type markReadRequest struct {
	IDs []uint `json:"ids" binding:"required"`
}

func (h *AlertsHandler) markRead(c *gin.Context) {
	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "ids are required", nil)
		return
	}
	if err := h.Repo.MarkAlertsRead(c.Request.Context(), req.IDs); err != nil {
		Error(c, http.StatusInternalServerError, "mark read failed", nil)
		return
	}
	Ok(c, gin.H{"marked": len(req.IDs)}, nil)
}

func toAlertRow(alert models.Alert) alertRow {
	row := alertRow{
		ID:        alert.ID,
		CreatedAt: alert.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
	}
	if alert.Filing != nil {
		row.Type = alert.Filing.Type
		row.Title = alert.Filing.Title
		row.Date = formatDate(alert.Filing.Date)
		row.URL = alert.Filing.URL
		if alert.Filing.Ticker != nil {
			row.Symbol = alert.Filing.Ticker.Symbol
		}
	}
	return row
}
