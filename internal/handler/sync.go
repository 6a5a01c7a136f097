package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"filingwatch/internal/notify"
	"filingwatch/internal/repository"
	"filingwatch/internal/scheduler"
)

type SyncHandler struct {
	Repo      repository.Repository
	Scheduler *scheduler.Scheduler
	Hub       *notify.Hub
	Logger    *zap.Logger
}

func (h *SyncHandler) Register(r *gin.Engine) {
	r.POST("/api/sync", h.trigger)
	r.GET("/api/sync/status", h.status)
	r.GET("/api/sync/state", h.state)
	r.GET("/api/sync/stream", h.stream)
}

type triggerRequest struct {
	Symbols []string `json:"symbols"`
}

func (h *SyncHandler) trigger(c *gin.Context) {
	var req triggerRequest
	// Body is optional; an empty trigger syncs the whole watchlist.
	_ = c.ShouldBindJSON(&req)
	accepted := h.Scheduler.Trigger("manual", req.Symbols...)
	if !accepted {
		Ok(c, gin.H{"accepted": false}, gin.H{"reason": "a pass is already running or pending"})
		return
	}
	Ok(c, gin.H{"accepted": true}, nil)
}

func (h *SyncHandler) status(c *gin.Context) {
	Ok(c, gin.H{
		"running":      h.Scheduler.Running(),
		"last_outcome": h.Scheduler.LastOutcome(),
		"subscribers":  h.Hub.Subscribers(),
	}, nil)
}

func (h *SyncHandler) state(c *gin.Context) {
	states, err := h.Repo.ListSyncStates(c.Request.Context())
	if err != nil {
		Error(c, http.StatusInternalServerError, "sync state unavailable", nil)
		return
	}
	Ok(c, states, nil)
}

// stream pushes each completed sync pass to the client as a JSON text frame.
func (h *SyncHandler) stream(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.Logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// CloseRead cancels the context when the peer closes or the read fails.
	ctx := conn.CloseRead(c.Request.Context())

	inbox, cancel := h.Hub.Subscribe(16)
	defer cancel()

	if last := h.Scheduler.LastOutcome(); last != nil {
		if err := h.write(ctx, conn, mustJSON(last)); err != nil {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-inbox:
			if !ok {
				return
			}
			if err := h.write(ctx, conn, payload); err != nil {
				return
			}
		}
	}
}

func mustJSON(v any) []byte {
	payload, _ := json.Marshal(v)
	return payload
}

func (h *SyncHandler) write(ctx context.Context, conn *websocket.Conn, payload []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, payload)
}
