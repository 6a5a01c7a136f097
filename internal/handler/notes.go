package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"filingwatch/internal/repository"
)

type NotesHandler struct {
	Repo repository.Repository
}

func (h *NotesHandler) Register(r *gin.Engine) {
	r.GET("/api/tickers/:symbol/notes", h.list)
	r.POST("/api/tickers/:symbol/notes", h.add)
	r.DELETE("/api/notes/:id", h.remove)
}

type addNoteRequest struct {
	Title      string  `json:"title" binding:"required"`
	Content    *string `json:"content"`
	Attachment *string `json:"attachment"`
}

func (h *NotesHandler) add(c *gin.Context) {
	var req addNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "title is required", nil)
		return
	}
	ctx := c.Request.Context()
	ticker, err := h.Repo.GetTickerBySymbol(ctx, c.Param("symbol"))
	if err != nil {
		Error(c, http.StatusInternalServerError, "lookup failed", nil)
		return
	}
	if ticker == nil {
		Error(c, http.StatusNotFound, "unknown symbol", nil)
		return
	}
	note, err := h.Repo.AddNote(ctx, ticker.ID, req.Title, req.Content, req.Attachment)
	if err != nil {
		Error(c, http.StatusInternalServerError, "add note failed", nil)
		return
	}
	Ok(c, note, nil)
}

func (h *NotesHandler) list(c *gin.Context) {
	ctx := c.Request.Context()
	ticker, err := h.Repo.GetTickerBySymbol(ctx, c.Param("symbol"))
	if err != nil {
		Error(c, http.StatusInternalServerError, "lookup failed", nil)
		return
	}
	if ticker == nil {
		Error(c, http.StatusNotFound, "unknown symbol", nil)
		return
	}
	notes, err := h.Repo.ListNotesForTicker(ctx, ticker.ID, intQuery(c, "limit", 100))
	if err != nil {
		Error(c, http.StatusInternalServerError, "notes unavailable", nil)
		return
	}
	Ok(c, notes, nil)
}

func (h *NotesHandler) remove(c *gin.Context) {
	id, ok := parseUint(strings.TrimSpace(c.Param("id")))
	if !ok || id == 0 {
		Error(c, http.StatusBadRequest, "bad note id", nil)
		return
	}
	if err := h.Repo.DeleteNote(c.Request.Context(), id); err != nil {
		Error(c, http.StatusInternalServerError, "delete failed", nil)
		return
	}
	Ok(c, gin.H{"deleted": id}, nil)
}
