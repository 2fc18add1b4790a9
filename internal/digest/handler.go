package digest

import (
	"context"
	"log"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/labstack/echo/v4"
)

// Answerer produces the reply for one query.
type Answerer interface {
	Answer(ctx context.Context, userID, query string) string
}

// IngestFunc runs one ingestion pass.
type IngestFunc func(ctx context.Context) error

type chatRequest struct {
	UserID string `json:"user_id"`
	Query  string `json:"query"`
}

type chatResponse struct {
	UserID   string `json:"user_id"`
	Query    string `json:"query"`
	Response string `json:"response"`
}

// Handler serves the backend API.
type Handler struct {
	Chat   Answerer
	Ingest IngestFunc
	Logger *log.Logger

	ingesting atomic.Bool
}

// Register mounts the routes on g (usually /api/v1).
func (h *Handler) Register(g *echo.Group) {
	g.POST("/chat", h.chat)
	g.POST("/ingest-news", h.ingest)
}

func (h *Handler) chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Query) == "" || strings.TrimSpace(req.UserID) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Query and user_id cannot be empty.")
	}
	reply := h.Chat.Answer(c.Request().Context(), req.UserID, req.Query)
	return c.JSON(http.StatusOK, chatResponse{UserID: req.UserID, Query: req.Query, Response: reply})
}

// ingest starts one background pass; a pass already running is not duplicated.
func (h *Handler) ingest(c echo.Context) error {
	if h.Ingest == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "ingestion not configured")
	}
	if !h.ingesting.CompareAndSwap(false, true) {
		return c.JSON(http.StatusAccepted, map[string]string{"message": "News ingestion is already running."})
	}
	go func() {
		defer h.ingesting.Store(false)
		if err := h.Ingest(context.Background()); err != nil {
			h.logger().Printf("background ingestion failed: %v", err)
		}
	}()
	return c.JSON(http.StatusAccepted, map[string]string{"message": "News ingestion started in the background."})
}

func (h *Handler) logger() *log.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return log.New(log.Writer(), "[INGEST] ", log.LstdFlags)
}
