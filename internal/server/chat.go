package server

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/novachat/internal/chatclient"
	"github.com/mohammad-safakhou/novachat/internal/conversation"
	"github.com/mohammad-safakhou/novachat/internal/newslist"
	"github.com/mohammad-safakhou/novachat/internal/render"
	"github.com/mohammad-safakhou/novachat/internal/runtime"
)

// ChatBackend answers one query for a user.
type ChatBackend interface {
	SendMessage(ctx context.Context, userID, query string) (chatclient.Reply, error)
}

// ChatObserver records chat round trips. kind is empty on success.
type ChatObserver interface {
	ObserveChat(seconds float64, kind string)
}

// MessageView is one transcript entry ready for display.
type MessageView struct {
	ID        string          `json:"id"`
	Sender    newslist.Sender `json:"sender"`
	Text      string          `json:"text"`
	CreatedAt time.Time       `json:"created_at"`
	View      render.View     `json:"view"`
}

type chatPage struct {
	Brand        string
	User         runtime.Session
	Messages     []MessageView
	QuickQueries []string
}

type chatRequest struct {
	Query string `json:"query" form:"query"`
}

type chatResponse struct {
	Messages []MessageView `json:"messages"`
}

// ChatHandler serves the chat panel.
type ChatHandler struct {
	Backend       ChatBackend
	Conversations conversation.Store
	Renderer      *render.Renderer
	Observer      ChatObserver
	Brand         string
	QuickQueries  []string
	Logger        *log.Logger
}

func (h *ChatHandler) page(c echo.Context) error {
	s, _ := runtime.SessionFromContext(c.Request().Context())
	entries, err := h.Conversations.List(c.Request().Context(), s.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Render(http.StatusOK, "chat.html", chatPage{
		Brand:        h.Brand,
		User:         s,
		Messages:     h.views(entries),
		QuickQueries: h.QuickQueries,
	})
}

// chatForm handles the no-script form post and redirects back to the transcript.
func (h *ChatHandler) chatForm(c echo.Context) error {
	s, _ := runtime.SessionFromContext(c.Request().Context())
	if _, err := h.turn(c.Request().Context(), s.UserID, c.FormValue("query")); err != nil && !errors.Is(err, errEmptyQuery) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *ChatHandler) chatAPI(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	s, _ := runtime.SessionFromContext(c.Request().Context())
	msgs, err := h.turn(c.Request().Context(), s.UserID, req.Query)
	if errors.Is(err, errEmptyQuery) {
		return c.NoContent(http.StatusNoContent)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, chatResponse{Messages: msgs})
}

func (h *ChatHandler) reset(c echo.Context) error {
	s, _ := runtime.SessionFromContext(c.Request().Context())
	if err := h.Conversations.Clear(c.Request().Context(), s.UserID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON) {
		return c.NoContent(http.StatusNoContent)
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

type feature struct {
	Title string
	Text  string
}

type upgradePage struct {
	Brand    string
	Features []feature
}

var upgradeFeatures = []feature{
	{Title: "Daha Detaylı Özetler", Text: "Standart özetlerin ötesine geçin. Pro ile her haberin en kritik detaylarını içeren, derinlemesine analizler ve çok paragraflı özetler alın."},
	{Title: "Genişletilmiş Kaynak Erişimi", Text: "Daha fazla teknoloji sitesi, araştırma makalesi ve özel bültenlerden oluşan genişletilmiş bir veri havuzundan en güncel haberlere anında erişin."},
	{Title: "Sesli Özetler (Çok Yakında)", Text: "Yoldayken veya başka bir işle meşgulken bile haberleri takip edin. Pro kullanıcıları, makale özetlerini yüksek kaliteli seslendirme ile dinleyebilecek."},
	{Title: "Öncelikli Erişim", Text: "En yeni özelliklere ve beta sürümlerine herkesten önce siz erişin. Nova AI'nin geleceğini şekillendirmemize yardımcı olun."},
}

// upgrade shows the Pro plan teaser; nothing can be bought yet.
func (h *ChatHandler) upgrade(c echo.Context) error {
	return c.Render(http.StatusOK, "upgrade.html", upgradePage{Brand: h.Brand, Features: upgradeFeatures})
}

var errEmptyQuery = errors.New("empty query")

// turn records the user message, asks the backend and records the answer. A failed
// backend call still produces an assistant message carrying the failure notice.
func (h *ChatHandler) turn(ctx context.Context, userID, query string) ([]MessageView, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errEmptyQuery
	}
	user := conversation.NewEntry(newslist.Message{Sender: newslist.SenderUser, Text: query})
	if err := h.Conversations.Append(ctx, userID, user); err != nil {
		return nil, err
	}

	start := time.Now()
	reply, err := h.Backend.SendMessage(ctx, userID, query)
	text := reply.Response
	kind := ""
	if err != nil {
		kind = failureKind(err)
		h.logger().Printf("backend call for %s failed: %v", userID, err)
		text = chatclient.FailureNotice(err)
	}
	if h.Observer != nil {
		h.Observer.ObserveChat(time.Since(start).Seconds(), kind)
	}

	answer := conversation.NewEntry(newslist.Message{Sender: newslist.SenderAssistant, Text: text})
	if err := h.Conversations.Append(ctx, userID, answer); err != nil {
		return nil, err
	}
	return h.views([]conversation.Entry{user, answer}), nil
}

func (h *ChatHandler) views(entries []conversation.Entry) []MessageView {
	out := make([]MessageView, 0, len(entries))
	for _, e := range entries {
		out = append(out, MessageView{
			ID:        e.ID,
			Sender:    e.Sender,
			Text:      e.Text,
			CreatedAt: e.CreatedAt,
			View:      h.Renderer.Render(e.Message()),
		})
	}
	return out
}

func (h *ChatHandler) logger() *log.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return log.New(log.Writer(), "[CHAT] ", log.LstdFlags)
}

func failureKind(err error) string {
	var he *chatclient.HTTPError
	var ne net.Error
	switch {
	case errors.As(err, &he):
		return "http"
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &ne) && ne.Timeout():
		return "timeout"
	default:
		return "transport"
	}
}
