package digest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

type echoAnswerer struct{}

func (echoAnswerer) Answer(_ context.Context, userID, query string) string {
	return userID + ":" + query
}

func TestChatHandler(t *testing.T) {
	e := echo.New()
	h := &Handler{Chat: echoAnswerer{}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"user_id":"u1","query":"merhaba"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.chat(e.NewContext(req, rec)); err != nil {
		t.Fatalf("chat: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Response != "u1:merhaba" || resp.UserID != "u1" || resp.Query != "merhaba" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestChatHandlerRejectsBlank(t *testing.T) {
	e := echo.New()
	h := &Handler{Chat: echoAnswerer{}}
	for _, body := range []string{`{"user_id":"u1","query":"  "}`, `{"user_id":"","query":"q"}`, `{}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		err := h.chat(e.NewContext(req, httptest.NewRecorder()))
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != http.StatusBadRequest || he.Message != "Query and user_id cannot be empty." {
			t.Fatalf("body %s: expected 400 error, got %v", body, err)
		}
	}
}

func TestIngestHandler(t *testing.T) {
	e := echo.New()
	started := make(chan struct{})
	release := make(chan struct{})
	h := &Handler{Ingest: func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}}

	call := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest-news", nil)
		rec := httptest.NewRecorder()
		if err := h.ingest(e.NewContext(req, rec)); err != nil {
			t.Fatalf("ingest: %v", err)
		}
		return rec
	}

	rec := call()
	if rec.Code != http.StatusAccepted || !strings.Contains(rec.Body.String(), "started in the background") {
		t.Fatalf("unexpected first response %d %s", rec.Code, rec.Body.String())
	}
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatalf("ingestion did not start")
	}
	rec = call()
	if rec.Code != http.StatusAccepted || !strings.Contains(rec.Body.String(), "already running") {
		t.Fatalf("unexpected second response %d %s", rec.Code, rec.Body.String())
	}
	close(release)
}

func TestIngestHandlerNotConfigured(t *testing.T) {
	e := echo.New()
	h := &Handler{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest-news", nil)
	err := h.ingest(e.NewContext(req, httptest.NewRecorder()))
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %v", err)
	}
}
