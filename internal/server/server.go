package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mohammad-safakhou/novachat/config"
	"github.com/mohammad-safakhou/novachat/internal/chatclient"
	"github.com/mohammad-safakhou/novachat/internal/conversation"
	"github.com/mohammad-safakhou/novachat/internal/digest"
	"github.com/mohammad-safakhou/novachat/internal/ingest"
	"github.com/mohammad-safakhou/novachat/internal/render"
	"github.com/mohammad-safakhou/novachat/internal/runtime"
)

// Server bundles what the HTTP routes need. API is optional and mounts the chat
// backend under /api/v1 of the same process.
type Server struct {
	Config        *config.Config
	Backend       ChatBackend
	Conversations conversation.Store
	Renderer      *render.Renderer
	Metrics       *runtime.Metrics
	API           *digest.Handler
}

// Echo builds the router with every route registered.
func (s *Server) Echo() (*echo.Echo, error) {
	cfg := s.Config
	e := echo.New()
	e.HideBanner = true
	e.Debug = cfg.General.Debug
	tpl, err := newTemplates()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	e.Renderer = tpl
	e.Use(middleware.Recover())
	// Unified HTTP error handler with logging. API and JSON clients get a JSON body,
	// browser pages plain text.
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if c.Response().Committed {
			return
		}
		switch {
		case req.Method == http.MethodHead:
			_ = c.NoContent(code)
		case runtime.WantsJSON(req):
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		default:
			_ = c.String(code, msg)
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	if s.Metrics != nil {
		path := cfg.Telemetry.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		e.GET(path, echo.WrapHandler(s.Metrics.Handler()))
	}
	if s.API != nil {
		s.API.Register(e.Group("/api/v1"))
	}

	secret := []byte(cfg.Server.JWTSecret)
	auth := &AuthHandler{
		Secret:        secret,
		Secure:        cfg.Server.SecureCookies,
		RememberFor:   cfg.Server.RememberFor,
		SessionFor:    cfg.Server.SessionFor,
		Conversations: s.Conversations,
		Brand:         cfg.Display.BrandName,
	}
	e.GET("/login", auth.page)
	e.POST("/login", auth.login)

	chat := &ChatHandler{
		Backend:       s.Backend,
		Conversations: s.Conversations,
		Renderer:      s.Renderer,
		Brand:         cfg.Display.BrandName,
		QuickQueries:  cfg.Display.QuickQueries,
		Logger:        log.New(log.Writer(), "[CHAT] ", log.LstdFlags),
	}
	if s.Metrics != nil {
		chat.Observer = s.Metrics
	}
	withAuth := runtime.EchoAuthMiddleware(secret, "/login")
	e.POST("/logout", auth.logout, withAuth)
	e.GET("/", chat.page, withAuth)
	e.POST("/chat", chat.chatForm, withAuth)
	e.POST("/chat/new", chat.reset, withAuth)
	e.GET("/upgrade", chat.upgrade, withAuth)
	e.POST("/api/chat", chat.chatAPI, withAuth)
	return e, nil
}

// Run serves the chat UI until ctx is cancelled. With backend.embedded the same
// process also serves the backend API and runs scheduled ingestion.
func Run(ctx context.Context, cfg *config.Config) error {
	deps, err := Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	srv := &Server{
		Config:        cfg,
		Backend:       chatclient.New(cfg.Backend.BaseURL, cfg.Backend.Timeout),
		Conversations: deps.Conversations,
		Renderer:      render.New(),
		Metrics:       deps.Metrics,
	}
	if deps.Metrics != nil {
		srv.Renderer = render.New(render.WithObserver(deps.Metrics))
	}
	if deps.Digest != nil {
		srv.API = &digest.Handler{
			Chat: deps.Digest,
			Ingest: func(ctx context.Context) error {
				_, err := deps.Ingest.Run(ctx)
				return err
			},
			Logger: log.New(log.Writer(), "[INGEST] ", log.LstdFlags),
		}
		if cfg.Ingestion.Enabled {
			sched := &ingest.Scheduler{
				Runner:   deps.Ingest,
				Rdb:      deps.Redis,
				Schedule: cfg.Ingestion.Schedule,
				LockTTL:  cfg.Ingestion.LockTTL,
				Logger:   log.New(log.Writer(), "[SCHED] ", log.LstdFlags),
			}
			sched.Start()
			defer sched.Stop()
		}
	}

	e, err := srv.Echo()
	if err != nil {
		return err
	}
	addr := cfg.Server.Address
	if addr == "" {
		addr = ":8000"
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
