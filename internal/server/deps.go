package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/mohammad-safakhou/novachat/config"
	"github.com/mohammad-safakhou/novachat/internal/conversation"
	"github.com/mohammad-safakhou/novachat/internal/digest"
	"github.com/mohammad-safakhou/novachat/internal/ingest"
	"github.com/mohammad-safakhou/novachat/internal/llm"
	"github.com/mohammad-safakhou/novachat/internal/runtime"
	"github.com/mohammad-safakhou/novachat/internal/store"
	"github.com/redis/go-redis/v9"
)

// Deps holds the shared dependencies built from the configuration. Store, Digest and
// Ingest are only set when the backend is embedded.
type Deps struct {
	Config        *config.Config
	Metrics       *runtime.Metrics
	Redis         *redis.Client
	Store         *store.Store
	Conversations conversation.Store
	Digest        *digest.Service
	Ingest        *ingest.Service
}

// Open connects to the configured backing services.
func Open(ctx context.Context, cfg *config.Config) (*Deps, error) {
	d := &Deps{Config: cfg, Metrics: runtime.NewMetrics()}
	if !cfg.Telemetry.Enabled {
		d.Metrics = nil
	}

	if cfg.Storage.Redis.Configured() {
		r := cfg.Storage.Redis
		d.Redis = redis.NewClient(&redis.Options{Addr: r.Addr(), Password: r.Password, DB: r.DB, DialTimeout: r.Timeout})
		if err := d.Redis.Ping(ctx).Err(); err != nil {
			d.Close()
			return nil, fmt.Errorf("redis connection failed (%s): %w", r.Addr(), err)
		}
	}

	switch cfg.Server.Conversation {
	case "redis":
		if d.Redis == nil {
			return nil, fmt.Errorf("redis not configured (storage.redis.host/port)")
		}
		d.Conversations = conversation.NewRedisStore(d.Redis, cfg.Server.ConversationTTL)
	default:
		d.Conversations = conversation.NewMemoryStore()
	}

	if cfg.Backend.Embedded {
		if err := d.openBackend(ctx, cfg); err != nil {
			d.Close()
			return nil, err
		}
	}
	return d, nil
}

func (d *Deps) openBackend(ctx context.Context, cfg *config.Config) error {
	dsn := cfg.Storage.Postgres.DSN()
	if err := store.Migrate("file://migrations", dsn, "up", 0); err != nil {
		log.Printf("migrate: %v", err)
	}
	st, err := store.New(ctx, cfg.Storage.Postgres)
	if err != nil {
		return err
	}
	d.Store = st

	var router digest.Router = digest.KeywordRouter{}
	var summarizer llm.Summarizer
	var keywords ingest.KeywordExtractor
	if cfg.LLM.Enabled() {
		router = &digest.LLMRouter{
			LLM:      llm.NewClient(cfg.LLM, cfg.LLM.RouterModel).JSON(),
			Fallback: digest.KeywordRouter{},
			Logger:   log.New(log.Writer(), "[CHAT] ", log.LstdFlags),
		}
		summary := llm.NewClient(cfg.LLM, cfg.LLM.SummaryModel)
		summarizer.LLM = summary
		keywords.LLM = summary
	}
	d.Digest = digest.NewService(st, router, summarizer, log.New(log.Writer(), "[CHAT] ", log.LstdFlags))

	ic := cfg.Ingestion
	client := &http.Client{Timeout: ic.FetchTimeout}
	d.Ingest = &ingest.Service{
		Store:      st,
		Feeds:      ingest.NewRSSReader(client, ic.UserAgent),
		Pages:      &ingest.HTTPPageReader{Client: client, UserAgent: ic.UserAgent},
		Summarizer: summarizer,
		Keywords:   keywords,
		Config:     ic,
		Logger:     log.New(log.Writer(), "[INGEST] ", log.LstdFlags),
	}
	if d.Metrics != nil {
		d.Ingest.Observer = d.Metrics
	}
	return nil
}

// Close releases every open connection.
func (d *Deps) Close() {
	if d.Store != nil {
		_ = d.Store.Close()
	}
	if d.Redis != nil {
		_ = d.Redis.Close()
	}
}
