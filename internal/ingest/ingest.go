// Package ingest pulls AI news feeds into the article store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/mohammad-safakhou/novachat/config"
	"github.com/mohammad-safakhou/novachat/internal/store"
)

// Outcomes reported per feed entry.
const (
	OutcomeKnown         = "known"
	OutcomeFetchFailed   = "fetch_failed"
	OutcomeShortContent  = "short_content"
	OutcomeSummaryFailed = "summary_failed"
	OutcomeShortSummary  = "short_summary"
	OutcomeDuplicate     = "duplicate"
	OutcomeSaveFailed    = "save_failed"
	OutcomeSaved         = "saved"
)

// ArticleStore is the storage used by ingestion.
type ArticleStore interface {
	ArticleExists(ctx context.Context, url string) (bool, error)
	CreateArticle(ctx context.Context, a store.Article) (int64, error)
}

// Summarizer produces an article summary.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Observer receives one outcome per handled entry.
type Observer interface {
	ObserveIngest(outcome string)
}

// Stats counts outcomes of one run.
type Stats map[string]int

// Service runs ingestion passes over the configured feeds.
type Service struct {
	Store      ArticleStore
	Feeds      FeedReader
	Pages      PageReader
	Summarizer Summarizer
	Keywords   KeywordExtractor
	Config     config.IngestionConfig
	Observer   Observer
	Logger     *log.Logger
}

// Run ingests every configured source once. Failures of single feeds or entries are
// logged and counted; Run only fails when ctx ends or no feed could be read.
func (s *Service) Run(ctx context.Context) (Stats, error) {
	cfg := s.Config.Normalize()
	logger := s.logger()
	logger.Printf("ingestion started for %d sources", len(cfg.Sources))

	var (
		mu    sync.Mutex
		stats = Stats{}
	)
	record := func(outcome string) {
		mu.Lock()
		stats[outcome]++
		mu.Unlock()
		if s.Observer != nil {
			s.Observer.ObserveIngest(outcome)
		}
	}

	pending, feedErrs := s.collect(ctx, cfg, record)
	if len(cfg.Sources) > 0 && feedErrs == len(cfg.Sources) {
		return stats, errors.New("no feed could be read")
	}
	logger.Printf("processing %d new articles", len(pending))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for _, e := range pending {
		e := e
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			record(s.process(gctx, cfg, e))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}
	logger.Printf("ingestion finished: %s", stats)
	return stats, ctx.Err()
}

// collect lists new entries of every feed, skipping urls already stored or seen in
// this run.
func (s *Service) collect(ctx context.Context, cfg config.IngestionConfig, record func(string)) ([]Entry, int) {
	logger := s.logger()
	seen := map[string]bool{}
	var (
		pending []Entry
		failed  int
	)
	for _, src := range cfg.Sources {
		if ctx.Err() != nil {
			break
		}
		entries, err := s.Feeds.Entries(ctx, src, cfg.MaxPerFeed)
		if err != nil {
			logger.Printf("feed %s (%s): %v", src.Name, src.URL, err)
			failed++
			continue
		}
		added := 0
		for _, e := range entries {
			if seen[e.URL] {
				continue
			}
			seen[e.URL] = true
			exists, err := s.Store.ArticleExists(ctx, e.URL)
			if err != nil {
				logger.Printf("lookup %s: %v", e.URL, err)
				continue
			}
			if exists {
				record(OutcomeKnown)
				continue
			}
			pending = append(pending, e)
			added++
		}
		logger.Printf("source %s done: %d new articles", src.Name, added)
	}
	return pending, failed
}

func (s *Service) process(ctx context.Context, cfg config.IngestionConfig, e Entry) string {
	logger := s.logger()
	text, err := s.Pages.Text(ctx, e.URL)
	if err != nil {
		logger.Printf("fetch %s: %v", e.URL, err)
		return OutcomeFetchFailed
	}
	if utf8.RuneCountInString(text) < cfg.MinContentLen {
		return OutcomeShortContent
	}

	summary, err := s.Summarizer.Summarize(ctx, text)
	if err != nil {
		logger.Printf("summarize %s: %v", e.URL, err)
		return OutcomeSummaryFailed
	}
	summary = strings.TrimSpace(summary)
	if utf8.RuneCountInString(summary) < cfg.MinSummaryLen {
		return OutcomeShortSummary
	}

	published := e.Published
	_, err = s.Store.CreateArticle(ctx, store.Article{
		Title:       e.Title,
		URL:         e.URL,
		Source:      e.Source,
		PublishDate: &published,
		Content:     text,
		Summary:     summary,
		Keywords:    s.Keywords.Extract(ctx, e.Title, text),
	})
	switch {
	case errors.Is(err, store.ErrDuplicateArticle):
		return OutcomeDuplicate
	case err != nil:
		logger.Printf("save %s: %v", e.URL, err)
		return OutcomeSaveFailed
	}
	return OutcomeSaved
}

func (s *Service) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.New(log.Writer(), "[INGEST] ", log.LstdFlags)
}

// String renders stats in a stable order for logs and the CLI.
func (st Stats) String() string {
	keys := []string{OutcomeSaved, OutcomeKnown, OutcomeDuplicate, OutcomeFetchFailed, OutcomeShortContent, OutcomeSummaryFailed, OutcomeShortSummary, OutcomeSaveFailed}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if n := st[k]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", k, n))
		}
	}
	if len(parts) == 0 {
		return "nothing new"
	}
	return strings.Join(parts, " ")
}
