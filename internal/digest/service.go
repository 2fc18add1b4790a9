// Package digest answers chat queries with numbered news digests built from the
// article store.
package digest

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/mohammad-safakhou/novachat/internal/newslist"
	"github.com/mohammad-safakhou/novachat/internal/store"
)

// Fixed replies.
const (
	HelpReply     = "Size nasıl yardımcı olabilirim? 'Son 3 gün' veya 'Yapay zeka' gibi konularla ilgili haberleri arayabilirim."
	NotFoundReply = "Bu konuda veritabanımda bir bilgi bulamadım."
	ErrorReply    = "Üzgünüm, isteğinizi işlerken bir hata oluştu. Lütfen daha sonra tekrar deneyin."
	UnknownReply  = "Üzgünüm, isteğinizi anlayamadım."
)

// minSummaryLen is the shortest stored summary used as is.
const minSummaryLen = 20

// ArticleStore is the storage used by Service.
type ArticleStore interface {
	RecentArticles(ctx context.Context, days, limit int) ([]store.Article, error)
	SearchArticles(ctx context.Context, topic string, limit int) ([]store.Article, error)
	CreateChatHistory(ctx context.Context, userID, query, response string) (int64, error)
	ChatHistoryByUser(ctx context.Context, userID string, limit int) ([]store.ChatHistory, error)
}

// Summarizer produces a summary for article text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Service routes queries and formats the matching articles.
type Service struct {
	Store      ArticleStore
	Router     Router
	Summarizer Summarizer
	Logger     *log.Logger
}

// NewService wires a service; a nil router means keyword routing.
func NewService(st ArticleStore, router Router, sum Summarizer, logger *log.Logger) *Service {
	if router == nil {
		router = KeywordRouter{}
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[CHAT] ", log.LstdFlags)
	}
	return &Service{Store: st, Router: router, Summarizer: sum, Logger: logger}
}

// Answer returns the assistant reply for query. Failures are logged and turned into
// ErrorReply; the reply text is always usable.
func (s *Service) Answer(ctx context.Context, userID, query string) string {
	reply, save, err := s.answer(ctx, userID, query)
	if err != nil {
		s.Logger.Printf("chat logic failed for user %s: %v", userID, err)
		return ErrorReply
	}
	if save {
		if _, err := s.Store.CreateChatHistory(ctx, userID, query, reply); err != nil {
			s.Logger.Printf("save chat history for user %s: %v", userID, err)
			return ErrorReply
		}
	}
	return reply
}

func (s *Service) answer(ctx context.Context, userID, query string) (string, bool, error) {
	history, err := s.history(ctx, userID)
	if err != nil {
		return "", false, err
	}
	intent, err := s.Router.Route(ctx, query, history)
	if err != nil {
		return "", false, fmt.Errorf("route: %w", err)
	}

	var (
		articles []store.Article
		intro    string
	)
	switch intent.Kind {
	case IntentNone:
		return HelpReply, false, nil
	case IntentRecentNews:
		days := intent.DaysAgo
		if days <= 0 {
			days = DefaultDays
		}
		articles, err = s.Store.RecentArticles(ctx, days, store.DefaultArticleLimit)
		intro = fmt.Sprintf("Son %d gün içinde öne çıkan haberler şunlardır:", days)
	case IntentSearchNews:
		articles, err = s.Store.SearchArticles(ctx, intent.Topic, store.DefaultArticleLimit)
		intro = fmt.Sprintf("'%s' konusu ile ilgili bulunan haberler şunlardır:", capitalize(intent.Topic))
	default:
		return UnknownReply, true, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load articles: %w", err)
	}
	if len(articles) == 0 {
		return NotFoundReply, true, nil
	}
	s.enrich(ctx, articles)
	return newslist.Format(intro, records(articles)), true, nil
}

// history loads the latest turns oldest first.
func (s *Service) history(ctx context.Context, userID string) ([]Turn, error) {
	rows, err := s.Store.ChatHistoryByUser(ctx, userID, store.DefaultHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	turns := make([]Turn, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		turns = append(turns, Turn{Query: rows[i].Query, Response: rows[i].Response})
	}
	return turns, nil
}

// enrich fills short or missing summaries concurrently. Articles that cannot be
// summarised keep their stored summary.
func (s *Service) enrich(ctx context.Context, articles []store.Article) {
	if s.Summarizer == nil {
		return
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range articles {
		a := &articles[i]
		if utf8.RuneCountInString(strings.TrimSpace(a.Summary)) >= minSummaryLen || strings.TrimSpace(a.Content) == "" {
			continue
		}
		g.Go(func() error {
			sum, err := s.Summarizer.Summarize(gctx, a.Content)
			if err != nil {
				s.Logger.Printf("summary for %s: %v", a.URL, err)
				return nil
			}
			a.Summary = sum
			return nil
		})
	}
	_ = g.Wait()
}

func records(articles []store.Article) []newslist.ArticleRecord {
	out := make([]newslist.ArticleRecord, 0, len(articles))
	for _, a := range articles {
		rec := newslist.ArticleRecord{
			Title:   a.Title,
			URL:     a.URL,
			Source:  a.Source,
			Summary: a.Summary,
		}
		if a.PublishDate != nil {
			rec.PublishDate = a.PublishDate.Format("2006-01-02")
		}
		out = append(out, rec)
	}
	return out
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r := []rune(strings.ToLower(s))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
