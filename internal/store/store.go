package store

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/mohammad-safakhou/novachat/config"
)

// Default result limits used by the chat backend.
const (
	DefaultArticleLimit = 8
	DefaultHistoryLimit = 10
)

// ErrDuplicateArticle is returned when an article with the same url already exists.
var ErrDuplicateArticle = errors.New("article already exists")

type Store struct {
	DB *sql.DB
}

// Article is one ingested news item.
type Article struct {
	ID          int64
	Title       string
	URL         string
	Source      string
	PublishDate *time.Time
	Content     string
	Summary     string
	Keywords    string
}

// ChatHistory is one answered chat turn.
type ChatHistory struct {
	ID        int64
	UserID    string
	Query     string
	Response  string
	CreatedAt time.Time
}

// New connects to the database described by cfg. The connect and ping are bounded
// by cfg.Timeout when it is set.
func New(ctx context.Context, cfg config.PostgresConfig) (*Store, error) {
	dsn := cfg.DSN()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
		dsn = withConnectTimeout(dsn, cfg.Timeout)
	}
	return NewWithDSN(ctx, dsn)
}

// withConnectTimeout sets connect_timeout on url style DSNs that lack one. The
// driver only applies it in whole seconds.
func withConnectTimeout(dsn string, d time.Duration) string {
	u, err := url.Parse(dsn)
	if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		return dsn
	}
	q := u.Query()
	if q.Get("connect_timeout") != "" {
		return dsn
	}
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	q.Set("connect_timeout", strconv.Itoa(secs))
	u.RawQuery = q.Encode()
	return u.String()
}

// NewWithDSN constructs the Store using an explicit Postgres DSN
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{DB: db}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.DB.Close() }

// Article operations

func (s *Store) ArticleExists(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM articles WHERE url=$1)`, url).Scan(&exists)
	return exists, err
}

// CreateArticle inserts a and returns its id, or ErrDuplicateArticle when the url is known.
func (s *Store) CreateArticle(ctx context.Context, a Article) (int64, error) {
	var id int64
	err := s.DB.QueryRowContext(ctx, `
INSERT INTO articles (title, url, source, publish_date, content, summary, keywords)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (url) DO NOTHING
RETURNING id`,
		a.Title, a.URL, a.Source, a.PublishDate, a.Content, a.Summary, a.Keywords).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrDuplicateArticle
	}
	return id, err
}

const articleColumns = `id, title, url, source, publish_date, content, summary, keywords`

// RecentArticles returns articles published in the last days, newest first.
func (s *Store) RecentArticles(ctx context.Context, days, limit int) ([]Article, error) {
	if limit <= 0 {
		limit = DefaultArticleLimit
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	rows, err := s.DB.QueryContext(ctx, `SELECT `+articleColumns+` FROM articles
WHERE publish_date >= $1
ORDER BY publish_date DESC
LIMIT $2`, cutoff, limit)
	if err != nil {
		return nil, err
	}
	return scanArticles(rows)
}

// SearchArticles matches topic against title, keywords and summary, newest first.
func (s *Store) SearchArticles(ctx context.Context, topic string, limit int) ([]Article, error) {
	if limit <= 0 {
		limit = DefaultArticleLimit
	}
	pattern := "%" + escapeLike(strings.TrimSpace(topic)) + "%"
	rows, err := s.DB.QueryContext(ctx, `SELECT `+articleColumns+` FROM articles
WHERE title ILIKE $1 OR keywords ILIKE $1 OR summary ILIKE $1
ORDER BY publish_date DESC NULLS LAST
LIMIT $2`, pattern, limit)
	if err != nil {
		return nil, err
	}
	return scanArticles(rows)
}

func scanArticles(rows *sql.Rows) ([]Article, error) {
	defer rows.Close()
	var out []Article
	for rows.Next() {
		var a Article
		var published sql.NullTime
		if err := rows.Scan(&a.ID, &a.Title, &a.URL, &a.Source, &published, &a.Content, &a.Summary, &a.Keywords); err != nil {
			return nil, err
		}
		if published.Valid {
			t := published.Time
			a.PublishDate = &t
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Chat history operations

func (s *Store) CreateChatHistory(ctx context.Context, userID, query, response string) (int64, error) {
	var id int64
	err := s.DB.QueryRowContext(ctx, `INSERT INTO chat_history (user_id, query, response) VALUES ($1,$2,$3) RETURNING id`,
		userID, query, response).Scan(&id)
	return id, err
}

// ChatHistoryByUser returns the latest turns of userID, newest first.
func (s *Store) ChatHistoryByUser(ctx context.Context, userID string, limit int) ([]ChatHistory, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := s.DB.QueryContext(ctx, `SELECT id, user_id, query, response, created_at FROM chat_history
WHERE user_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ChatHistory
	for rows.Next() {
		var h ChatHistory
		if err := rows.Scan(&h.ID, &h.UserID, &h.Query, &h.Response, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
