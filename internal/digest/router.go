package digest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mohammad-safakhou/novachat/internal/llm"
)

// DefaultDays is the look-back window when a recent-news request names none.
const DefaultDays = 7

// IntentKind names the action chosen for a query.
type IntentKind string

const (
	IntentNone       IntentKind = "none"
	IntentRecentNews IntentKind = "recent_news"
	IntentSearchNews IntentKind = "search_news"
)

// Intent is the routing decision for one query.
type Intent struct {
	Kind    IntentKind `json:"intent"`
	DaysAgo int        `json:"days_ago,omitempty"`
	Topic   string     `json:"topic,omitempty"`
}

// Turn is one earlier query and its answer, oldest first when passed to a Router.
type Turn struct {
	Query    string
	Response string
}

// Router picks the intent for a query.
type Router interface {
	Route(ctx context.Context, query string, history []Turn) (Intent, error)
}

// KeywordRouter routes with fixed Turkish and English patterns.
type KeywordRouter struct{}

var (
	daysPattern     = regexp.MustCompile(`(?i)(?:son|last|past)\s+(\d{1,3})\s*(?:gün|gun|days?)`)
	weekPattern     = regexp.MustCompile(`(?i)(?:son|bu|geçen|gecen)\s+hafta|(?:last|this|past)\s+week`)
	todayPattern    = regexp.MustCompile(`(?i)(?:^|\s)(?:bugün|bugun|today)|(?:son|last)\s+24\s*(?:saat|hours?)`)
	latestPattern   = regexp.MustCompile(`(?i)\b(?:son|güncel|guncel|latest|recent)\s+(?:ai\s+|yapay zeka\s+)?(?:haber|news)`)
	aboutPattern    = regexp.MustCompile(`(?i)^(.+?)\s+(?:ile ilgili|hakkında|hakkındaki|konusunda|üzerine)\b`)
	aboutEnPattern  = regexp.MustCompile(`(?i)\b(?:about|on|regarding)\s+(.+?)[\s?.!]*$`)
	greetingPattern = regexp.MustCompile(`(?i)^\s*(?:merhaba|selam|selamlar|hello|hi|hey|teşekkürler|tesekkurler|thanks|thank you)\b[\s!.?]*$`)
)

// filler words stripped when a query is used as a search topic
var filler = map[string]bool{
	"haber": true, "haberler": true, "haberleri": true, "haberlerini": true,
	"getir": true, "göster": true, "bul": true, "ara": true, "özetle": true, "listele": true,
	"bana": true, "lütfen": true, "neler": true, "var": true, "mı": true, "mi": true,
	"news": true, "show": true, "find": true, "get": true, "me": true, "please": true,
	"the": true, "latest": true, "search": true, "for": true,
}

// Route implements Router.
func (KeywordRouter) Route(_ context.Context, query string, _ []Turn) (Intent, error) {
	q := strings.TrimSpace(query)
	if q == "" || greetingPattern.MatchString(q) {
		return Intent{Kind: IntentNone}, nil
	}
	if m := daysPattern.FindStringSubmatch(q); m != nil {
		days, err := strconv.Atoi(m[1])
		if err != nil || days <= 0 {
			days = DefaultDays
		}
		return Intent{Kind: IntentRecentNews, DaysAgo: days}, nil
	}
	if todayPattern.MatchString(q) {
		return Intent{Kind: IntentRecentNews, DaysAgo: 1}, nil
	}
	if weekPattern.MatchString(q) || latestPattern.MatchString(q) {
		return Intent{Kind: IntentRecentNews, DaysAgo: DefaultDays}, nil
	}
	if topic := topicOf(q); topic != "" {
		return Intent{Kind: IntentSearchNews, Topic: topic}, nil
	}
	return Intent{Kind: IntentNone}, nil
}

func topicOf(q string) string {
	if m := aboutPattern.FindStringSubmatch(q); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := aboutEnPattern.FindStringSubmatch(q); m != nil {
		return stripFiller(m[1])
	}
	return stripFiller(q)
}

func stripFiller(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '?' || r == '!' || r == ','
	})
	kept := words[:0]
	for _, w := range words {
		if filler[strings.ToLower(strings.Trim(w, ".:;'\""))] {
			continue
		}
		kept = append(kept, w)
	}
	return strings.TrimSpace(strings.Join(kept, " "))
}

const routerPrompt = `Sen, kullanıcının isteğine göre doğru aracı ve parametreleri seçen bir yönlendiricisin.
Kullanılabilir araçlar:
- recent_news: son N gündeki haberleri getirir. Parametre: days_ago (tam sayı).
- search_news: belirli bir konudaki haberleri arar. Parametre: topic (ör. "GPT-5", "NVIDIA").
Hiçbiri uygun değilse intent olarak "none" kullan.
Yalnızca şu biçimde geçerli JSON döndür:
{"intent": "recent_news" | "search_news" | "none", "days_ago": 7, "topic": ""}`

// LLMRouter asks a chat model for the intent and falls back to Fallback when the
// model is unavailable or answers with something unusable.
type LLMRouter struct {
	LLM      llm.Completer
	Fallback Router
	Logger   *log.Logger
}

// Route implements Router.
func (r *LLMRouter) Route(ctx context.Context, query string, history []Turn) (Intent, error) {
	intent, err := r.ask(ctx, query, history)
	if err == nil {
		return intent, nil
	}
	if r.Fallback == nil {
		return Intent{}, err
	}
	if !errors.Is(err, llm.ErrDisabled) {
		r.logger().Printf("llm routing failed, using fallback: %v", err)
	}
	return r.Fallback.Route(ctx, query, history)
}

func (r *LLMRouter) ask(ctx context.Context, query string, history []Turn) (Intent, error) {
	if r.LLM == nil {
		return Intent{}, llm.ErrDisabled
	}
	var b strings.Builder
	if len(history) > 0 {
		b.WriteString("Önceki konuşma:\n")
		for _, t := range history {
			fmt.Fprintf(&b, "Kullanıcı: %s\nAsistan: %s\n", t.Query, truncate(t.Response, 400))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Kullanıcı isteği: %s", query)

	raw, err := r.LLM.Complete(ctx, routerPrompt, b.String())
	if err != nil {
		return Intent{}, err
	}
	return parseIntent(raw)
}

func (r *LLMRouter) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.New(log.Writer(), "[CHAT] ", log.LstdFlags)
}

func parseIntent(raw string) (Intent, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	var in Intent
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &in); err != nil {
		return Intent{}, fmt.Errorf("decode intent: %w", err)
	}
	switch in.Kind {
	case IntentNone:
		return Intent{Kind: IntentNone}, nil
	case IntentRecentNews:
		if in.DaysAgo <= 0 {
			in.DaysAgo = DefaultDays
		}
		return Intent{Kind: IntentRecentNews, DaysAgo: in.DaysAgo}, nil
	case IntentSearchNews:
		topic := strings.TrimSpace(in.Topic)
		if topic == "" {
			return Intent{}, errors.New("search intent without topic")
		}
		return Intent{Kind: IntentSearchNews, Topic: topic}, nil
	default:
		return Intent{}, fmt.Errorf("unknown intent %q", in.Kind)
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}
