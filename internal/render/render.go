package render

import (
	"fmt"
	"html/template"

	"github.com/mohammad-safakhou/novachat/internal/newslist"
)

// Mode is the render path chosen for a message.
type Mode string

const (
	ModeCards    Mode = "cards"
	ModeMarkdown Mode = "markdown"
)

// Card is one article prepared for the news grid. Key is positional so repeated
// URLs in a single reply never collide.
type Card struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	PublishDate string `json:"publish_date"`
	DisplayDate string `json:"display_date"`
	Summary     string `json:"summary"`
}

// View is what the chat panel draws for one message.
type View struct {
	Mode  Mode          `json:"mode"`
	Intro string        `json:"intro,omitempty"`
	Cards []Card        `json:"cards,omitempty"`
	HTML  template.HTML `json:"html,omitempty"`
}

// Observer is notified about every render decision.
type Observer interface {
	ObserveRender(mode string, articles int)
}

// Renderer selects between the card grid and generic formatted text.
type Renderer struct {
	observer Observer
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithObserver attaches an Observer, typically the metrics registry.
func WithObserver(o Observer) Option {
	return func(r *Renderer) { r.observer = o }
}

// New returns a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render draws an assistant news list as cards and everything else, including news
// lists that yield no article, as sanitised markdown.
func (r *Renderer) Render(msg newslist.Message) View {
	v := r.render(msg)
	if r.observer != nil {
		r.observer.ObserveRender(string(v.Mode), len(v.Cards))
	}
	return v
}

func (r *Renderer) render(msg newslist.Message) View {
	if msg.Sender == newslist.SenderAssistant && newslist.IsNewsList(msg.Text) {
		res := newslist.Extract(msg.Text)
		if !res.Empty() {
			return View{Mode: ModeCards, Intro: res.Intro, Cards: Cards(res.Articles)}
		}
	}
	return View{Mode: ModeMarkdown, HTML: Markdown(msg.Text)}
}

// Cards converts extracted articles into grid cards, keeping their order.
func Cards(articles []newslist.ArticleRecord) []Card {
	cards := make([]Card, 0, len(articles))
	for i, a := range articles {
		cards = append(cards, Card{
			Key:         fmt.Sprintf("card-%d", i),
			Title:       a.Title,
			URL:         a.URL,
			Source:      a.Source,
			PublishDate: a.PublishDate,
			DisplayDate: FormatDate(a.PublishDate),
			Summary:     a.Summary,
		})
	}
	return cards
}
