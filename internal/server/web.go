package server

import (
	"embed"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/novachat/internal/newslist"
	"github.com/mohammad-safakhou/novachat/internal/render"
)

//go:embed web/templates/*.html
var templateFS embed.FS

// templates implements echo.Renderer over the embedded page set.
type templates struct {
	t *template.Template
}

func newTemplates() (*templates, error) {
	t, err := template.New("").Funcs(template.FuncMap{
		"isUser":   func(s newslist.Sender) bool { return s == newslist.SenderUser },
		"isCards":  func(v render.View) bool { return v.Mode == render.ModeCards },
		"clock":    func(t time.Time) string { return t.Local().Format("15:04") },
		"noSource": func(s string) bool { return s == "" || s == newslist.DefaultSource },
		"initial":  initial,
	}).ParseFS(templateFS, "web/templates/*.html")
	if err != nil {
		return nil, err
	}
	return &templates{t: t}, nil
}

func (t *templates) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return t.t.ExecuteTemplate(w, name, data)
}

func initial(name string) string {
	for _, r := range name {
		return strings.ToUpper(string(r))
	}
	return "?"
}
