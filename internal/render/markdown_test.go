package render

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestMarkdownLinksOpenInNewTab(t *testing.T) {
	t.Parallel()
	got := string(Markdown("See [docs](https://example.com/docs)"))
	for _, want := range []string{`href="https://example.com/docs"`, `target="_blank"`, "noopener", "noreferrer"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in %q", want, got)
		}
	}
}

var anchorPattern = regexp.MustCompile(`<a\s[^>]*>`)

func TestMarkdownEveryAnchorOpensInNewTab(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		in      string
		text    string
		anchors int
	}{
		{name: "absolute", in: "[docs](https://example.com/docs)", text: "docs", anchors: 1},
		{name: "autolink", in: "see https://example.com/a", text: "example.com/a", anchors: 1},
		{name: "relative", in: "[rel](/local/page)", text: "rel"},
		{name: "protocol relative", in: "[pr](//example.com/x)", text: "pr"},
		{name: "mailto", in: "[mail](mailto:a@b.co)", text: "mail"},
		{name: "hostless http", in: "[odd](http:foo)", text: "odd"},
		{name: "mixed", in: "[a](https://a.example) [rel](/x) [mail](mailto:a@b.co) [b](http://b.example)", text: "rel", anchors: 2},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := string(Markdown(tt.in))
			anchors := anchorPattern.FindAllString(got, -1)
			if len(anchors) != tt.anchors {
				t.Fatalf("expected %d anchors, got %d in %q", tt.anchors, len(anchors), got)
			}
			for _, a := range anchors {
				for _, want := range []string{`target="_blank"`, "noopener", "noreferrer"} {
					if !strings.Contains(a, want) {
						t.Fatalf("anchor %q lacks %q", a, want)
					}
				}
			}
			if !strings.Contains(got, tt.text) {
				t.Fatalf("link text %q lost: %q", tt.text, got)
			}
		})
	}
}

func TestMarkdownFormatting(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "bold", in: "**bold** text", want: []string{"<strong>bold</strong>"}},
		{name: "list", in: "- one\n- two\n", want: []string{"<ul>", "<li>one</li>"}},
		{name: "table", in: "| a | b |\n|---|---|\n| 1 | 2 |\n", want: []string{"<table>", "<td>1</td>"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := string(Markdown(tt.in))
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Fatalf("expected %q in %q", w, got)
				}
			}
		})
	}
}

func TestMarkdownStripsScripts(t *testing.T) {
	t.Parallel()
	got := string(Markdown("<script>alert('x')</script>\n\nhello [x](javascript:void)"))
	if strings.Contains(got, "<script") || strings.Contains(got, "javascript:") {
		t.Fatalf("unsafe markup survived: %q", got)
	}
	if !strings.Contains(got, "hello") {
		t.Fatalf("text lost: %q", got)
	}
}

func TestMarkdownEmpty(t *testing.T) {
	t.Parallel()
	if got := Markdown("   \n"); got != "" {
		t.Fatalf("expected empty html, got %q", got)
	}
}

func TestFormatDate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{in: "2024-01-01", want: "1 Ocak 2024"},
		{in: "2024-08-15T10:00:00Z", want: "15 Ağustos 2024"},
		{in: "", want: "date unknown"},
		{in: "date unknown", want: "date unknown"},
		{in: "yarın sabah", want: "yarın sabah"},
		{in: "12:", want: "12:"},
		{in: "Jan 1", want: "Jan 1"},
		{in: "1/1", want: "1/1"},
		{in: "1:2:3:4", want: "1:2:3:4"},
	}
	for _, tt := range tests {
		if got := FormatDate(tt.in); got != tt.want {
			t.Fatalf("FormatDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLongDate(t *testing.T) {
	t.Parallel()
	got := LongDate(time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC))
	if got != "31 Aralık 2025" {
		t.Fatalf("LongDate() = %q", got)
	}
}
