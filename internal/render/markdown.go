package render

import (
	"html/template"
	"net/url"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

var (
	linkPolicyOnce sync.Once
	linkPolicy     *bluemonday.Policy
)

// markdownExtensions covers the GitHub flavoured subset chat replies use: tables,
// fenced code, autolinks and strikethrough.
const markdownExtensions = blackfriday.CommonExtensions | blackfriday.Autolink | blackfriday.Strikethrough | blackfriday.Tables

// LinkPolicy returns the sanitiser applied to generic replies. It keeps the user
// generated content subset of HTML. Only absolute http(s) links survive, and every
// one of them opens in a new tab without opener or referrer access. Other anchors
// are unwrapped to their text.
func LinkPolicy() *bluemonday.Policy {
	linkPolicyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.RequireNoFollowOnLinks(false)
		p.RequireNoReferrerOnLinks(true)
		p.AddTargetBlankToFullyQualifiedLinks(true)
		p.AllowRelativeURLs(false)
		p.AllowURLSchemeWithCustomPolicy("http", hasHost)
		p.AllowURLSchemeWithCustomPolicy("https", hasHost)
		p.AllowURLSchemeWithCustomPolicy("mailto", func(*url.URL) bool { return false })
		p.RequireParseableURLs(true)
		linkPolicy = p
	})
	return linkPolicy
}

func hasHost(u *url.URL) bool { return u.Host != "" }

// Markdown converts text to sanitised HTML.
func Markdown(text string) template.HTML {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return ""
	}
	raw := blackfriday.Run([]byte(text), blackfriday.WithExtensions(markdownExtensions))
	return template.HTML(strings.TrimSpace(string(LinkPolicy().SanitizeBytes(raw))))
}
