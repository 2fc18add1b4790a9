package newslist

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const linkLabel = "Haber Linki"

var (
	// firstItemPattern marks the line where the first bold list item starts.
	firstItemPattern = regexp.MustCompile(`(?m)^\d+\.\s\*\*`)
	// blockSplitPattern separates numbered items at the start of a line.
	blockSplitPattern = regexp.MustCompile(`(?m)^\d+\.\s`)

	titlePattern       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	urlPattern         = regexp.MustCompile(`\[` + regexp.QuoteMeta(linkLabel) + `\]\((.*?)\)`)
	sourcePattern      = regexp.MustCompile(`\*\*Kaynak:\*\*[ \t]*([^\n]*)`)
	publishDatePattern = regexp.MustCompile(`\*\*Yayın Tarihi:\*\*[ \t]*([^\n]*)`)
	summaryPattern     = regexp.MustCompile(`\*\*Özet:\*\*[ \t]*`)
	// summaryEndPattern is the next labelled sub-item of the same block, "   - **Link:**"
	// included.
	summaryEndPattern = regexp.MustCompile(`\n[ \t]*-[ \t]+(?:\*\*[^*\n]+:\*\*|\[` + regexp.QuoteMeta(linkLabel) + `\])`)
)

// Extract splits a news list message into its intro paragraph and article records.
// Blocks without both a title and a link are dropped silently. Extract never panics;
// input it cannot handle yields an empty result.
func Extract(text string) (res ExtractionResult) {
	defer func() {
		if r := recover(); r != nil {
			res = ExtractionResult{}
		}
	}()
	if !utf8.ValidString(text) {
		return ExtractionResult{}
	}

	intro, rest := Intro(text)
	res.Intro = intro
	for _, block := range Blocks(rest) {
		if rec, ok := ParseBlock(block); ok {
			res.Articles = append(res.Articles, rec)
		}
	}
	return res
}

// Intro returns the trimmed text preceding the first bold list item and the remainder
// starting at that item. Without any list item the intro is empty and rest is text.
func Intro(text string) (intro, rest string) {
	loc := firstItemPattern.FindStringIndex(text)
	if loc == nil {
		return "", text
	}
	return strings.TrimSpace(text[:loc[0]]), text[loc[0]:]
}

// Blocks cuts text at every numbered item marker and drops empty fragments.
func Blocks(text string) []string {
	parts := blockSplitPattern.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// ParseBlock recovers one article from a block. ok is false when the title or the
// link is missing.
func ParseBlock(block string) (ArticleRecord, bool) {
	title, ok := Title(block)
	if !ok {
		return ArticleRecord{}, false
	}
	link, ok := URL(block)
	if !ok {
		return ArticleRecord{}, false
	}
	rec := ArticleRecord{
		Title:       title,
		URL:         link,
		Source:      DefaultSource,
		PublishDate: DefaultPublishDate,
		Summary:     title,
	}
	if v, ok := Source(block); ok {
		rec.Source = v
	}
	if v, ok := PublishDate(block); ok {
		rec.PublishDate = v
	}
	if v, ok := Summary(block); ok {
		rec.Summary = v
	}
	return rec, true
}

// Title returns the text inside the first pair of double asterisks.
func Title(block string) (string, bool) {
	return firstGroup(titlePattern, block)
}

// URL returns the target of the first "Haber Linki" markdown link.
func URL(block string) (string, bool) {
	return firstGroup(urlPattern, block)
}

// Source returns the value of the bold "Kaynak:" label up to the end of its line.
func Source(block string) (string, bool) {
	return firstGroup(sourcePattern, block)
}

// PublishDate returns the value of the bold "Yayın Tarihi:" label up to the end of its line.
func PublishDate(block string) (string, bool) {
	return firstGroup(publishDatePattern, block)
}

// Summary returns the text after the bold "Özet:" label. It may span several lines and
// stops at the next labelled sub-item or at the end of the block.
func Summary(block string) (string, bool) {
	loc := summaryPattern.FindStringIndex(block)
	if loc == nil {
		return "", false
	}
	body := block[loc[1]:]
	if end := summaryEndPattern.FindStringIndex(body); end != nil {
		body = body[:end[0]]
	}
	body = strings.TrimSpace(body)
	return body, body != ""
}

func firstGroup(re *regexp.Regexp, s string) (string, bool) {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return "", false
	}
	v := strings.TrimSpace(m[1])
	return v, v != ""
}
