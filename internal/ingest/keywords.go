package ingest

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mohammad-safakhou/novachat/internal/llm"
)

const keywordsPrompt = "Aşağıdaki makale metnine dayanarak, en ilgili 5 anahtar kelimeyi virgülle ayırarak Türkçe olarak listele (örneğin: yapay zeka, makine öğrenmesi, dil modelleri). Yalnızca listeyi yaz."

var bulletPattern = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*`)

// KeywordCount is the number of keywords stored per article.
const KeywordCount = 5

var stopwords = map[string]bool{
	// english
	"that": true, "this": true, "with": true, "from": true, "have": true, "will": true, "their": true,
	"they": true, "been": true, "were": true, "which": true, "about": true, "would": true, "there": true,
	"what": true, "when": true, "more": true, "into": true, "also": true, "than": true, "them": true,
	"some": true, "other": true, "could": true, "your": true, "said": true, "just": true, "like": true,
	"over": true, "only": true, "most": true, "these": true, "those": true, "such": true, "each": true,
	"where": true, "while": true, "after": true, "before": true, "because": true, "through": true,
	"does": true, "being": true, "very": true, "many": true, "much": true, "even": true,
	// turkish
	"için": true, "olarak": true, "daha": true, "gibi": true, "olan": true, "ancak": true, "kadar": true,
	"sonra": true, "önce": true, "şekilde": true, "ayrıca": true, "bunun": true, "bunu": true, "değil": true,
}

// KeywordExtractor derives comma separated keywords for an article.
type KeywordExtractor struct {
	LLM llm.Completer
}

// Extract asks the model when one is configured and falls back to term frequency.
func (k KeywordExtractor) Extract(ctx context.Context, title, text string) string {
	if k.LLM != nil {
		out, err := k.LLM.Complete(ctx, keywordsPrompt, truncateRunes(text, 8000))
		if err == nil {
			if kw := normalizeKeywords(out); kw != "" {
				return kw
			}
		}
	}
	return FrequentTerms(title+"\n"+text, KeywordCount)
}

// FrequentTerms returns the n most frequent words of at least four letters, ignoring
// stopwords, joined by ", ". Ties keep first-seen order.
func FrequentTerms(text string, n int) string {
	counts := map[string]int{}
	var order []string
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	}) {
		w = strings.Trim(w, "-")
		if utf8.RuneCountInString(w) < 4 || stopwords[w] || isNumber(w) {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > n {
		order = order[:n]
	}
	return strings.Join(order, ", ")
}

func normalizeKeywords(s string) string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' }) {
		part = strings.TrimSpace(bulletPattern.ReplaceAllString(part, ""))
		if part != "" {
			out = append(out, part)
		}
		if len(out) == KeywordCount {
			break
		}
	}
	return strings.Join(out, ", ")
}

func isNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '-' {
			return false
		}
	}
	return true
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
