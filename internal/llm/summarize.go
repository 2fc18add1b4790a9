package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const summaryPrompt = "Aşağıdaki makale metnini analiz et ve yaklaşık 50-75 kelimelik kısa ve öz bir özetini **tamamen Türkçe** olarak yaz."

// maxPromptRunes bounds the article text sent for summarising.
const maxPromptRunes = 12000

// Summarizer writes short Turkish article summaries. Without a model it falls back
// to the leading sentences of the text.
type Summarizer struct {
	LLM Completer
}

// Summarize returns a summary of text.
func (s Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("empty article text")
	}
	if s.LLM == nil {
		return LeadSentences(text, 60), nil
	}
	r := []rune(text)
	if len(r) > maxPromptRunes {
		text = string(r[:maxPromptRunes])
	}
	out, err := s.LLM.Complete(ctx, summaryPrompt, "--- MAKALE METNİ ---\n"+text)
	if errors.Is(err, ErrDisabled) {
		return LeadSentences(text, 60), nil
	}
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// LeadSentences returns whole leading sentences of text totalling at most maxWords
// words. The first sentence is cut at maxWords when it alone is longer.
func LeadSentences(text string, maxWords int) string {
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return strings.Join(words, " ")
	}
	var (
		out  []string
		last int
	)
	for i, w := range words[:maxWords] {
		out = append(out, w)
		if endsSentence(w) {
			last = i + 1
		}
	}
	if last == 0 {
		return strings.Join(out, " ") + "…"
	}
	return strings.Join(out[:last], " ")
}

func endsSentence(w string) bool {
	w = strings.TrimRightFunc(w, func(r rune) bool { return r == '"' || r == '\'' || r == ')' || r == '”' })
	if w == "" {
		return false
	}
	last := []rune(w)[len([]rune(w))-1]
	return (last == '.' || last == '!' || last == '?') && !unicode.IsDigit([]rune(w)[0])
}
