package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeCompleter struct {
	out    string
	err    error
	system string
	user   string
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string) (string, error) {
	f.system, f.user = system, user
	return f.out, f.err
}

func TestLeadSentences(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		text     string
		maxWords int
		want     string
	}{
		{name: "short text kept", text: "One two.  Three.", maxWords: 10, want: "One two. Three."},
		{name: "whole sentences", text: "One two. Three four. Five six seven.", maxWords: 5, want: "One two. Three four."},
		{name: "no sentence end", text: "one two three four five six", maxWords: 3, want: "one two three…"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := LeadSentences(tt.text, tt.maxWords); got != tt.want {
				t.Fatalf("LeadSentences() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSummarizerWithModel(t *testing.T) {
	t.Parallel()
	f := &fakeCompleter{out: "  Kısa özet.  "}
	got, err := Summarizer{LLM: f}.Summarize(context.Background(), "Makale metni.")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != "Kısa özet." {
		t.Fatalf("Summarize() = %q", got)
	}
	if !strings.Contains(f.user, "Makale metni.") || f.system != summaryPrompt {
		t.Fatalf("unexpected prompt %q / %q", f.system, f.user)
	}
}

func TestSummarizerFallbacks(t *testing.T) {
	t.Parallel()
	text := "First sentence here. Second one."
	got, err := Summarizer{}.Summarize(context.Background(), text)
	if err != nil || got != text {
		t.Fatalf("no model: %q, %v", got, err)
	}
	got, err = Summarizer{LLM: &fakeCompleter{err: ErrDisabled}}.Summarize(context.Background(), text)
	if err != nil || got != text {
		t.Fatalf("disabled model: %q, %v", got, err)
	}
	if _, err := (Summarizer{LLM: &fakeCompleter{err: errors.New("boom")}}).Summarize(context.Background(), text); err == nil {
		t.Fatalf("expected model error")
	}
	if _, err := (Summarizer{}).Summarize(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty text")
	}
}
