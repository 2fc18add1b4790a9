package newslist

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
)

func TestExtractFullArticle(t *testing.T) {
	t.Parallel()
	in := "Here are updates:\n1. **GPT-5 Launch**\n   - **Kaynak:** TechSite\n   - **Yayın Tarihi:** 2024-01-01\n   - **Özet:** A new model was released.\n   - [Haber Linki](https://example.com/a)\n"

	got := Extract(in)
	want := ExtractionResult{
		Intro: "Here are updates:",
		Articles: []ArticleRecord{{
			Title:       "GPT-5 Launch",
			URL:         "https://example.com/a",
			Source:      "TechSite",
			PublishDate: "2024-01-01",
			Summary:     "A new model was released.",
		}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Extract() = %+v, want %+v", got, want)
	}
}

func TestExtractDefaults(t *testing.T) {
	t.Parallel()
	got := Extract("1. **Untitled Item**\n   - [Haber Linki](https://example.com/b)\n")
	if got.Intro != "" {
		t.Fatalf("expected empty intro, got %q", got.Intro)
	}
	if len(got.Articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(got.Articles))
	}
	a := got.Articles[0]
	if a.Source != DefaultSource || a.PublishDate != DefaultPublishDate || a.Summary != "Untitled Item" {
		t.Fatalf("defaults not applied: %+v", a)
	}
}

func TestExtractWithoutIntroKeepsEveryItem(t *testing.T) {
	t.Parallel()
	in := "1. **A**\n   - **Kaynak:** SiteA\n   - [Haber Linki](https://example.com/a)\n" +
		"2. **B**\n   - **Özet:** about b\n   - [Haber Linki](https://example.com/b)\n" +
		"3. **C**\n   - [Haber Linki](https://example.com/c)\n"
	got := Extract(in)
	if got.Intro != "" {
		t.Fatalf("expected empty intro, got %q", got.Intro)
	}
	want := []ArticleRecord{
		{Title: "A", URL: "https://example.com/a", Source: "SiteA", PublishDate: DefaultPublishDate, Summary: "A"},
		{Title: "B", URL: "https://example.com/b", Source: DefaultSource, PublishDate: DefaultPublishDate, Summary: "about b"},
		{Title: "C", URL: "https://example.com/c", Source: DefaultSource, PublishDate: DefaultPublishDate, Summary: "C"},
	}
	if !reflect.DeepEqual(got.Articles, want) {
		t.Fatalf("Extract() articles = %+v, want %+v", got.Articles, want)
	}
}

func TestExtractAndClassifyConcurrently(t *testing.T) {
	t.Parallel()
	in := "Son haberler:\n1. **A**\n   - **Kaynak:** SiteA\n   - **Özet:** a\n   - [Haber Linki](https://example.com/a)\n" +
		"2. **B**\n   - **Yayın Tarihi:** 2024-01-01\n   - [Haber Linki](https://example.com/b)\n"
	wantRes := Extract(in)
	wantCls := Classify(in)
	if len(wantRes.Articles) != 2 || !wantCls.IsNewsList {
		t.Fatalf("unexpected baseline: %+v %+v", wantRes, wantCls)
	}

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if got := Extract(in); !reflect.DeepEqual(got, wantRes) {
					errs <- fmt.Sprintf("Extract() = %+v, want %+v", got, wantRes)
					return
				}
				if got := Classify(in); got != wantCls {
					errs <- fmt.Sprintf("Classify() = %+v, want %+v", got, wantCls)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Fatal(e)
	}
}

func TestExtractDropsBlocksWithoutLink(t *testing.T) {
	t.Parallel()
	in := "Sonuçlar:\n1. **No link here**\n   - **Kaynak:** Site\n2. **Wrong label**\n   - [Link](https://example.com/x)\n"
	got := Extract(in)
	if !got.Empty() {
		t.Fatalf("expected no articles, got %+v", got.Articles)
	}
}

func TestExtractPreservesOrder(t *testing.T) {
	t.Parallel()
	in := "Intro\n\n1. **First**\n   - [Haber Linki](https://example.com/1)\n\n2. **Broken**\n\n3. **Third**\n   - [Haber Linki](https://example.com/3)\n\n4. **Second URL again**\n   - [Haber Linki](https://example.com/1)"
	got := Extract(in)
	var titles []string
	for _, a := range got.Articles {
		titles = append(titles, a.Title)
	}
	want := []string{"First", "Third", "Second URL again"}
	if !reflect.DeepEqual(titles, want) {
		t.Fatalf("titles = %v, want %v", titles, want)
	}
	if got.Articles[0].URL != got.Articles[2].URL {
		t.Fatalf("duplicate urls should be kept, got %q and %q", got.Articles[0].URL, got.Articles[2].URL)
	}
}

func TestExtractFieldsInAnyOrder(t *testing.T) {
	t.Parallel()
	in := "1. **Reordered**\n   - [Haber Linki](https://example.com/r)\n   - **Özet:** Summary first\n   - **Yayın Tarihi:** 3 Mart 2024\n   - **Kaynak:** Wire\n"
	got := Extract(in)
	if len(got.Articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(got.Articles))
	}
	a := got.Articles[0]
	if a.Summary != "Summary first" || a.PublishDate != "3 Mart 2024" || a.Source != "Wire" {
		t.Fatalf("unexpected fields: %+v", a)
	}
}

func TestExtractMultilineSummaryStopsAtLinkMarker(t *testing.T) {
	t.Parallel()
	in := "1. **Long**\n   - **Özet:** First line\n     second line\n   - **Link:** [Haber Linki](https://example.com/l)"
	got := Extract(in)
	if len(got.Articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(got.Articles))
	}
	want := "First line\n     second line"
	if got.Articles[0].Summary != want {
		t.Fatalf("summary = %q, want %q", got.Articles[0].Summary, want)
	}
}

func TestExtractIsIdempotent(t *testing.T) {
	t.Parallel()
	inputs := []string{
		"",
		"plain",
		"Intro\n1. **A**\n   - [Haber Linki](https://a)\n2. **B**\n   - **Özet:** b\n   - [Haber Linki](https://b)",
		"1. **\n2. ****\n3. [Haber Linki](",
	}
	for _, in := range inputs {
		if a, b := Extract(in), Extract(in); !reflect.DeepEqual(a, b) {
			t.Fatalf("Extract(%q) not deterministic: %+v vs %+v", in, a, b)
		}
	}
}

func TestExtractAdversarialInput(t *testing.T) {
	t.Parallel()
	inputs := []string{
		"",
		"\x00\x01",
		string([]byte{0xff, 0xfe, '1', '.', ' ', '*', '*'}),
		strings.Repeat("1. **", 1000),
		"1. ****\n   - [Haber Linki]()",
	}
	for _, in := range inputs {
		got := Extract(in)
		if !got.Empty() {
			t.Fatalf("Extract(%q) expected no articles, got %+v", in, got.Articles)
		}
	}
}

func TestExtractInvalidUTF8YieldsEmptyResult(t *testing.T) {
	t.Parallel()
	in := "Intro\n1. **Bad \xff**\n   - [Haber Linki](https://example.com)"
	got := Extract(in)
	if got.Intro != "" || !got.Empty() {
		t.Fatalf("expected empty result, got %+v", got)
	}
}

func TestFieldFunctions(t *testing.T) {
	t.Parallel()
	block := "**Title**\n   - **Kaynak:**   Source Name  \n   - **Yayın Tarihi:**\n   - [Haber Linki]( https://example.com/t )\n"
	if v, ok := Title(block); !ok || v != "Title" {
		t.Fatalf("Title = %q, %v", v, ok)
	}
	if v, ok := Source(block); !ok || v != "Source Name" {
		t.Fatalf("Source = %q, %v", v, ok)
	}
	if v, ok := PublishDate(block); ok {
		t.Fatalf("PublishDate should be missing, got %q", v)
	}
	if v, ok := URL(block); !ok || v != "https://example.com/t" {
		t.Fatalf("URL = %q, %v", v, ok)
	}
	if _, ok := Summary(block); ok {
		t.Fatalf("Summary should be missing")
	}
}

func TestIntroWithoutListItem(t *testing.T) {
	t.Parallel()
	intro, rest := Intro("nothing to see")
	if intro != "" || rest != "nothing to see" {
		t.Fatalf("Intro() = %q, %q", intro, rest)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	t.Parallel()
	articles := []ArticleRecord{
		{Title: "One", URL: "https://example.com/1", Source: "A", PublishDate: "2024-05-01", Summary: "Sum one."},
		{Title: "Two", URL: "https://example.com/2", Source: "B", PublishDate: "2024-05-02", Summary: ""},
	}
	text := Format("Son 3 gün içinde öne çıkan haberler şunlardır:", articles)
	if !IsNewsList(text) {
		t.Fatalf("formatted text should classify as a news list")
	}
	got := Extract(text)
	if got.Intro != "Son 3 gün içinde öne çıkan haberler şunlardır:" {
		t.Fatalf("intro = %q", got.Intro)
	}
	want := []ArticleRecord{
		articles[0],
		{Title: "Two", URL: "https://example.com/2", Source: "B", PublishDate: "2024-05-02", Summary: NoSummary},
	}
	if !reflect.DeepEqual(got.Articles, want) {
		t.Fatalf("round trip = %+v, want %+v", got.Articles, want)
	}
}
