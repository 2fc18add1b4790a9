package ingest

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/mohammad-safakhou/novachat/config"
)

// Entry is one feed item waiting to be ingested.
type Entry struct {
	Title     string
	URL       string
	Source    string
	Published time.Time
}

// FeedReader lists feed entries.
type FeedReader interface {
	Entries(ctx context.Context, src config.FeedSource, max int) ([]Entry, error)
}

// RSSReader reads RSS, Atom and JSON feeds.
type RSSReader struct {
	Client    *http.Client
	UserAgent string
	now       func() time.Time
}

// NewRSSReader returns a reader using client for feed requests.
func NewRSSReader(client *http.Client, userAgent string) *RSSReader {
	return &RSSReader{Client: client, UserAgent: userAgent, now: time.Now}
}

// Entries returns up to max of the newest entries with a link. Entries without a
// date are stamped with the current time.
func (r *RSSReader) Entries(ctx context.Context, src config.FeedSource, max int) ([]Entry, error) {
	fp := gofeed.NewParser()
	if r.Client != nil {
		fp.Client = r.Client
	}
	if r.UserAgent != "" {
		fp.UserAgent = r.UserAgent
	}
	feed, err := fp.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.URL, err)
	}
	return r.entries(feed, src, max), nil
}

func (r *RSSReader) entries(feed *gofeed.Feed, src config.FeedSource, max int) []Entry {
	now := time.Now
	if r.now != nil {
		now = r.now
	}
	out := make([]Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil || strings.TrimSpace(item.Link) == "" {
			continue
		}
		e := Entry{
			Title:  strings.TrimSpace(item.Title),
			URL:    CanonicalURL(item.Link),
			Source: src.Name,
		}
		switch {
		case item.PublishedParsed != nil:
			e.Published = item.PublishedParsed.UTC()
		case item.UpdatedParsed != nil:
			e.Published = item.UpdatedParsed.UTC()
		default:
			e.Published = now().UTC()
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Published.After(out[j].Published) })
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}
