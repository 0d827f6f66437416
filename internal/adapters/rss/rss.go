// Package rss reads event listings from RSS/Atom feeds, including the RSS
// event module (xmlns:ev="http://purl.org/rss/1.0/modules/event/").
package rss

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"pulse/internal/adapters/observability"
	"pulse/internal/domain"
)

type Feed struct {
	url    string
	hc     *http.Client
	parser *gofeed.Parser
}

func New(url string) *Feed {
	return &Feed{
		url:    url,
		hc:     &http.Client{Timeout: 15 * time.Second},
		parser: gofeed.NewParser(),
	}
}

func (f *Feed) Name() string { return "rss:" + f.url }

// Fetch returns one raw record per feed item whose start falls inside
// [from, to]. Items with no usable date are passed through; the mapper drops them.
func (f *Feed) Fetch(ctx context.Context, from, to time.Time) ([]map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "pulse-ingestor/1.0")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	start := time.Now()
	resp, err := f.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("rss", f.url, 0, time.Since(start))
		return nil, err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("rss", f.url, resp.StatusCode, time.Since(start))

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusGone:
		return nil, domain.ErrNotFound
	case http.StatusUnauthorized:
		return nil, domain.ErrUnauthorized
	case http.StatusForbidden:
		return nil, domain.ErrForbidden
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	feed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	out := make([]map[string]any, 0, len(feed.Items))
	for _, it := range feed.Items {
		rec := itemRecord(it)
		if t, ok := startOf(rec); ok && (t.Before(from) || t.After(to)) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// itemRecord flattens an item into the alias keys the app mappers understand.
// Event-module fields are stored as "ev.<name>".
func itemRecord(it *gofeed.Item) map[string]any {
	rec := map[string]any{}
	for k, v := range it.Custom {
		rec[k] = v
	}
	if it.GUID != "" {
		rec["guid"] = it.GUID
	}
	rec["title"] = strings.TrimSpace(it.Title)
	if it.Link != "" {
		rec["link"] = it.Link
	}
	if len(it.Categories) > 0 {
		rec["categories"] = it.Categories
	}
	if it.PublishedParsed != nil {
		rec["published"] = *it.PublishedParsed
	} else if it.UpdatedParsed != nil {
		rec["published"] = *it.UpdatedParsed
	}
	for name, exts := range it.Extensions["ev"] {
		if len(exts) > 0 && strings.TrimSpace(exts[0].Value) != "" {
			rec["ev."+name] = strings.TrimSpace(exts[0].Value)
		}
	}
	return rec
}

func startOf(rec map[string]any) (time.Time, bool) {
	if s, ok := rec["ev.startdate"].(string); ok {
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	if t, ok := rec["published"].(time.Time); ok {
		return t, true
	}
	return time.Time{}, false
}
