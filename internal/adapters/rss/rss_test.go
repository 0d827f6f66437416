package rss_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pulse/internal/adapters/rss"
	"pulse/internal/domain"
)

const eventFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:ev="http://purl.org/rss/1.0/modules/event/">
<channel>
  <title>Denver Happenings</title>
  <link>https://happenings.example</link>
  <description>events</description>
  <item>
    <title>Jazz Night</title>
    <link>https://happenings.example/jazz</link>
    <guid>jazz-2026-10-17</guid>
    <category>Live Music</category>
    <ev:startdate>2026-10-17T20:00:00-06:00</ev:startdate>
    <ev:location>Dazzle</ev:location>
    <ev:type>concert</ev:type>
  </item>
  <item>
    <title>Winter Market</title>
    <link>https://happenings.example/market</link>
    <ev:startdate>2026-12-05T10:00:00-07:00</ev:startdate>
  </item>
  <item>
    <title>Gallery Opening</title>
    <link>https://happenings.example/gallery</link>
    <pubDate>Sat, 18 Oct 2026 18:00:00 -0600</pubDate>
  </item>
</channel>
</rss>`

func TestFeed_FetchFiltersWindowAndReadsEventModule(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(eventFeed))
	}))
	defer ts.Close()

	from := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	to := from.Add(7 * 24 * time.Hour)
	recs, err := rss.New(ts.URL).Fetch(context.Background(), from, to)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records in window, got %d: %+v", len(recs), recs)
	}
	jazz := recs[0]
	if jazz["title"] != "Jazz Night" || jazz["guid"] != "jazz-2026-10-17" {
		t.Fatalf("unexpected record: %+v", jazz)
	}
	if jazz["ev.location"] != "Dazzle" || jazz["ev.type"] != "concert" {
		t.Fatalf("event module not read: %+v", jazz)
	}
	if _, ok := recs[1]["published"].(time.Time); !ok {
		t.Fatalf("expected published fallback: %+v", recs[1])
	}
}

func TestFeed_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	_, err := rss.New(ts.URL).Fetch(context.Background(), time.Time{}, time.Now())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
