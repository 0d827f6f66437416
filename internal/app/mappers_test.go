package app

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"pulse/internal/domain"
)

func TestMapActivity_NestedAndFallbacks(t *testing.T) {
	rec := map[string]any{
		"title":      "Pumpkin Patch",
		"categories": []any{"Seasonal", "Family"},
		"venue":      map[string]any{"name": "Chatfield Farms", "address": "8500 W Deer Creek Canyon Rd", "neighborhood": "Littleton"},
		"starts_at":  "2026-10-18 10:00:00",
		"ends_at":    "2026-10-18 09:00:00",
		"price_min":  5.0,
		"price_max":  12.0,
		"rating":     "4,4",
		"link":       "https://example.org/pumpkins",
	}
	a, ok := mapActivity("rss:botanic", rec)
	if !ok {
		t.Fatalf("expected record to map")
	}
	if a.Category != domain.CategorySeasonal {
		t.Fatalf("category = %s", a.Category)
	}
	if deref(a.VenueName) != "Chatfield Farms" || deref(a.Neighborhood) != "Littleton" || deref(a.Address) == "" {
		t.Fatalf("venue fields: %+v", a)
	}
	if a.PriceRange != "$5-$12" {
		t.Fatalf("price = %q", a.PriceRange)
	}
	if a.RatingScore == nil || *a.RatingScore != 4.4 {
		t.Fatalf("rating = %v", a.RatingScore)
	}
	if a.EndTime != nil {
		t.Fatalf("end before start should be dropped, got %v", a.EndTime)
	}
	if a.URL == nil || *a.URL != "https://example.org/pumpkins" {
		t.Fatalf("url = %v", a.URL)
	}
}

func TestMapActivity_SyntheticIDIsStable(t *testing.T) {
	rec := map[string]any{"title": "Open Mic", "start": "2026-10-17T19:00:00Z"}
	a1, _ := mapActivity("src", rec)
	a2, _ := mapActivity("src", rec)
	a3, _ := mapActivity("other", rec)
	if a1.ID == "" || a1.ID != a2.ID {
		t.Fatalf("ids not stable: %q %q", a1.ID, a2.ID)
	}
	if a1.ID == a3.ID {
		t.Fatalf("ids should differ by source")
	}
	if a1.Category != domain.CategoryOther || a1.PriceRange != "" {
		t.Fatalf("unexpected defaults: %+v", a1)
	}
}

func TestMapActivities_DropsDuplicatesAndInvalid(t *testing.T) {
	in := []map[string]any{
		{"id": 7.0, "title": "A", "start_time": 1792000000.0},
		{"id": "7", "title": "A again", "start_time": "2026-10-17"},
		{"title": "", "start_time": "2026-10-17"},
		{"title": "bad time", "start_time": "next tuesday"},
	}
	out := mapActivities("s", in)
	if len(out) != 1 || out[0].ID != sourceID("s", "7") {
		t.Fatalf("unexpected: %+v", out)
	}
	if !out[0].StartTime.Equal(time.Unix(1792000000, 0)) {
		t.Fatalf("unix start = %v", out[0].StartTime)
	}
}

func TestMapActivity_SameUpstreamIDFromTwoSourcesDoNotCollide(t *testing.T) {
	rec := map[string]any{"id": "1", "title": "Trivia", "start": "2026-10-17T19:00:00Z"}
	a, _ := mapActivity("rss:https://a.example/feed", rec)
	b, _ := mapActivity("rss:https://b.example/feed", rec)
	if a.ID == b.ID {
		t.Fatalf("ids collide across sources: %q", a.ID)
	}
	again, _ := mapActivity("rss:https://a.example/feed", rec)
	if again.ID != a.ID {
		t.Fatalf("id not stable: %q vs %q", again.ID, a.ID)
	}
	if len(a.ID) > 128 {
		t.Fatalf("id too long for the key column: %d", len(a.ID))
	}
}

func TestMapActivity_ClipsFieldsToColumnWidths(t *testing.T) {
	long := func(n int) string { return strings.Repeat("é", n) }
	rec := map[string]any{
		"title":        long(600),
		"venue_name":   long(300),
		"address":      long(600),
		"neighborhood": long(200),
		"price":        "General admission $25, VIP $60, table for four $240 (plus fees), students $15",
		"url":          "https://example.org/" + strings.Repeat("a", 1100),
		"start":        "2026-10-17T19:00:00Z",
	}
	a, ok := mapActivity("src", rec)
	if !ok {
		t.Fatalf("expected record to map")
	}
	for name, tc := range map[string]struct {
		got string
		max int
	}{
		"title":        {a.Title, maxTitle},
		"venue":        {deref(a.VenueName), maxVenue},
		"address":      {deref(a.Address), maxAddress},
		"neighborhood": {deref(a.Neighborhood), maxNeighborhood},
		"price":        {a.PriceRange, maxPrice},
	} {
		if n := utf8.RuneCountInString(tc.got); n == 0 || n > tc.max {
			t.Fatalf("%s: %d runes, limit %d", name, n, tc.max)
		}
	}
	if !strings.HasPrefix(a.PriceRange, "General admission $25") {
		t.Fatalf("price = %q", a.PriceRange)
	}
	if a.URL != nil {
		t.Fatalf("over-long url should be dropped, got %d bytes", len(*a.URL))
	}
}

func TestPriceText_RoundsPairUp(t *testing.T) {
	if got := priceText(map[string]any{"price_min": 10.0, "price_max": 25.5}); got != "$10-$26" {
		t.Fatalf("pair = %q", got)
	}
	if got := priceText(map[string]any{"price": 25.5}); got != "$26" {
		t.Fatalf("single = %q", got)
	}
}
