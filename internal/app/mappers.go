package app

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"pulse/internal/domain"
)

/********** alias registries (single source of truth) **********/

var activityAliases = map[string][]string{
	"id":           {"id", "event_id", "eventId", "guid", "uid"},
	"title":        {"title", "name", "event_name", "eventName"},
	"category":     {"category", "type", "event_type", "kind", "ev.type"},
	"venue":        {"venue_name", "venueName", "venue.name", "venue", "location_name", "place", "ev.location"},
	"address":      {"address", "venue.address", "location.address", "street_address", "full_address"},
	"neighborhood": {"neighborhood", "neighbourhood", "venue.neighborhood", "area", "district", "location.neighborhood"},
	"start":        {"start_time", "startTime", "starts_at", "start", "date", "ev.startdate", "published"},
	"end":          {"end_time", "endTime", "ends_at", "end", "ev.enddate"},
	"price":        {"price_range", "priceRange", "price", "cost", "ticket_price"},
	"rating":       {"rating_score", "ratingScore", "rating", "score", "rating.value"},
	"url":          {"url", "link", "website", "event_url"},
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	if v, ok := m[path]; ok {
		return v
	}
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "". Numbers are formatted without a fraction when whole.
func lookupStr(m map[string]any, path string) string {
	switch v := lookupAny(m, path).(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) *string {
	for _, p := range aliases[key] {
		if s := lookupStr(m, p); s != "" {
			return &s
		}
	}
	return nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// getFloatFlexible: number from several paths (float64/int/string like "4,5").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// firstSliceStrings: accept []any or []string; picks strings or {name}.
func firstSliceStrings(m map[string]any, paths ...string) []string {
	for _, k := range paths {
		var out []string
		switch raw := lookupAny(m, k).(type) {
		case []string:
			for _, s := range raw {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		case []any:
			for _, it := range raw {
				switch t := it.(type) {
				case string:
					if t != "" {
						out = append(out, t)
					}
				case map[string]any:
					if n, ok := t["name"].(string); ok && n != "" {
						out = append(out, n)
					}
				}
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// firstTime: time from several paths (RFC3339-ish strings, time.Time, unix seconds).
func firstTime(m map[string]any, paths ...string) *time.Time {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case time.Time:
			t := v.UTC()
			return &t
		case *time.Time:
			if v != nil {
				t := v.UTC()
				return &t
			}
		case float64:
			t := time.Unix(int64(v), 0).UTC()
			return &t
		case string:
			s := strings.TrimSpace(v)
			for _, layout := range timeLayouts {
				if t, err := time.Parse(layout, s); err == nil {
					t = t.UTC()
					return &t
				}
			}
		}
	}
	return nil
}

/********** activity mapper **********/

// priceText renders the price fields of a record as a priceRange descriptor.
// Numbers become "$N"; a numeric min/max pair becomes "$min-$max".
func priceText(r map[string]any) string {
	if free, ok := lookupAny(r, "is_free").(bool); ok && free {
		return "Free"
	}
	lo := getFloatFlexible(r, "price_min", "min_price", "price.min")
	hi := getFloatFlexible(r, "price_max", "max_price", "price.max")
	if lo != nil && hi != nil {
		return fmt.Sprintf("$%d-$%d", int(math.Ceil(*lo)), int(math.Ceil(*hi)))
	}
	for _, p := range activityAliases["price"] {
		switch v := lookupAny(r, p).(type) {
		case float64:
			if v == 0 {
				return "Free"
			}
			return fmt.Sprintf("$%d", int(math.Ceil(v)))
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// syntheticID derives a stable id for listings that carry none.
func syntheticID(source, title string, start time.Time) string {
	sig := strings.Join([]string{source, title, start.UTC().Format(time.RFC3339)}, "|")
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(sig)).String()
}

// sourceID scopes an upstream id to its source; feeds reusing the same ids
// must not overwrite each other's rows.
func sourceID(source, id string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(source+"#"+id)).String()
}

// Column widths of the activities table (characters).
const (
	maxTitle        = 512
	maxVenue        = 255
	maxAddress      = 512
	maxNeighborhood = 128
	maxPrice        = 64
	maxURL          = 1024
)

// clip cuts s to at most n runes.
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n]))
}

func clipPtr(p *string, n int) *string {
	if p == nil {
		return nil
	}
	v := clip(*p, n)
	return &v
}

// mapActivity converts one raw feed record. ok is false when the record lacks
// a title or a parseable start time.
func mapActivity(source string, r map[string]any) (domain.Activity, bool) {
	title := deref(firstNonEmptyAlias(r, activityAliases, "title"))
	start := firstTime(r, activityAliases["start"]...)
	if title == "" || start == nil {
		log.Debug().Str("source", source).Str("title", title).Msg("skipping record without title or start time")
		return domain.Activity{}, false
	}

	cat := deref(firstNonEmptyAlias(r, activityAliases, "category"))
	if cat == "" {
		if cs := firstSliceStrings(r, "categories", "tags"); len(cs) > 0 {
			cat = cs[0]
		}
	}

	a := domain.Activity{
		Title:        clip(title, maxTitle),
		Category:     domain.NormalizeCategory(cat),
		VenueName:    clipPtr(firstNonEmptyAlias(r, activityAliases, "venue"), maxVenue),
		Address:      clipPtr(firstNonEmptyAlias(r, activityAliases, "address"), maxAddress),
		Neighborhood: clipPtr(firstNonEmptyAlias(r, activityAliases, "neighborhood"), maxNeighborhood),
		StartTime:    *start,
		EndTime:      firstTime(r, activityAliases["end"]...),
		PriceRange:   clip(priceText(r), maxPrice),
		RatingScore:  getFloatFlexible(r, activityAliases["rating"]...),
		Source:       source,
		URL:          firstNonEmptyAlias(r, activityAliases, "url"),
	}
	if a.EndTime != nil && a.EndTime.Before(a.StartTime) {
		a.EndTime = nil
	}
	// a truncated link is a broken link
	if a.URL != nil && utf8.RuneCountInString(*a.URL) > maxURL {
		a.URL = nil
	}
	if id := firstNonEmptyAlias(r, activityAliases, "id"); id != nil {
		a.ID = sourceID(source, *id)
	} else {
		a.ID = syntheticID(source, title, a.StartTime)
	}
	return a, true
}

func mapActivities(source string, in []map[string]any) []domain.Activity {
	out := make([]domain.Activity, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, r := range in {
		a, ok := mapActivity(source, r)
		if !ok {
			continue
		}
		// one multi-row upsert cannot carry the same key twice
		if _, dup := seen[a.ID]; dup {
			continue
		}
		seen[a.ID] = struct{}{}
		out = append(out, a)
	}
	return out
}
