// Package eventsapi is a client for JSON event listing APIs that expose
// GET {base}/events?from=...&to=... returning either an array or {"events": [...]}.
package eventsapi

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"pulse/internal/adapters/observability"
	"pulse/internal/domain"
)

const maxAttempts = 4

// retryable lists statuses worth another attempt after a pause.
var retryable = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// statusErrs maps terminal upstream statuses onto domain sentinels.
var statusErrs = map[int]error{
	http.StatusNotFound:     domain.ErrNotFound,
	http.StatusUnauthorized: domain.ErrUnauthorized,
	http.StatusForbidden:    domain.ErrForbidden,
}

type Client struct {
	base string
	city string
	key  string
	hc   *http.Client
	rl   *rate.Limiter
}

type Option func(*Client)

// WithCity scopes listings to one metro area. Defaults to "denver".
func WithCity(city string) Option { return func(c *Client) { c.city = city } }

// WithHTTPClient swaps the transport, mostly for tests.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.hc = hc } }

func New(base, key string, rps int, opts ...Option) (*Client, error) {
	if strings.TrimSpace(base) == "" {
		return nil, errors.New("events API base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	c := &Client{
		base: strings.TrimRight(base, "/"),
		city: "denver",
		key:  key,
		hc:   &http.Client{Timeout: 20 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Client) Name() string { return "api:" + c.base }

// Fetch lists events starting inside [from, to].
func (c *Client) Fetch(ctx context.Context, from, to time.Time) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("from", from.UTC().Format(time.RFC3339))
	q.Set("to", to.UTC().Format(time.RFC3339))
	if c.city != "" {
		q.Set("city", c.city)
	}

	var raw json.RawMessage
	if err := c.get(ctx, c.base+"/events?"+q.Encode(), &raw); err != nil {
		return nil, err
	}
	return decodeEvents(raw)
}

// decodeEvents accepts a bare array or an envelope with "events", "data" or "items".
func decodeEvents(raw json.RawMessage) ([]map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var arr []map[string]any
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr, nil
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	for _, k := range []string{"events", "data", "items"} {
		if inner, ok := env[k]; ok {
			if err := json.Unmarshal(inner, &arr); err != nil {
				return nil, fmt.Errorf("decode events.%s: %w", k, err)
			}
			return arr, nil
		}
	}
	return nil, errors.New("decode events: no events array in response")
}

// ---- Internals ----

// get waits on the client-side limiter, then makes up to maxAttempts round
// trips, pausing between retryable failures.
func (c *Client) get(ctx context.Context, rawURL string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		wait, err := c.once(ctx, rawURL, out)
		if err == nil {
			return nil
		}
		if wait < 0 {
			return err
		}
		lastErr = err
		if wait == 0 {
			wait = backoff(i)
		}
		if i == maxAttempts-1 || !sleepCtx(ctx, wait) {
			break
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return lastErr
}

// once performs a single round trip. A negative wait marks err as terminal;
// zero or more means the caller may retry after that long (0 = use backoff).
func (c *Client) once(ctx context.Context, rawURL string, out any) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return -1, err
	}
	if c.key != "" {
		req.Header.Set("X-API-Key", c.key)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "pulse-ingestor/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("eventsapi", "/events", 0, time.Since(start))
		if ctx.Err() != nil {
			return -1, ctx.Err()
		}
		return 0, err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("eventsapi", "/events", resp.StatusCode, time.Since(start))

	switch code := resp.StatusCode; {
	case code == http.StatusOK:
		return -1, json.NewDecoder(resp.Body).Decode(out)
	case code == http.StatusNoContent:
		_, _ = io.Copy(io.Discard, resp.Body)
		return -1, nil
	case statusErrs[code] != nil:
		return -1, statusErrs[code]
	case retryable[code]:
		return retryAfter(resp), fmt.Errorf("remote %d", code)
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return -1, fmt.Errorf("bad status %d: %s", code, strings.TrimSpace(string(b)))
	}
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns 200ms, 400ms, 800ms... plus up to 50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
