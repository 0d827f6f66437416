package eventsapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"pulse/internal/adapters/eventsapi"
	"pulse/internal/domain"
)

func TestClient_Fetch_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/events" || r.URL.Query().Get("from") == "" || r.Header.Get("X-API-Key") != "test-key" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(500)
		default:
			w.WriteHeader(200)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"events": []map[string]any{{"id": "e1", "name": "Yoga at Red Rocks"}},
			})
		}
	}))
	defer ts.Close()

	cl, err := eventsapi.New(ts.URL+"/", "test-key", 100) // high RPS for tests
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := cl.Fetch(ctx, time.Now(), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 || got[0]["id"] != "e1" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClient_Fetch_BareArray(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"a"},{"id":"b"}]`))
	}))
	defer ts.Close()

	cl, _ := eventsapi.New(ts.URL, "", 100)
	got, err := cl.Fetch(context.Background(), time.Now(), time.Now())
	if err != nil || len(got) != 2 {
		t.Fatalf("got %+v, %v", got, err)
	}
}

func TestClient_Fetch_404(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	cl, err := eventsapi.New(ts.URL, "test-key", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err = cl.Fetch(ctx, time.Now(), time.Now())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNew_RequiresBase(t *testing.T) {
	if _, err := eventsapi.New("", "k", 1); err == nil {
		t.Fatalf("expected error for empty base")
	}
}

func TestClient_Fetch_RateLimitedHonoursRetryAfter(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"x"}]}`))
	}))
	defer ts.Close()

	cl, _ := eventsapi.New(ts.URL, "", 100)
	got, err := cl.Fetch(context.Background(), time.Now(), time.Now())
	if err != nil || len(got) != 1 {
		t.Fatalf("got %+v, %v", got, err)
	}
	if atomic.LoadInt32(&hits) != 2 {
		t.Fatalf("expected exactly one retry, got %d calls", hits)
	}
}

func TestClient_Fetch_UnauthorizedIsTerminal(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	cl, _ := eventsapi.New(ts.URL, "bad", 100)
	_, err := cl.Fetch(context.Background(), time.Now(), time.Now())
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if hits != 1 {
		t.Fatalf("401 must not be retried, got %d calls", hits)
	}
}

func TestClient_WithCity(t *testing.T) {
	var city string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		city = r.URL.Query().Get("city")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	cl, _ := eventsapi.New(ts.URL, "", 100, eventsapi.WithCity("boulder"), eventsapi.WithHTTPClient(ts.Client()))
	if _, err := cl.Fetch(context.Background(), time.Now(), time.Now()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if city != "boulder" {
		t.Fatalf("city = %q", city)
	}
}
