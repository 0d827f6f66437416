package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"pulse/internal/app"
	"pulse/internal/domain"
)

// ---- fakes ----

type fakeRepo struct {
	acts      []domain.Activity
	listCalls int
	lastQuery domain.ActivityQuery
	upserted  []domain.Activity
	misses    []string
	saved     []domain.SavedPlan
	upsertErr error
}

func (f *fakeRepo) UpsertActivities(ctx context.Context, as []domain.Activity) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, as...)
	return nil
}
func (f *fakeRepo) LogMiss(ctx context.Context, source string, status int, reason string) error {
	f.misses = append(f.misses, source)
	return nil
}
func (f *fakeRepo) SavePlan(ctx context.Context, sp domain.SavedPlan) error {
	f.saved = append(f.saved, sp)
	return nil
}
func (f *fakeRepo) ListActivities(ctx context.Context, q domain.ActivityQuery) ([]domain.Activity, error) {
	f.listCalls++
	f.lastQuery = q
	return f.acts, nil
}
func (f *fakeRepo) ListSavedPlans(ctx context.Context, userID string, limit int) ([]domain.SavedPlan, error) {
	var out []domain.SavedPlan
	for _, sp := range f.saved {
		if sp.UserID == userID {
			out = append(out, sp)
		}
	}
	return out, nil
}

// fakeCache stores JSON so hits decode like the real adapter does.
type fakeCache struct {
	store   map[string][]byte
	evicted []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}
func (c *fakeCache) DelPrefix(ctx context.Context, prefix string) error {
	c.evicted = append(c.evicted, prefix)
	for k := range c.store {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(c.store, k)
		}
	}
	return nil
}

// ---- fixtures ----

var day = time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)

func activity(id string, cat domain.Category, hour int, price string, rating float64) domain.Activity {
	return domain.Activity{
		ID:          id,
		Title:       "Event " + id,
		Category:    cat,
		StartTime:   day.Add(time.Duration(hour) * time.Hour),
		PriceRange:  price,
		RatingScore: &rating,
	}
}

func dateNightPool() []domain.Activity {
	return []domain.Activity{
		activity("dinner", domain.CategoryRestaurant, 18, "$30-$60", 4.7),
		activity("show", domain.CategoryLiveMusic, 20, "$20", 4.5),
		activity("drinks", domain.CategoryBars, 22, "$12", 4.1),
		activity("hike", domain.CategoryOutdoors, 9, "Free", 4.9),
	}
}

// ---- tests ----

func TestGenerate_CacheMissThenHit(t *testing.T) {
	repo := &fakeRepo{acts: dateNightPool()}
	cache := &fakeCache{}
	q := app.NewPlanService(repo, cache, 10*time.Minute)
	req := domain.PlanRequest{UserID: "u1", Mode: domain.CompanionDate, From: day, To: day.Add(24 * time.Hour)}

	res, err := q.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(res.Plans) != 3 || res.Message != "" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Plans[0].Name != "Date Night" {
		t.Fatalf("expected date night label, got %q", res.Plans[0].Name)
	}

	// Mutate repo to ensure second read indeed comes from cache
	repo.acts = nil

	res2, err := q.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if repo.listCalls != 1 {
		t.Fatalf("expected one repo call, got %d", repo.listCalls)
	}
	if len(res2.Plans) != 3 {
		t.Fatalf("expected cached pool to produce 3 plans, got %d", len(res2.Plans))
	}
	if !res2.Plans[0].Activities[0].StartTime.Equal(res.Plans[0].Activities[0].StartTime) {
		t.Fatalf("cached plan differs: %+v vs %+v", res2.Plans[0], res.Plans[0])
	}
}

func TestGenerate_NoPlansCarriesMessage(t *testing.T) {
	q := app.NewPlanService(&fakeRepo{}, &fakeCache{}, time.Minute)
	res, err := q.Generate(context.Background(), domain.PlanRequest{Mode: domain.CompanionSolo, From: day, To: day.Add(time.Hour)})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if res.Plans == nil || len(res.Plans) != 0 {
		t.Fatalf("expected empty, non-nil plans, got %#v", res.Plans)
	}
	if res.Message == "" {
		t.Fatalf("expected explanatory message")
	}
}

func TestGenerate_RejectsInvertedWindow(t *testing.T) {
	q := app.NewPlanService(&fakeRepo{}, &fakeCache{}, time.Minute)
	_, err := q.Generate(context.Background(), domain.PlanRequest{Mode: domain.CompanionSolo, From: day, To: day.Add(-time.Hour)})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestListActivities_FilteredBypassesCache(t *testing.T) {
	repo := &fakeRepo{acts: dateNightPool()}
	cache := &fakeCache{}
	q := app.NewPlanService(repo, cache, time.Minute)
	art := domain.CategoryArt

	if _, err := q.ListActivities(context.Background(), domain.ActivityQuery{From: day, To: day.Add(time.Hour), Category: &art}); err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(cache.store) != 0 {
		t.Fatalf("filtered query should not populate the cache")
	}
	if repo.lastQuery.Category == nil || *repo.lastQuery.Category != art {
		t.Fatalf("category not forwarded: %+v", repo.lastQuery)
	}
}

func TestSavePlan_AssignsIDAndValidates(t *testing.T) {
	repo := &fakeRepo{acts: dateNightPool()}
	q := app.NewPlanService(repo, &fakeCache{}, time.Minute)
	ctx := context.Background()

	res, _ := q.Generate(ctx, domain.PlanRequest{Mode: domain.CompanionDate, From: day, To: day.Add(24 * time.Hour)})
	sp, err := q.SavePlan(ctx, "u1", res.Plans[0])
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(sp.ID) != 36 || sp.UserID != "u1" || sp.CreatedAt.IsZero() {
		t.Fatalf("unexpected saved plan: %+v", sp)
	}

	if _, err := q.SavePlan(ctx, "u1", domain.GeneratedPlan{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty plan, got %v", err)
	}
	if _, err := q.SavePlan(ctx, "", res.Plans[0]); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	list, err := q.ListSavedPlans(ctx, "u1", 0)
	if err != nil || len(list) != 1 || list[0].ID != sp.ID {
		t.Fatalf("unexpected list: %+v, %v", list, err)
	}
}
