package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"pulse/internal/adapters/observability"
	"pulse/internal/domain"
	"pulse/internal/planner"
)

// ActivitiesKeyPrefix namespaces cached candidate pools; the ingestor evicts it.
const ActivitiesKeyPrefix = "activities:"

const noPlansMessage = "Not enough activities in this date range to build a plan. Try widening your dates."

// maxWindow bounds how much of the calendar one request may pull into memory.
const maxWindow = 31 * 24 * time.Hour

type PlanService struct {
	repo     domain.ActivityRepository
	cache    domain.Cache
	cacheTTL time.Duration
	now      func() time.Time
}

func NewPlanService(r domain.ActivityRepository, c domain.Cache, ttl time.Duration) *PlanService {
	return &PlanService{repo: r, cache: c, cacheTTL: ttl, now: time.Now}
}

// Generate loads the candidates inside the request window and runs the planner.
// Zero plans is a normal outcome and comes back with an explanatory message.
func (s *PlanService) Generate(ctx context.Context, req domain.PlanRequest) (domain.PlanResult, error) {
	if err := validateWindow(req.From, req.To); err != nil {
		return domain.PlanResult{}, err
	}
	cands, err := s.activities(ctx, req.From, req.To)
	if err != nil {
		return domain.PlanResult{}, fmt.Errorf("load candidates: %w", err)
	}

	plans := planner.GeneratePlans(cands, req.Mode, req.Archetype)
	for _, p := range plans {
		observability.ObservePlan(string(p.Strategy))
	}
	log.Debug().
		Str("user", req.UserID).
		Str("mode", string(req.Mode)).
		Int("candidates", len(cands)).
		Int("plans", len(plans)).
		Msg("plans generated")

	out := domain.PlanResult{Plans: plans}
	if len(plans) == 0 {
		observability.ObserveEmptyPlanRequest()
		out.Message = noPlansMessage
	}
	return out, nil
}

// ListActivities serves the unfiltered window from the shared cache; category
// and limit filters go straight to the repository.
func (s *PlanService) ListActivities(ctx context.Context, q domain.ActivityQuery) ([]domain.Activity, error) {
	if err := validateWindow(q.From, q.To); err != nil {
		return nil, err
	}
	if q.Category == nil && q.Limit <= 0 {
		return s.activities(ctx, q.From, q.To)
	}
	return s.repo.ListActivities(ctx, q)
}

func (s *PlanService) SavePlan(ctx context.Context, userID string, p domain.GeneratedPlan) (domain.SavedPlan, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.SavedPlan{}, domain.ErrUnauthorized
	}
	if n := len(p.Activities); n < 2 || n > 3 {
		return domain.SavedPlan{}, fmt.Errorf("%w: a plan needs 2 or 3 activities, got %d", domain.ErrInvalidInput, n)
	}
	sp := domain.SavedPlan{
		ID:        uuid.NewString(),
		UserID:    userID,
		Plan:      p,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.repo.SavePlan(ctx, sp); err != nil {
		return domain.SavedPlan{}, fmt.Errorf("save plan: %w", err)
	}
	return sp, nil
}

func (s *PlanService) ListSavedPlans(ctx context.Context, userID string, limit int) ([]domain.SavedPlan, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrUnauthorized
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListSavedPlans(ctx, userID, limit)
}

// activities is the read-through path over the candidate pool for [from, to].
func (s *PlanService) activities(ctx context.Context, from, to time.Time) ([]domain.Activity, error) {
	key := fmt.Sprintf("%s%d:%d", ActivitiesKeyPrefix, from.Unix(), to.Unix())
	var out []domain.Activity
	if s.cache != nil {
		ok, err := s.cache.Get(ctx, key, &out)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache get failed; falling back to db")
		} else if ok {
			return out, nil
		}
	}

	as, err := s.repo.ListActivities(ctx, domain.ActivityQuery{From: from, To: to})
	if err != nil {
		return nil, err
	}

	// copy slice to avoid aliasing the repo's backing array
	out = make([]domain.Activity, len(as))
	copy(out, as)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds())); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
	}
	return out, nil
}

func validateWindow(from, to time.Time) error {
	switch {
	case from.IsZero() || to.IsZero():
		return fmt.Errorf("%w: date window is required", domain.ErrInvalidInput)
	case to.Before(from):
		return fmt.Errorf("%w: dateEnd is before dateStart", domain.ErrInvalidInput)
	case to.Sub(from) > maxWindow:
		return fmt.Errorf("%w: date window longer than %d days", domain.ErrInvalidInput, int(maxWindow.Hours()/24))
	}
	return nil
}
