package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"pulse/internal/adapters/observability"
	"pulse/internal/domain"
)

type IngestionService struct {
	repo  domain.ActivityRepository
	cache domain.Cache
}

func NewIngestionService(r domain.ActivityRepository, cache domain.Cache) *IngestionService {
	return &IngestionService{repo: r, cache: cache}
}

// IngestFeed pulls one source for [from, to], upserts what maps cleanly and
// evicts cached candidate pools. Missing or forbidden sources are recorded and
// skipped; anything else is returned.
func (s *IngestionService) IngestFeed(ctx context.Context, src domain.FeedSource, from, to time.Time) (n int, err error) {
	miss := false
	defer func() { observability.ObserveIngestRun(src.Name(), miss, err) }()

	recs, err := src.Fetch(ctx, from, to)
	if err != nil {
		if status, reason, ok := missStatus(err); ok {
			miss = true
			if lerr := s.repo.LogMiss(ctx, src.Name(), status, reason); lerr != nil {
				log.Warn().Err(lerr).Str("source", src.Name()).Msg("log miss failed")
			}
			return 0, nil
		}
		return 0, fmt.Errorf("fetch %s: %w", src.Name(), err)
	}

	acts := mapActivities(src.Name(), recs)
	if skipped := len(recs) - len(acts); skipped > 0 {
		log.Info().Str("source", src.Name()).Int("skipped", skipped).Msg("dropped unusable records")
	}
	if len(acts) == 0 {
		return 0, nil
	}

	if err := s.repo.UpsertActivities(ctx, acts); err != nil {
		// do not swallow this; surface so we know inserts failed
		return 0, fmt.Errorf("upsert activities from %s: %w", src.Name(), err)
	}
	observability.ObserveIngested(src.Name(), len(acts))

	if s.cache != nil {
		if err := s.cache.DelPrefix(ctx, ActivitiesKeyPrefix); err != nil {
			log.Warn().Err(err).Msg("cache eviction failed; stale pools expire with TTL")
		}
	}
	return len(acts), nil
}

// missStatus classifies errors that mean "this source has nothing for us".
// Only the domain sentinels count; sources translate upstream statuses into them.
func missStatus(err error) (int, string, bool) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return 404, "not found", true
	case errors.Is(err, domain.ErrForbidden):
		return 403, "forbidden", true
	case errors.Is(err, domain.ErrUnauthorized):
		return 401, "unauthorized", true
	}
	return 0, "", false
}
