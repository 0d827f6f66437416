package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"pulse/internal/adapters/eventsapi"
	"pulse/internal/adapters/observability"
	redisad "pulse/internal/adapters/redis"
	"pulse/internal/adapters/rss"
	"pulse/internal/app"
	"pulse/internal/domain"
	"pulse/internal/shared"
	mysqlrepo "pulse/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	sources, err := buildSources(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("ingestor misconfigured")
	}

	from := time.Now().UTC()
	to := from.Add(cfg.IngestWindow)
	log.Info().
		Int("sources", len(sources)).
		Int("workers", cfg.Workers).
		Time("from", from).
		Time("to", to).
		Msg("ingestor starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	ing := app.NewIngestionService(repo, cache)

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var (
		wg    sync.WaitGroup
		total atomic.Int64
	)

	for _, src := range sources {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("ingestion interrupted")
			break
		}

		wg.Add(1)
		go func(src domain.FeedSource) {
			defer wg.Done()
			defer sem.Release(1)

			n, err := ing.IngestFeed(ctx, src, from, to)
			if err != nil {
				log.Warn().Str("source", src.Name()).Err(err).Msg("ingest failed")
				return
			}
			total.Add(int64(n))
			log.Info().Str("source", src.Name()).Int("activities", n).Msg("ingest ok")
		}(src)
	}

	wg.Wait()
	log.Info().Int64("activities", total.Load()).Msg("ingestion completed")
}

var errNoSources = errors.New("no sources configured; set FEED_URLS or EVENTS_API_BASE_URL")

func buildSources(cfg shared.Config) ([]domain.FeedSource, error) {
	var out []domain.FeedSource
	for _, u := range cfg.FeedURLs {
		out = append(out, rss.New(u))
	}
	if cfg.EventsAPIBase != "" {
		c, err := eventsapi.New(cfg.EventsAPIBase, cfg.EventsAPIKey, 5)
		if err != nil {
			return nil, fmt.Errorf("events API client: %w", err)
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, errNoSources
	}
	return out, nil
}
