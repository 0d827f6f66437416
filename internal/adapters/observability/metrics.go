package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pulse", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pulse", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pulse", Name: "external_requests_total", Help: "Outbound requests."},
		[]string{"service", "endpoint", "status"},
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pulse", Name: "external_request_duration_seconds",
			Help:    "Outbound request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pulse", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
	PlansGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pulse", Name: "plans_generated_total", Help: "Plans returned, by strategy."},
		[]string{"strategy"},
	)
	PlanRequestsEmpty = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "pulse", Name: "plan_requests_empty_total", Help: "Generate calls that produced no plan."},
	)
	ActivitiesIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pulse", Name: "activities_ingested_total", Help: "Activities upserted by the ingestor."},
		[]string{"source"},
	)
	IngestRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pulse", Name: "ingest_runs_total", Help: "Per-source ingest runs by outcome."},
		[]string{"source", "outcome"}, // outcome: ok|miss|<error type>
	)
	LastIngest = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: "pulse", Name: "ingest_last_success_timestamp_seconds", Help: "Unix time of the last successful ingest per source."},
		[]string{"source"},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		HTTPRequests, HTTPLatency,
		ExternalRequests, ExternalLatency,
		CacheEvents,
		PlansGenerated, PlanRequestsEmpty,
		ActivitiesIngested, IngestRuns, LastIngest,
	}
}

// Serve starts a standalone metrics listener on addr. Empty addr disables it.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors()...)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveExternal(service, endpoint string, status int, dur time.Duration) {
	ExternalRequests.WithLabelValues(service, endpoint, strconv.Itoa(status)).Inc()
	ExternalLatency.WithLabelValues(service, endpoint).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObservePlan(strategy string) { PlansGenerated.WithLabelValues(strategy).Inc() }

func ObserveEmptyPlanRequest() { PlanRequestsEmpty.Inc() }

func ObserveIngested(source string, n int) {
	ActivitiesIngested.WithLabelValues(source).Add(float64(n))
}

// ObserveIngestRun records how one source run ended. A nil err with miss=false
// counts as success and bumps the last-success gauge.
func ObserveIngestRun(source string, miss bool, err error) {
	switch {
	case err != nil:
		IngestRuns.WithLabelValues(source, LabelErr(err)).Inc()
	case miss:
		IngestRuns.WithLabelValues(source, "miss").Inc()
	default:
		IngestRuns.WithLabelValues(source, "ok").Inc()
		LastIngest.WithLabelValues(source).SetToCurrentTime()
	}
}

func LabelErr(err error) string {
	if err == nil {
		return "none"
	}
	return fmt.Sprintf("%T", err)
}
