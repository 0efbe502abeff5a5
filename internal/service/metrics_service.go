package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the engine.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	submissionsTotal *prometheus.CounterVec
	reloadsTotal     *prometheus.CounterVec
	pollingTicks     prometheus.Counter
	pollingActive    prometheus.Gauge
	geocodeLookups   *prometheus.CounterVec
	feedCacheLookups *prometheus.CounterVec
}

// NewMetricsService registers the engine's Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of gateway HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of gateway HTTP requests",
	}, []string{"method", "path", "status"})

	submissionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "announcement_submissions_total",
		Help: "Announcement submissions by outcome",
	}, []string{"outcome"})

	reloadsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconciler_reloads_total",
		Help: "Reconciler reloads by trigger and result",
	}, []string{"trigger", "result"})

	pollingTicks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reconciler_polling_ticks_total",
		Help: "Ticks executed by the review-status polling loop",
	})

	pollingActive := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "reconciler_polling_active",
		Help: "Whether the polling loop is currently running",
	})

	geocodeLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geocode_lookups_total",
		Help: "Geocode lookups by cache outcome",
	}, []string{"outcome"})

	feedCacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_cache_lookups_total",
		Help: "Public feed cache lookups by outcome",
	}, []string{"outcome"})

	registry.MustRegister(requestDuration, requestTotal, submissionsTotal,
		reloadsTotal, pollingTicks, pollingActive, geocodeLookups, feedCacheLookups)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		submissionsTotal: submissionsTotal,
		reloadsTotal:     reloadsTotal,
		pollingTicks:     pollingTicks,
		pollingActive:    pollingActive,
		geocodeLookups:   geocodeLookups,
		feedCacheLookups: feedCacheLookups,
	}
}

// Handler returns the /metrics HTTP handler.
func (s *MetricsService) Handler() http.Handler {
	if s == nil {
		return promhttp.Handler()
	}
	return s.handler
}

// RecordRequest observes one gateway request.
func (s *MetricsService) RecordRequest(method, path string, status int, duration time.Duration) {
	if s == nil {
		return
	}
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// RecordSubmission counts a submission outcome: created, partial, or failed.
func (s *MetricsService) RecordSubmission(outcome string) {
	if s == nil {
		return
	}
	s.submissionsTotal.WithLabelValues(outcome).Inc()
}

// RecordReload counts a reconciler reload.
func (s *MetricsService) RecordReload(trigger string, ok bool) {
	if s == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	s.reloadsTotal.WithLabelValues(trigger, result).Inc()
}

// RecordPollingTick counts one polling wakeup.
func (s *MetricsService) RecordPollingTick() {
	if s == nil {
		return
	}
	s.pollingTicks.Inc()
}

// SetPollingActive flips the polling gauge.
func (s *MetricsService) SetPollingActive(active bool) {
	if s == nil {
		return
	}
	if active {
		s.pollingActive.Set(1)
	} else {
		s.pollingActive.Set(0)
	}
}

// RecordGeocodeLookup counts a geocode lookup: hit, miss, or not_found.
func (s *MetricsService) RecordGeocodeLookup(outcome string) {
	if s == nil {
		return
	}
	s.geocodeLookups.WithLabelValues(outcome).Inc()
}

// RecordFeedCacheLookup counts a feed cache lookup: hit or miss.
func (s *MetricsService) RecordFeedCacheLookup(hit bool) {
	if s == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	s.feedCacheLookups.WithLabelValues(outcome).Inc()
}
