package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// GitHub search API call rate. Watch for: error vs success ratio, rate_limited spikes.
	GitHubAPICallsTotal *prometheus.CounterVec

	// GitHub search API latency per call. Watch for: p95 > 2s (upstream degradation).
	GitHubAPIDuration *prometheus.HistogramVec

	// Repository list fetches through the service layer, by outcome.
	RepoFetchesTotal *prometheus.CounterVec

	// Result size per successful fetch. Watch for: sudden drops (upstream filter changed).
	RepoFetchItemCount prometheus.Histogram

	// Records dropped at the fetch boundary for violating the repository URL invariant.
	RepoFetchDroppedTotal prometheus.Counter

	// View model terminal transitions by phase (ready, error).
	ViewModelTransitionsTotal *prometheus.CounterVec

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	GitHubAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "githubApiCallsTotal",
			Help: "Total number of GitHub search API calls",
		},
		[]string{"status"},
	)
	GitHubAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "githubApiDurationSeconds",
			Help:    "GitHub search API latency in seconds (per call)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)
	RepoFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repoFetchesTotal",
			Help: "Total repository list fetches by outcome",
		},
		[]string{"outcome"},
	)
	RepoFetchItemCount = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "repoFetchItemCount",
			Help:    "Number of repositories returned per successful fetch",
			Buckets: []float64{0, 1, 5, 10, 30, 50, 100},
		},
	)
	RepoFetchDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "repoFetchDroppedTotal",
			Help: "Repository records dropped for missing repository URL",
		},
	)
	ViewModelTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viewModelTransitionsTotal",
			Help: "View model terminal state transitions by phase",
		},
		[]string{"phase"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total requests denied by the rate limiter",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		HTTPRequestsInFlight,
		GitHubAPICallsTotal,
		GitHubAPIDuration,
		RepoFetchesTotal,
		RepoFetchItemCount,
		RepoFetchDroppedTotal,
		ViewModelTransitionsTotal,
		RateLimitDeniedTotal,
	)
}

// MetricsHandler returns the Prometheus scrape handler backed by the service's
// private registry.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
