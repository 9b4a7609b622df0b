package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buzz_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "buzz_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	PostsFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buzz_autopilot_posts_fetched_total",
			Help: "Posts returned by platform search before filtering",
		},
		[]string{"platform"},
	)
	PostsKeptTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buzz_autopilot_posts_kept_total",
			Help: "Posts judged relevant and persisted",
		},
		[]string{"platform"},
	)
	CommentsGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buzz_autopilot_comments_generated_total",
			Help: "Comments generated by the LLM",
		},
		[]string{"platform"},
	)
	CommentsPostedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buzz_autopilot_comments_posted_total",
			Help: "Comments published to the platform",
		},
		[]string{"platform"},
	)
	CommentsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buzz_autopilot_comments_failed_total",
			Help: "Comments the platform rejected",
		},
		[]string{"platform"},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "buzz_llm_request_duration_seconds",
			Help:    "LLM request latency in seconds",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"kind", "status"},
	)
)

// ObserveLLM 记录一次模型调用耗时
func ObserveLLM(kind string, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	LLMRequestDuration.WithLabelValues(kind, status).Observe(elapsed.Seconds())
}

func ObserveHTTP(method, path, status string, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}
