package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "blog", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "blog", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	PostsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "blog", Name: "posts_created_total", Help: "Number of posts stored."},
	)
	PostsDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "blog", Name: "posts_deleted_total", Help: "Number of posts deleted."},
	)
	IngestFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "blog", Name: "ingest_failures_total", Help: "Rejected or failed post submissions by reason."},
		[]string{"reason"},
	)
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "blog", Name: "http_request_duration_seconds", Help: "HTTP request latency.", Buckets: prometheus.DefBuckets},
		[]string{"method", "route", "status"},
	)
)

// Ingest failure reasons.
const (
	ReasonValidation = "validation"
	ReasonUpload     = "upload"
	ReasonTags       = "tags"
	ReasonStorage    = "storage"
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(PostsCreated)
	reg.MustRegister(PostsDeleted)
	reg.MustRegister(IngestFailures)
	reg.MustRegister(RequestDuration)
}
