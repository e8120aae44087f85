package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "blogdeck", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "blogdeck", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	DocumentUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "blogdeck", Name: "document_updates_total", Help: "Document updates by kind and outcome."},
		[]string{"kind", "outcome"},
	)
	UpdateStageFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "blogdeck", Name: "update_stage_failures_total", Help: "Failed document update stages, including best-effort ones."},
		[]string{"stage"},
	)
	UpdateDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "blogdeck", Name: "update_duration_seconds", Help: "Document update latency.", Buckets: prometheus.DefBuckets},
		[]string{"kind"},
	)
	SourceReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "blogdeck", Name: "source_reloads_total", Help: "Source files processed into the content store."},
		[]string{"result"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(DocumentUpdates)
	reg.MustRegister(UpdateStageFailures)
	reg.MustRegister(UpdateDuration)
	reg.MustRegister(SourceReloads)
}
