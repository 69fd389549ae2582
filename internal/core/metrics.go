// AngelaMos | 2026
// metrics.go

package core

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Registry *prometheus.Registry

	ResolutionsTotal   *prometheus.CounterVec
	ResolutionDuration prometheus.Histogram

	CacheHitsTotal      prometheus.Counter
	CacheMissesTotal    prometheus.Counter
	CacheErrorsTotal    *prometheus.CounterVec
	InvalidationsTotal  *prometheus.CounterVec
	UsageRecordedTotal  *prometheus.CounterVec
	LimitRejectedTotal  prometheus.Counter
	OverridesSweptTotal prometheus.Counter
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "entitled_resolutions_total",
				Help: "Total permission resolutions by outcome",
			},
			[]string{"outcome"},
		),
		ResolutionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "entitled_resolution_duration_seconds",
				Help:    "Permission resolution duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		CacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "entitled_cache_hits_total",
			Help: "Permission cache hits",
		}),
		CacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "entitled_cache_misses_total",
			Help: "Permission cache misses",
		}),
		CacheErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "entitled_cache_errors_total",
				Help: "Permission cache errors by operation, all fail-open",
			},
			[]string{"operation"},
		),
		InvalidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "entitled_invalidations_total",
				Help: "Cache invalidations by scope",
			},
			[]string{"scope"},
		),
		UsageRecordedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "entitled_usage_recorded_total",
				Help: "Usage recordings by mode",
			},
			[]string{"mode"},
		),
		LimitRejectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "entitled_usage_limit_rejected_total",
			Help: "Usage recordings rejected by the conditional limit check",
		}),
		OverridesSweptTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "entitled_overrides_swept_total",
			Help: "Expired override rows physically removed by the sweeper",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ResolutionsTotal,
		m.ResolutionDuration,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheErrorsTotal,
		m.InvalidationsTotal,
		m.UsageRecordedTotal,
		m.LimitRejectedTotal,
		m.OverridesSweptTotal,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
