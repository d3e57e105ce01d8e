package testenv

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// cacheMetrics counts hits, misses and redundant concurrent builds for one
// shared cache. A nil receiver disables instrumentation.
type cacheMetrics struct {
	hits            prometheus.Counter
	misses          prometheus.Counter
	redundantBuilds prometheus.Counter
}

func newCacheMetrics(registerer prometheus.Registerer, cache string) *cacheMetrics {
	return &cacheMetrics{
		hits: promauto.With(registerer).NewCounter(prometheus.CounterOpts{
			Namespace:   "testenv",
			Name:        "cache_hits_total",
			Help:        "Number of cache lookups served from an existing entry.",
			ConstLabels: prometheus.Labels{"cache": cache},
		}),
		misses: promauto.With(registerer).NewCounter(prometheus.CounterOpts{
			Namespace:   "testenv",
			Name:        "cache_misses_total",
			Help:        "Number of cache lookups that triggered a build.",
			ConstLabels: prometheus.Labels{"cache": cache},
		}),
		redundantBuilds: promauto.With(registerer).NewCounter(prometheus.CounterOpts{
			Namespace:   "testenv",
			Name:        "cache_redundant_builds_total",
			Help:        "Number of concurrent builds discarded because another insertion won.",
			ConstLabels: prometheus.Labels{"cache": cache},
		}),
	}
}

func (m *cacheMetrics) hit() {
	if m != nil {
		m.hits.Inc()
	}
}

func (m *cacheMetrics) miss() {
	if m != nil {
		m.misses.Inc()
	}
}

func (m *cacheMetrics) redundantBuild() {
	if m != nil {
		m.redundantBuilds.Inc()
	}
}
