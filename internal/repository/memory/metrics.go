package memory

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "settingscatalog"

// metrics counts repository lookups. Collectors are shared between
// repository instances registered on the same registerer, so a rebuilt
// catalog keeps counting where the previous one stopped.
type metrics struct {
	lookups   *prometheus.CounterVec
	pathDepth prometheus.Histogram
	buildSize prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "lookups_total",
			Help:      "Catalog lookups by operation and result.",
		}, []string{"op", "result"}),
		pathDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "entry_path_depth",
			Help:      "Number of elements in resolved entry paths.",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
		buildSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "entries",
			Help:      "Number of entries in the most recently built catalog.",
		}),
	}
	if reg == nil {
		return m
	}

	m.lookups = register(reg, m.lookups)
	m.pathDepth = register(reg, m.pathDepth)
	m.buildSize = register(reg, m.buildSize)
	return m
}

// register registers c, or returns the collector already registered under the same name
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

func (m *metrics) lookup(op string, hit bool) {
	result := "hit"
	if !hit {
		result = "miss"
	}
	m.lookups.WithLabelValues(op, result).Inc()
}
