/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package widget

import "github.com/prometheus/client_golang/prometheus"

const namespace = "pokenator"

// Metrics are shared by every widget of one server.
type Metrics struct {
	Lookups       prometheus.Counter
	CacheHits     prometheus.Counter
	Stale         prometheus.Counter
	BackendErrors *prometheus.CounterVec
	Live          prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Lookups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detail_lookups_total",
			Help:      "PokeAPI lookups issued by widgets.",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detail_cache_hits_total",
			Help:      "Detail selections answered from the widget cache.",
		}),
		Stale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detail_stale_total",
			Help:      "Lookup completions that arrived after their selection was superseded.",
		}),
		BackendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_errors_total",
			Help:      "Failed calls to the game backend.",
		}, []string{"op"}),
		Live: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "widgets_live",
			Help:      "Widgets currently connected.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Lookups, m.CacheHits, m.Stale, m.BackendErrors, m.Live)
	}

	return m
}
