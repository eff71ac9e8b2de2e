// Package metrics exposes the node's Prometheus instrumentation. Collectors
// are registered once on first use and shared process-wide.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the node's collectors.
type Metrics struct {
	RequestsTotal  *prometheus.CounterVec
	RequestSeconds *prometheus.HistogramVec
	PostsTotal     prometheus.Counter
	RewardsTotal   prometheus.Counter
	BadgesTotal    prometheus.Counter
	PausedGauge    prometheus.Gauge
}

var (
	once      sync.Once
	singleton *Metrics
)

// Shared returns the process-wide metrics, registering the collectors with
// the default registry on first call.
func Shared() *Metrics {
	once.Do(func() {
		singleton = &Metrics{
			RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "grumble",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "RPC requests by method and outcome.",
			}, []string{"method", "status"}),
			RequestSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "grumble",
				Subsystem: "rpc",
				Name:      "request_seconds",
				Help:      "RPC request latency.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
			PostsTotal: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "grumble",
				Name:      "posts_total",
				Help:      "Content entries appended to the log.",
			}),
			RewardsTotal: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "grumble",
				Name:      "rewards_paid_total",
				Help:      "Successful reward payouts.",
			}),
			BadgesTotal: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "grumble",
				Name:      "badges_minted_total",
				Help:      "Badges minted.",
			}),
			PausedGauge: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "grumble",
				Name:      "paused",
				Help:      "1 while user entry points are halted.",
			}),
		}
		prometheus.MustRegister(
			singleton.RequestsTotal,
			singleton.RequestSeconds,
			singleton.PostsTotal,
			singleton.RewardsTotal,
			singleton.BadgesTotal,
			singleton.PausedGauge,
		)
	})
	return singleton
}
