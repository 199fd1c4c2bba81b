// internal/utils/metrics/collector.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dlmm"

// Collector управляет набором метрик ребалансера на собственном реестре
type Collector struct {
	registry *prometheus.Registry

	rebalances    *prometheus.CounterVec
	exits         *prometheus.CounterVec
	retries       *prometheus.CounterVec
	sessionPnL    prometheus.Gauge
	lifetimePnL   prometheus.Gauge
	positionValue prometheus.Gauge
	tickDuration  prometheus.Histogram
}

// NewCollector создает коллектор и регистрирует метрики
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		rebalances: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rebalances_total",
				Help:      "Total number of rebalance attempts",
			},
			[]string{"direction", "result"},
		),
		exits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exits_total",
				Help:      "Exit conditions that closed the position",
			},
			[]string{"reason"},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retries_total",
				Help:      "Failed collaborator attempts that were retried",
			},
			[]string{"operation"},
		),
		sessionPnL: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_pnl_percent",
			Help:      "Session P&L relative to the current baseline",
		}),
		lifetimePnL: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lifetime_pnl_usd",
			Help:      "P&L against the initial deposit, including claimed fees",
		}),
		positionValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "position_value_usd",
			Help:      "Current position value with unclaimed fees",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Monitor tick duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}

	c.registry.MustRegister(
		c.rebalances,
		c.exits,
		c.retries,
		c.sessionPnL,
		c.lifetimePnL,
		c.positionValue,
		c.tickDuration,
	)
	return c
}

// Registry возвращает реестр для promhttp и тестов
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
