// internal/utils/metrics/metrics.go
package metrics

import (
	"time"
)

// Методы безопасны для nil-коллектора: метрики опциональны.

// RecordRebalance записывает результат попытки ребалансировки
func (c *Collector) RecordRebalance(direction string, success bool) {
	if c == nil {
		return
	}
	result := "success"
	if !success {
		result = "failed"
	}
	c.rebalances.WithLabelValues(direction, result).Inc()
}

// RecordSkippedRebalance фиксирует пропуск (preflight, недостаточно средств)
func (c *Collector) RecordSkippedRebalance(direction string) {
	if c == nil {
		return
	}
	c.rebalances.WithLabelValues(direction, "skipped").Inc()
}

func (c *Collector) RecordExit(reason string) {
	if c == nil {
		return
	}
	c.exits.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordRetry(operation string) {
	if c == nil {
		return
	}
	c.retries.WithLabelValues(operation).Inc()
}

// UpdatePnL обновляет показатели P&L после тика
func (c *Collector) UpdatePnL(sessionPercent, lifetimeUSD, positionUSD float64) {
	if c == nil {
		return
	}
	c.sessionPnL.Set(sessionPercent)
	c.lifetimePnL.Set(lifetimeUSD)
	c.positionValue.Set(positionUSD)
}

func (c *Collector) ObserveTick(duration time.Duration) {
	if c == nil {
		return
	}
	c.tickDuration.Observe(duration.Seconds())
}
