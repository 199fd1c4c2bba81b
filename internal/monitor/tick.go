// internal/monitor/tick.go
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/rovshanmuradov/dlmm-bot/internal/dlmm"
	"github.com/rovshanmuradov/dlmm-bot/internal/strategy"
	"go.uber.org/zap"
)

type tickOutcome struct {
	done   bool
	reason string
	err    error
}

func fatal(reason string, err error) tickOutcome {
	return tickOutcome{done: true, reason: reason, err: err}
}

// tick - один цикл MONITORING: снимок, оценка, выход, ребалансировка, статус
func (m *Monitor) tick(ctx context.Context) tickOutcome {
	start := time.Now()
	defer func() { m.metrics.ObserveTick(time.Since(start)) }()
	m.ticks++

	snap, err := m.lookupPosition(ctx)
	if err != nil {
		return fatal(reasonFatal+"position-lost", err)
	}
	m.lowerBin, m.upperBin = snap.LowerBin, snap.UpperBin

	active, err := m.pool.GetActiveBin(ctx, m.cfg.Pool)
	if err != nil {
		m.logger.Warn("⚠️ Active bin unavailable, skipping tick", zap.Error(err))
		m.publish(m.statusRow(actionNoBin))
		return tickOutcome{}
	}
	m.activeBin = active

	q, err := m.fetchQuote(ctx)
	if err != nil {
		m.priceFailures++
		m.logger.Warn("⚠️ Price unavailable, skipping tick",
			zap.Int("consecutive_failures", m.priceFailures),
			zap.Int("max_failures", m.cfg.MaxPriceFailures),
			zap.Error(err))
		if m.priceFailures >= m.cfg.MaxPriceFailures {
			return fatal(reasonFatal+"price-feed",
				fmt.Errorf("%w: %d consecutive failures", ErrPriceFeedLost, m.priceFailures))
		}
		m.publish(m.statusRow(actionNoPrice))
		return tickOutcome{}
	}
	m.priceFailures = 0
	m.lastQuote = q

	amounts, fees := snap.Amounts(m.poolMeta)
	m.session.Update(valueUSD(amounts, m.poolMeta, q), valueUSD(fees, m.poolMeta, q))
	m.metrics.UpdatePnL(m.session.SessionPnLPercent(), m.session.LifetimePnL(), m.session.CurrentValueUSD())

	if d := m.exitEngine.Evaluate(m.session.SessionPnLPercent()); d.Triggered {
		return m.exitPosition(ctx, d)
	}

	action, err := m.evaluateRange(ctx, snap, active)
	if err != nil {
		return fatal(reasonFatal+"rebalance", err)
	}

	m.publish(m.statusRow(action))
	return tickOutcome{}
}

// evaluateRange проверяет выход из диапазона. Начальный гейт и cooldown
// независимы, ребалансировка требует прохождения обоих.
func (m *Monitor) evaluateRange(ctx context.Context, snap *dlmm.PositionSnapshot, active int32) (string, error) {
	decision := strategy.Decide(active, m.lowerBin, m.upperBin)
	gated := m.gate.Observe(active)

	now := m.now()
	if now.Sub(m.lastCheckAt) < m.cfg.CheckInterval {
		return actionHold, nil
	}
	m.lastCheckAt = now

	if !decision.NeedsRebalance {
		return actionHold, nil
	}
	if gated {
		m.logger.Debug("Out of range but initial gate still closed",
			zap.Int32("active_bin", active),
			zap.Int32("start_bin", m.gate.StartBin()),
			zap.Int32("moved", m.gate.Moved(active)))
		return actionGated, nil
	}
	if since := now.Sub(m.lastRebalanceAt); since < m.cfg.Cooldown {
		m.logger.Debug("Out of range but cooldown active",
			zap.Duration("remaining", m.cfg.Cooldown-since))
		return actionCooldown, nil
	}

	done, err := m.rebalance(ctx, decision.Direction, snap)
	if err != nil {
		return "", err
	}
	if !done {
		return actionSkipped, nil
	}
	return actionRebalanced, nil
}

// lookupPosition: индекс может отставать сразу после открытия,
// поэтому пустой ответ повторяется до LookupRetries раз
func (m *Monitor) lookupPosition(ctx context.Context) (*dlmm.PositionSnapshot, error) {
	var lastErr error
	for attempt := 1; attempt <= m.cfg.LookupRetries; attempt++ {
		snap, err := m.pool.GetPosition(ctx, m.positionID)
		if err == nil && snap != nil {
			return snap, nil
		}
		lastErr = err
		m.logger.Warn("🔍 Position not visible yet",
			zap.String("position", m.positionID),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", m.cfg.LookupRetries),
			zap.Error(err))
		if attempt < m.cfg.LookupRetries {
			m.sleep(ctx, m.cfg.LookupDelay)
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %s after %d attempts: %v", ErrPositionLost, m.positionID, m.cfg.LookupRetries, lastErr)
	}
	return nil, fmt.Errorf("%w: %s after %d attempts", ErrPositionLost, m.positionID, m.cfg.LookupRetries)
}

func (m *Monitor) publish(row StatusRow) {
	m.logger.Debug("Status", zap.Any("row", row))
	select {
	case m.updates <- row:
	default:
		m.logger.Warn("Status channel full, dropping update")
	}
}
