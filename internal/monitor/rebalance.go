// internal/monitor/rebalance.go
package monitor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rovshanmuradov/dlmm-bot/internal/dlmm"
	"github.com/rovshanmuradov/dlmm-bot/internal/reserve"
	"github.com/rovshanmuradov/dlmm-bot/internal/session"
	"github.com/rovshanmuradov/dlmm-bot/internal/strategy"
	"github.com/rovshanmuradov/dlmm-bot/internal/utils/logger"
	"go.uber.org/zap"
)

// rebalance закрывает позицию и открывает новую вокруг текущего бина.
// false, nil - ребалансировка пропущена (preflight). Ошибка фатальна:
// позиция могла остаться закрытой без замены.
func (m *Monitor) rebalance(ctx context.Context, direction dlmm.Direction, snap *dlmm.PositionSnapshot) (bool, error) {
	defer logger.TrackPerformance(m.logger, "rebalance")()
	log := logger.WithOperation(logger.WithPosition(m.logger, m.cfg.Pool, m.positionID), "rebalance").
		With(zap.Stringer("direction", direction))

	est, err := m.preflight(ctx, snap, direction)
	if err != nil {
		if errors.Is(err, ErrPreflightFailed) {
			log.Warn("⏭️ Rebalance skipped",
				zap.Uint64("freed", est.Freed),
				zap.Uint64("overhead", est.Overhead),
				zap.Int64("net", est.Net),
				zap.Error(err))
			m.metrics.RecordSkippedRebalance(direction.String())
			return false, nil
		}
		return false, err
	}

	m.setState(StateRebalancing)
	log.Info(fmt.Sprintf("🔄 Price left range [%d, %d] at bin %d, rebalancing %s",
		m.lowerBin, m.upperBin, m.activeBin, direction),
		zap.Int64("preflight_net", est.Net))

	event := RebalanceEvent{
		ID:            uuid.NewString(),
		At:            m.now(),
		Direction:     direction,
		OldPositionID: m.positionID,
	}
	fail := func(stage string, err error) (bool, error) {
		event.Err = fmt.Sprintf("%s: %v", stage, err)
		m.history.Add(event)
		m.metrics.RecordRebalance(direction.String(), false)
		return false, fmt.Errorf("%s: %w", stage, err)
	}

	closed, err := m.closePosition(ctx)
	if err != nil {
		return fail("close position", err)
	}

	// от свежих цен зависит разделение комиссий и baseline
	q, err := m.fetchQuote(ctx)
	if err != nil {
		log.Warn("⚠️ Price refresh failed, using last tick prices", zap.Error(err))
		q = m.lastQuote
	}

	withdrawn, fees := closed.Sides(m.poolMeta)
	valuation := session.CloseValuation{
		Withdrawn:     withdrawn,
		Fees:          fees,
		WithdrawnUSD:  valueUSD(withdrawn, m.poolMeta, q),
		FeeReserveUSD: valueUSD(dlmm.Capital{Reserve: fees.Reserve}, m.poolMeta, q),
		FeeTokenUSD:   valueUSD(dlmm.Capital{Token: fees.Token}, m.poolMeta, q),
	}
	redeploy := m.planRedeploy(direction, valuation)
	event.FeesRealizedUSD = valuation.FeeReserveUSD + valuation.FeeTokenUSD

	active := m.activeBin
	if fresh, err := m.pool.GetActiveBin(ctx, m.cfg.Pool); err == nil {
		active = fresh
	} else {
		log.Warn("⚠️ Active bin refresh failed, using last observed", zap.Error(err))
	}

	pending := reserve.NewLedger()
	plan, err := m.planner.Reopen(direction, active, redeploy.Capital, pending)
	if err != nil {
		return fail("plan reopen", err)
	}

	// своя только что закрытая позиция не должна блокировать открытие
	opened, err := m.openPosition(ctx, plan, true, pending)
	if err != nil {
		return fail("reopen position", err)
	}

	m.ledger.Replace(pending)
	setAsideUSD := valueUSD(dlmm.Capital{Reserve: pending.TotalReserve(), Token: pending.TrimmedToken}, m.poolMeta, q)

	baseline, err := m.session.ApplyRebalance(redeploy, setAsideUSD, opened.DepositUSD)
	if err != nil {
		// депозит ненулевой и цены положительные, поэтому оценка плана всегда > 0
		deployedUSD := valueUSD(plan.Capital, m.poolMeta, q)
		log.Warn("⚠️ Baseline fallback to deployed value", zap.Error(err), zap.Float64("deployed_usd", deployedUSD))
		if baseline, err = m.session.ApplyRebalance(redeploy, setAsideUSD, deployedUSD); err != nil {
			return fail("apply baseline", err)
		}
	}

	m.positionID = opened.PositionID
	m.lowerBin, m.upperBin = plan.MinBin, plan.MaxBin
	m.activeBin = active
	m.lastRebalanceAt = m.now()
	m.positionClosed = false
	if m.cfg.RearmGate {
		m.gate = strategy.NewGate(active, plan.MinBin, plan.MaxBin, m.cfg.GateBins)
	}
	if m.cfg.TrailingResetOnRebalance {
		m.exitEngine.ResetTrailing()
	}

	event.NewPositionID = opened.PositionID
	event.MinBin, event.MaxBin = plan.MinBin, plan.MaxBin
	event.NewBaselineUSD = baseline
	event.Success = true
	m.history.Add(event)
	m.metrics.RecordRebalance(direction.String(), true)

	log.Info(fmt.Sprintf("✅ Rebalanced into %s bins [%d, %d], new baseline $%.2f",
		opened.PositionID, plan.MinBin, plan.MaxBin, baseline),
		zap.String("mode", string(redeploy.Mode)),
		zap.Float64("compounded_usd", redeploy.CompoundedUSD),
		zap.Float64("claimed_usd", redeploy.ClaimedUSD),
		zap.Float64("set_aside_usd", setAsideUSD),
		zap.Stringer("reserve", m.ledger))

	m.setState(StateMonitoring)
	return true, nil
}

// planRedeploy: в swapless режиме комиссии отрезаемой стороны не компаундятся
func (m *Monitor) planRedeploy(direction dlmm.Direction, v session.CloseValuation) session.RedeployPlan {
	if m.cfg.Swapless {
		return session.PlanSwaplessRedeploy(m.session.EffectiveMode(), direction, v)
	}
	return session.PlanRedeploy(m.session.EffectiveMode(), v)
}
