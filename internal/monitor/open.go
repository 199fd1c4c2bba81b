// internal/monitor/open.go
package monitor

import (
	"context"
	"errors"
	"fmt"

	"github.com/rovshanmuradov/dlmm-bot/internal/dlmm"
	"github.com/rovshanmuradov/dlmm-bot/internal/reserve"
	"github.com/rovshanmuradov/dlmm-bot/internal/session"
	"github.com/rovshanmuradov/dlmm-bot/internal/strategy"
	"go.uber.org/zap"
)

// open - состояние OPENING: метаданные пула, цены, начальная позиция, baseline
func (m *Monitor) open(ctx context.Context) error {
	m.setState(StateOpening)

	meta, err := m.pool.GetPool(ctx, m.cfg.Pool)
	if err != nil {
		return fmt.Errorf("load pool %s: %w", m.cfg.Pool, err)
	}
	if meta.ReserveIsX {
		return fmt.Errorf("pool %s: SOL must be token Y: %w", m.cfg.Pool, dlmm.ErrUnsupportedPool)
	}
	m.poolMeta = meta

	q, err := m.fetchQuote(ctx)
	if err != nil {
		return fmt.Errorf("initial prices: %w", err)
	}

	active := meta.ActiveBin
	if fresh, err := m.pool.GetActiveBin(ctx, m.cfg.Pool); err == nil {
		active = fresh
	} else {
		m.logger.Warn("⚠️ Using active bin from pool metadata", zap.Error(err))
	}

	deposit := dlmm.Capital{
		Reserve: toBaseUnits(m.cfg.DepositReserve, meta.ReserveDecimals()),
		Token:   toBaseUnits(m.cfg.DepositToken, meta.TokenDecimals()),
	}
	if deposit.IsZero() {
		return errors.New("deposit rounds to zero base units")
	}

	plan := m.planner.Initial(active, deposit)
	pending := reserve.NewLedger()
	res, err := m.openPosition(ctx, plan, m.cfg.AllowExisting, pending)
	if err != nil {
		return fmt.Errorf("open position: %w", err)
	}
	m.ledger.Replace(pending)

	depositUSD := res.DepositUSD
	if depositUSD <= 0 {
		depositUSD = valueUSD(deposit, meta, q)
	}
	st, err := session.New(deposit, depositUSD, m.cfg.AutoCompound, m.cfg.CompoundMode, m.cfg.Swapless, m.now())
	if err != nil {
		return fmt.Errorf("start session for %s: %w", res.PositionID, err)
	}

	m.session = st
	m.positionID = res.PositionID
	m.lowerBin, m.upperBin = plan.MinBin, plan.MaxBin
	m.activeBin = active
	m.lastQuote = q
	m.gate = strategy.NewGate(active, plan.MinBin, plan.MaxBin, m.cfg.GateBins)
	now := m.now()
	m.lastRebalanceAt = now
	m.lastCheckAt = now

	m.logger.Info(fmt.Sprintf("🚀 Position opened: %s bins [%d, %d] active %d, deposit $%.2f",
		res.PositionID, plan.MinBin, plan.MaxBin, active, depositUSD),
		zap.String("signature", res.Signature),
		zap.Stringer("gate_direction", m.gate.Direction()),
		zap.Stringer("reserve", m.ledger))

	m.setState(StateMonitoring)
	return nil
}
