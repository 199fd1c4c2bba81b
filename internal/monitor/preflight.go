// internal/monitor/preflight.go
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

// PreflightEstimate - оценка в лампортах перед закрытием позиции
type PreflightEstimate struct {
	Freed       uint64
	PriorityFee uint64
	Overhead    uint64
	Net         int64
}

// preflight оценивает, сколько резерва освободит закрытие, и вычитает
// ренту, комиссии транзакций и страховой буфер. Закрытие также запрещено,
// если новой позиции нечего внести (swapless без рабочей стороны).
func (m *Monitor) preflight(ctx context.Context, snap *dlmm.PositionSnapshot, direction dlmm.Direction) (PreflightEstimate, error) {
	pc := m.cfg.Preflight
	amounts, fees := snap.Amounts(m.poolMeta)

	est := PreflightEstimate{
		Freed:       amounts.Reserve + fees.Reserve,
		PriorityFee: pc.PriorityFee,
	}

	if m.wallet != nil {
		if pc.IncludeWalletBalance {
			if bal, err := m.wallet.ReserveBalance(ctx); err == nil {
				est.Freed += bal
			} else {
				m.logger.Warn("⚠️ Wallet balance unavailable for preflight", zap.Error(err))
			}
		}
		if fee, err := m.wallet.PriorityFee(ctx, pc.ComputeUnits); err == nil && fee > 0 {
			est.PriorityFee = fee
		} else if err != nil {
			m.logger.Debug("Priority fee estimate unavailable, using configured value", zap.Error(err))
		}
	}

	txs := uint64(pc.TxCount)
	est.Overhead = pc.PositionRent + (pc.BaseFee+est.PriorityFee)*txs + pc.SafetyBuffer
	est.Net = int64(est.Freed) - int64(est.Overhead)

	if est.Net <= 0 {
		return est, fmt.Errorf("%w: freed %d, overhead %d lamports", ErrPreflightFailed, est.Freed, est.Overhead)
	}

	redeploy := m.planRedeploy(direction, session.CloseValuation{Withdrawn: amounts, Fees: fees})
	if _, err := m.planner.Reopen(direction, m.activeBin, redeploy.Capital, reserve.NewLedger()); errors.Is(err, strategy.ErrNothingToDeploy) {
		return est, fmt.Errorf("%w: nothing to redeploy %s (reserve %d, token %d)",
			ErrPreflightFailed, direction, redeploy.Capital.Reserve, redeploy.Capital.Token)
	}
	return est, nil
}
