// internal/monitor/exit.go
package monitor

import (
	"context"
	"fmt"

	"github.com/rovshanmuradov/dlmm-bot/internal/exit"
	"github.com/rovshanmuradov/dlmm-bot/internal/utils/logger"
	"github.com/rovshanmuradov/dlmm-bot/internal/utils/retry"
	"go.uber.org/zap"
)

// exitPosition закрывает только отслеживаемую позицию и продает токенную
// часть в резерв. Ошибка свопа не отменяет выход, она попадает в сводку.
func (m *Monitor) exitPosition(ctx context.Context, d exit.Decision) tickOutcome {
	defer logger.TrackPerformance(m.logger, "exit")()
	log := logger.WithOperation(logger.WithPosition(m.logger, m.cfg.Pool, m.positionID), "exit").
		With(zap.String("reason", string(d.Reason)))

	m.setState(StateClosing)
	log.Info(fmt.Sprintf("🎯 Exit triggered: P&L %.2f%% crossed %.2f%%", d.PnLPercent, d.Level))

	reason := "exit:" + string(d.Reason)
	closed, err := m.closePosition(ctx)
	if err != nil {
		return fatal(reason, fmt.Errorf("exit close: %w", err))
	}

	withdrawn, fees := closed.Sides(m.poolMeta)
	if q, err := m.fetchQuote(ctx); err == nil {
		m.lastQuote = q
	}
	m.session.Update(valueUSD(withdrawn, m.poolMeta, m.lastQuote), valueUSD(fees, m.poolMeta, m.lastQuote))

	if amount := withdrawn.Token + fees.Token; amount > 0 {
		in, out := m.poolMeta.TokenMint(), m.poolMeta.ReserveMint()
		sig, err := retry.Do(ctx, m.retry, "swap_to_reserve", func(ctx context.Context) (string, error) {
			return m.swapper.Swap(ctx, in, out, amount)
		})
		if err != nil {
			m.exitSwapErr = err
			log.Error("❌ Swap to reserve failed, tokens left in wallet",
				zap.Uint64("amount", amount), zap.Error(err))
		} else {
			m.exitSwapSig = sig
			log.Info("💱 Swapped tokens to reserve",
				zap.Uint64("amount", amount), zap.String("signature", sig))
		}
	}

	m.metrics.RecordExit(string(d.Reason))
	return tickOutcome{done: true, reason: reason}
}
