// internal/monitor/valuation.go
package monitor

import (
	"context"
	"fmt"

	"github.com/rovshanmuradov/dlmm-bot/internal/dlmm"
	"github.com/shopspring/decimal"
)

// quote - цены сторон пула в USD
type quote struct {
	Reserve float64
	Token   float64
}

func (m *Monitor) fetchQuote(ctx context.Context) (quote, error) {
	reserve, err := m.prices.GetPrice(ctx, m.poolMeta.ReserveMint())
	if err != nil {
		return quote{}, fmt.Errorf("reserve price: %w", err)
	}
	token, err := m.prices.GetPrice(ctx, m.poolMeta.TokenMint())
	if err != nil {
		return quote{}, fmt.Errorf("token price: %w", err)
	}
	if reserve <= 0 || token <= 0 {
		return quote{}, fmt.Errorf("%w: non-positive price", dlmm.ErrPriceUnavailable)
	}
	return quote{Reserve: reserve, Token: token}, nil
}

// valueUSD оценивает суммы в base units по ценам сторон
func valueUSD(c dlmm.Capital, pool *dlmm.PoolMetadata, q quote) float64 {
	r := decimal.NewFromUint64(c.Reserve).
		Shift(-int32(pool.ReserveDecimals())).
		Mul(decimal.NewFromFloat(q.Reserve))
	t := decimal.NewFromUint64(c.Token).
		Shift(-int32(pool.TokenDecimals())).
		Mul(decimal.NewFromFloat(q.Token))
	return r.Add(t).InexactFloat64()
}

// toBaseUnits переводит UI-сумму в base units с округлением вниз
func toBaseUnits(amount float64, decimals uint8) uint64 {
	d := decimal.NewFromFloat(amount).Shift(int32(decimals)).Floor()
	if d.Sign() <= 0 {
		return 0
	}
	return d.BigInt().Uint64()
}

// LamportsFromSOL - для конфигурации, где суммы заданы в SOL
func LamportsFromSOL(sol float64) uint64 {
	return toBaseUnits(sol, 9)
}
