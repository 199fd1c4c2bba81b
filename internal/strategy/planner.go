// =============================================
// File: internal/strategy/planner.go
// =============================================
package strategy

import (
	"errors"

	"github.com/rovshanmuradov/dlmm-bot/internal/dlmm"
	"github.com/rovshanmuradov/dlmm-bot/internal/reserve"
)

var ErrNothingToDeploy = errors.New("no capital left to deploy")

// Planner собирает параметры нового диапазона
type Planner struct {
	Span         int
	ReserveRatio float64
	Swapless     bool
	Capital      CapitalPolicy
}

// Plan - диапазон и капитал для OpenRequest
type Plan struct {
	MinBin   int32
	MaxBin   int32
	Capital  dlmm.Capital
	Swapless *dlmm.SwaplessOptions
}

// Initial - начальное размещение, всегда по целевому соотношению
func (p *Planner) Initial(activeBin int32, capital dlmm.Capital) Plan {
	minBin, maxBin := NormalRange(activeBin, p.Span, p.ReserveRatio)
	return Plan{MinBin: minBin, MaxBin: maxBin, Capital: capital}
}

// Reopen строит план после закрытия позиции. В swapless режиме диапазон
// зависит только от направления, иначе повторяет начальное размещение.
func (p *Planner) Reopen(direction dlmm.Direction, activeBin int32, available dlmm.Capital, ledger *reserve.Ledger) (Plan, error) {
	var plan Plan

	if p.Swapless {
		minBin, maxBin, err := SwaplessRange(direction, activeBin, p.Span)
		if err != nil {
			return Plan{}, err
		}
		plan = Plan{
			MinBin:   minBin,
			MaxBin:   maxBin,
			Capital:  SwaplessCapital(direction, available, ledger),
			Swapless: &dlmm.SwaplessOptions{Direction: direction},
		}
	} else {
		plan = p.Initial(activeBin, available)
	}

	plan.Capital = p.Capital.Prepare(plan.Capital, ledger)
	if plan.Capital.IsZero() {
		return Plan{}, ErrNothingToDeploy
	}
	return plan, nil
}
