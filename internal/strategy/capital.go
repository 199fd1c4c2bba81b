// =============================================
// File: internal/strategy/capital.go
// =============================================
package strategy

import (
	"github.com/rovshanmuradov/dlmm-bot/internal/dlmm"
	"github.com/rovshanmuradov/dlmm-bot/internal/reserve"
)

// CapitalPolicy - что откладывается из резерва перед повторным открытием (lamports)
type CapitalPolicy struct {
	FeeBuffer        uint64
	MaxReserveDeploy uint64 // 0 - без лимита
	RoundingUnit     uint64 // 0 - без округления
}

// Prepare вычитает буфер на комиссии, применяет лимит и округление.
// Каждая отложенная сумма записывается в ledger.
func (p CapitalPolicy) Prepare(c dlmm.Capital, ledger *reserve.Ledger) dlmm.Capital {
	if c.Reserve == 0 {
		return c
	}

	buffer := min(p.FeeBuffer, c.Reserve)
	c.Reserve -= buffer
	ledger.AddFeeBuffer(buffer)

	if p.MaxReserveDeploy > 0 && c.Reserve > p.MaxReserveDeploy {
		ledger.AddCapped(c.Reserve - p.MaxReserveDeploy)
		c.Reserve = p.MaxReserveDeploy
	}

	if p.RoundingUnit > 1 {
		rem := c.Reserve % p.RoundingUnit
		c.Reserve -= rem
		ledger.AddRounding(rem)
	}
	return c
}
