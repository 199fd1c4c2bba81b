// =============================================
// File: internal/strategy/swapless.go
// =============================================
package strategy

import (
	"fmt"

	"github.com/rovshanmuradov/dlmm-bot/internal/dlmm"
	"github.com/rovshanmuradov/dlmm-bot/internal/reserve"
)

// SwaplessRange привязывает новый диапазон к активному бину одним краем.
// UP: [active, active+span), DOWN: (active-span, active].
func SwaplessRange(direction dlmm.Direction, activeBin int32, span int) (minBin, maxBin int32, err error) {
	if span < 1 {
		return 0, 0, fmt.Errorf("invalid span %d", span)
	}
	s := int32(span)
	switch direction {
	case dlmm.DirectionUp:
		return activeBin, activeBin + s - 1, nil
	case dlmm.DirectionDown:
		return activeBin - s + 1, activeBin, nil
	default:
		return 0, 0, fmt.Errorf("swapless range requires a direction, got %s", direction)
	}
}

// SwaplessCapital выбирает рабочий актив по направлению. Вторая сторона
// остается в кошельке и учитывается в ledger как trimmed.
func SwaplessCapital(direction dlmm.Direction, available dlmm.Capital, ledger *reserve.Ledger) dlmm.Capital {
	switch direction {
	case dlmm.DirectionUp:
		if ledger != nil {
			ledger.AddTrimmed(reserve.SideReserve, available.Reserve)
		}
		return dlmm.Capital{Token: available.Token}
	case dlmm.DirectionDown:
		if ledger != nil {
			ledger.AddTrimmed(reserve.SideToken, available.Token)
		}
		return dlmm.Capital{Reserve: available.Reserve}
	default:
		return available
	}
}
