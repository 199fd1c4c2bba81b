// =============================================
// File: internal/strategy/rebalance.go
// =============================================
package strategy

import "github.com/rovshanmuradov/dlmm-bot/internal/dlmm"

// Decision - результат проверки диапазона
type Decision struct {
	NeedsRebalance bool
	Direction      dlmm.Direction
}

// Decide возвращает необходимость ребалансировки. Срабатывает только когда
// активный бин строго вне [lowerBin, upperBin]; близость к краю не считается.
func Decide(activeBin, lowerBin, upperBin int32) Decision {
	switch {
	case activeBin < lowerBin:
		return Decision{NeedsRebalance: true, Direction: dlmm.DirectionDown}
	case activeBin > upperBin:
		return Decision{NeedsRebalance: true, Direction: dlmm.DirectionUp}
	default:
		return Decision{}
	}
}
