// =============================================
// File: internal/strategy/placement.go
// =============================================
package strategy

import (
	"github.com/shopspring/decimal"
)

// NormalRange делит span между сторонами пропорционально reserveRatio.
// 100% резерва - весь диапазон ниже активного бина, 0% - весь выше.
func NormalRange(activeBin int32, span int, reserveRatio float64) (minBin, maxBin int32) {
	s := int32(span)
	switch {
	case reserveRatio >= 1:
		return activeBin - s, activeBin
	case reserveRatio <= 0:
		return activeBin, activeBin + s
	}

	// decimal, чтобы 0.29*100 не превратилось в 28
	spanD := decimal.NewFromInt(int64(span))
	ratio := decimal.NewFromFloat(reserveRatio)
	below := spanD.Mul(ratio).Floor().IntPart()
	above := spanD.Mul(decimal.NewFromInt(1).Sub(ratio)).Floor().IntPart()

	return activeBin - int32(below), activeBin + int32(above)
}
