// =============================================
// File: internal/strategy/gate.go
// =============================================
package strategy

import "github.com/rovshanmuradov/dlmm-bot/internal/dlmm"

// Gate подавляет первую ребалансировку, пока цена не сдвинется на
// threshold бинов от бина открытия. После срабатывания отключается навсегда.
type Gate struct {
	startBin  int32
	threshold int32
	direction dlmm.Direction // DirectionNone - абсолютное расстояние
	active    bool
}

// NewGate определяет направление по диапазону позиции относительно startBin:
// позиция целиком ниже старта (резерв) ждет движения вверх, целиком выше (токен) - вниз.
func NewGate(startBin, lowerBin, upperBin int32, threshold int) *Gate {
	g := &Gate{
		startBin:  startBin,
		threshold: int32(threshold),
		active:    threshold > 0,
	}
	switch {
	case upperBin <= startBin && lowerBin < startBin:
		g.direction = dlmm.DirectionUp
	case lowerBin >= startBin && upperBin > startBin:
		g.direction = dlmm.DirectionDown
	}
	return g
}

// Moved - пройденное расстояние в направлении гейта (может быть отрицательным)
func (g *Gate) Moved(activeBin int32) int32 {
	switch g.direction {
	case dlmm.DirectionUp:
		return activeBin - g.startBin
	case dlmm.DirectionDown:
		return g.startBin - activeBin
	default:
		d := activeBin - g.startBin
		if d < 0 {
			d = -d
		}
		return d
	}
}

// Observe обновляет состояние и возвращает true, если гейт все еще блокирует
func (g *Gate) Observe(activeBin int32) bool {
	if !g.active {
		return false
	}
	if g.Moved(activeBin) >= g.threshold {
		g.active = false
	}
	return g.active
}

func (g *Gate) Active() bool { return g.active }

func (g *Gate) Direction() dlmm.Direction { return g.direction }

func (g *Gate) StartBin() int32 { return g.startBin }
