// internal/exit/trailing.go
package exit

// TrailingState - снимок трейлинг-стопа для отображения
type TrailingState struct {
	Active bool
	Peak   float64
	Level  float64
}

// TrailingStop активируется при первом достижении trigger и дальше держит
// уровень peak - distance, который только растет.
type TrailingStop struct {
	trigger  float64
	distance float64
	state    TrailingState
}

func NewTrailingStop(triggerPercent, distancePercent float64) *TrailingStop {
	return &TrailingStop{trigger: triggerPercent, distance: distancePercent}
}

func (t *TrailingStop) Enabled() bool {
	return t.trigger > 0 && t.distance > 0
}

// Observe обновляет пик и возвращает true, если P&L опустился до уровня стопа
func (t *TrailingStop) Observe(pnlPercent float64) bool {
	if !t.Enabled() {
		return false
	}

	if !t.state.Active {
		if pnlPercent < t.trigger {
			return false
		}
		t.state = TrailingState{Active: true, Peak: pnlPercent, Level: pnlPercent - t.distance}
		return false
	}

	if pnlPercent > t.state.Peak {
		t.state.Peak = pnlPercent
		if level := pnlPercent - t.distance; level > t.state.Level {
			t.state.Level = level
		}
	}
	return pnlPercent <= t.state.Level
}

func (t *TrailingStop) State() TrailingState { return t.state }

func (t *TrailingStop) Reset() { t.state = TrailingState{} }
