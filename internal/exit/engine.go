// internal/exit/engine.go
package exit

// Reason - причина выхода, используется в логах, метриках и сводке
type Reason string

const (
	ReasonTakeProfit   Reason = "take-profit"
	ReasonTrailingStop Reason = "trailing-stop"
	ReasonStopLoss     Reason = "stop-loss"
)

// Config: нулевое значение отключает правило
type Config struct {
	TakeProfitPercent       float64
	StopLossPercent         float64
	TrailingTriggerPercent  float64
	TrailingDistancePercent float64
}

type Decision struct {
	Triggered  bool
	Reason     Reason
	PnLPercent float64
	// Level - порог, который сработал
	Level float64
}

// Engine оценивает условия выхода на каждом тике. Единственное изменяемое
// состояние - трейлинг-стоп.
type Engine struct {
	cfg      Config
	trailing *TrailingStop
}

func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg:      cfg,
		trailing: NewTrailingStop(cfg.TrailingTriggerPercent, cfg.TrailingDistancePercent),
	}
}

// Evaluate проверяет правила. Приоритет: take-profit, trailing-stop, stop-loss.
func (e *Engine) Evaluate(pnlPercent float64) Decision {
	// трейлинг обновляется всегда, даже если сработает другое правило
	trailingHit := e.trailing.Observe(pnlPercent)

	switch {
	case e.cfg.TakeProfitPercent > 0 && pnlPercent >= e.cfg.TakeProfitPercent:
		return Decision{Triggered: true, Reason: ReasonTakeProfit, PnLPercent: pnlPercent, Level: e.cfg.TakeProfitPercent}
	case trailingHit:
		return Decision{Triggered: true, Reason: ReasonTrailingStop, PnLPercent: pnlPercent, Level: e.trailing.State().Level}
	case e.cfg.StopLossPercent > 0 && pnlPercent <= -e.cfg.StopLossPercent:
		return Decision{Triggered: true, Reason: ReasonStopLoss, PnLPercent: pnlPercent, Level: -e.cfg.StopLossPercent}
	}
	return Decision{PnLPercent: pnlPercent}
}

func (e *Engine) Trailing() TrailingState { return e.trailing.State() }

// ResetTrailing вызывается после ребалансировки, если так настроено
func (e *Engine) ResetTrailing() { e.trailing.Reset() }
