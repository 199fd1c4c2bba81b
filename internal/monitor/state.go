// internal/monitor/state.go
package monitor

import "go.uber.org/zap"

// State - фаза жизненного цикла позиции
type State int32

const (
	StateOpening State = iota
	StateMonitoring
	StateRebalancing
	StateClosing
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateOpening:
		return "OPENING"
	case StateMonitoring:
		return "MONITORING"
	case StateRebalancing:
		return "REBALANCING"
	case StateClosing:
		return "CLOSING"
	case StateTerminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

// transitions - допустимые переходы. TERMINATED достижим из любого состояния.
var transitions = map[State][]State{
	StateOpening:     {StateMonitoring},
	StateMonitoring:  {StateRebalancing, StateClosing},
	StateRebalancing: {StateMonitoring, StateClosing},
	StateClosing:     {},
}

func canTransition(from, to State) bool {
	if to == StateTerminated {
		return from != StateTerminated
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// State можно читать из любой горутины
func (m *Monitor) State() State {
	return State(m.state.Load())
}

func (m *Monitor) setState(to State) {
	from := m.State()
	if from == to {
		return
	}
	if !canTransition(from, to) {
		m.logger.Warn("⚠️ Unexpected state transition",
			zap.Stringer("from", from),
			zap.Stringer("to", to))
	}
	m.state.Store(int32(to))
	m.logger.Debug("State changed",
		zap.Stringer("from", from),
		zap.Stringer("to", to))
}
