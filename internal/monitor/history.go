// internal/monitor/history.go
package monitor

import (
	"sync"
	"time"

	"github.com/rovshanmuradov/dlmm-bot/internal/dlmm"
)

const defaultHistorySize = 100

// RebalanceEvent - запись об одной попытке ребалансировки
type RebalanceEvent struct {
	ID              string         `json:"id"`
	At              time.Time      `json:"at"`
	Direction       dlmm.Direction `json:"direction"`
	OldPositionID   string         `json:"old_position_id"`
	NewPositionID   string         `json:"new_position_id,omitempty"`
	MinBin          int32          `json:"min_bin"`
	MaxBin          int32          `json:"max_bin"`
	FeesRealizedUSD float64        `json:"fees_realized_usd"`
	NewBaselineUSD  float64        `json:"new_baseline_usd"`
	Success         bool           `json:"success"`
	Err             string         `json:"error,omitempty"`
}

// History хранит последние события, старые вытесняются
type History struct {
	mu     sync.RWMutex
	events []RebalanceEvent
	limit  int
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = defaultHistorySize
	}
	return &History{limit: limit}
}

func (h *History) Add(e RebalanceEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.events = append(h.events, e)
	if over := len(h.events) - h.limit; over > 0 {
		h.events = append(h.events[:0:0], h.events[over:]...)
	}
}

// Events возвращает копию, от старых к новым
func (h *History) Events() []RebalanceEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]RebalanceEvent, len(h.events))
	copy(out, h.events)
	return out
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.events)
}

// Last возвращает последнее событие, ok=false если журнал пуст
func (h *History) Last() (RebalanceEvent, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.events) == 0 {
		return RebalanceEvent{}, false
	}
	return h.events[len(h.events)-1], true
}
