// internal/monitor/history_test.go
package monitor

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryDropsOldestBeyondLimit(t *testing.T) {
	h := NewHistory(3)
	for i := 1; i <= 5; i++ {
		h.Add(RebalanceEvent{ID: fmt.Sprintf("ev-%d", i)})
	}

	events := h.Events()
	require.Len(t, events, 3)
	assert.Equal(t, "ev-3", events[0].ID)
	assert.Equal(t, "ev-5", events[2].ID)

	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, "ev-5", last.ID)
}

func TestHistoryEventsIsCopy(t *testing.T) {
	h := NewHistory(0)
	h.Add(RebalanceEvent{ID: "a"})

	events := h.Events()
	events[0].ID = "changed"
	assert.Equal(t, "a", h.Events()[0].ID)

	_, ok := NewHistory(1).Last()
	assert.False(t, ok)
}

func TestStatusRowRender(t *testing.T) {
	row := StatusRow{
		Time:       time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC),
		ActiveBin:  106,
		LowerBin:   95,
		UpperBin:   105,
		SessionPnL: -1.5,
		Action:     actionCooldown,
	}
	out := row.Render()
	assert.Contains(t, out, "09:30:00")
	assert.Contains(t, out, "[95,105]")
	assert.Contains(t, out, "cooldown")
	assert.True(t, strings.Contains(StatusHeader(), "SESSION"))
}

func TestSummaryRender(t *testing.T) {
	s := &Summary{
		Pool:           "pool",
		PositionID:     "pos-2",
		Reason:         "exit:take-profit",
		RebalanceCount: 2,
		LifetimePnL:    12.5,
	}
	out := s.Render()
	assert.Contains(t, out, "Session summary")
	assert.Contains(t, out, "pos-2")
	assert.Contains(t, out, "exit:take-profit")
	assert.Contains(t, out, "+12.50")
	assert.Zero(t, s.Duration())
}
