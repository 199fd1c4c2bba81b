// internal/monitor/render.go
package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorPrimary  = lipgloss.Color("#00E5FF")
	colorPositive = lipgloss.Color("#2AFFAA")
	colorNegative = lipgloss.Color("#FF5555")
	colorWarning  = lipgloss.Color("#FFB500")
	colorMuted    = lipgloss.Color("#6C7280")
)

const (
	actionHold       = "hold"
	actionGated      = "gated"
	actionCooldown   = "cooldown"
	actionSkipped    = "skipped"
	actionRebalanced = "rebalanced"
	actionNoBin      = "no-bin"
	actionNoPrice    = "no-price"
)

// StatusRow - снимок состояния после тика
type StatusRow struct {
	Time          time.Time
	Tick          int
	State         State
	PositionID    string
	ActiveBin     int32
	LowerBin      int32
	UpperBin      int32
	InRange       bool
	PositionUSD   float64
	FeesUSD       float64
	SessionPnL    float64
	SessionPnLPct float64
	LifetimePnL   float64
	Rebalances    int
	TrailingLevel float64
	Action        string
}

func (m *Monitor) statusRow(action string) StatusRow {
	tr := m.exitEngine.Trailing()
	row := StatusRow{
		Time:          m.now(),
		Tick:          m.ticks,
		State:         m.State(),
		PositionID:    m.positionID,
		ActiveBin:     m.activeBin,
		LowerBin:      m.lowerBin,
		UpperBin:      m.upperBin,
		InRange:       m.activeBin >= m.lowerBin && m.activeBin <= m.upperBin,
		PositionUSD:   m.session.PositionValueUSD,
		FeesUSD:       m.session.UnclaimedFeesUSD,
		SessionPnL:    m.session.SessionPnL(),
		SessionPnLPct: m.session.SessionPnLPercent(),
		LifetimePnL:   m.session.LifetimePnL(),
		Rebalances:    m.session.RebalanceCount,
		Action:        action,
	}
	if tr.Active {
		row.TrailingLevel = tr.Level
	}
	return row
}

func pnlStyle(v float64) lipgloss.Style {
	switch {
	case v > 0:
		return lipgloss.NewStyle().Foreground(colorPositive)
	case v < 0:
		return lipgloss.NewStyle().Foreground(colorNegative)
	default:
		return lipgloss.NewStyle().Foreground(colorMuted)
	}
}

var columns = []struct {
	title string
	width int
}{
	{"TIME", 10}, {"BIN", 8}, {"RANGE", 15}, {"VALUE", 12}, {"FEES", 10},
	{"SESSION", 18}, {"LIFETIME", 12}, {"REB", 5}, {"TRAIL", 8}, {"ACTION", 11},
}

func cell(width int, s string) string {
	return lipgloss.NewStyle().Width(width).Render(s)
}

// StatusHeader - заголовок таблицы статуса
func StatusHeader() string {
	head := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = head.Width(c.width).Render(c.title)
	}
	return strings.Join(parts, " ")
}

// Render - строка таблицы статуса
func (r StatusRow) Render() string {
	rangeStyle := lipgloss.NewStyle()
	if !r.InRange {
		rangeStyle = rangeStyle.Foreground(colorWarning)
	}
	trail := "-"
	if r.TrailingLevel != 0 {
		trail = fmt.Sprintf("%.2f%%", r.TrailingLevel)
	}
	action := r.Action
	if action == actionRebalanced {
		action = lipgloss.NewStyle().Foreground(colorPositive).Render(action)
	} else if action != actionHold {
		action = lipgloss.NewStyle().Foreground(colorWarning).Render(action)
	}

	values := []string{
		r.Time.Format("15:04:05"),
		fmt.Sprintf("%d", r.ActiveBin),
		rangeStyle.Render(fmt.Sprintf("[%d,%d]", r.LowerBin, r.UpperBin)),
		fmt.Sprintf("$%.2f", r.PositionUSD),
		fmt.Sprintf("$%.2f", r.FeesUSD),
		pnlStyle(r.SessionPnL).Render(fmt.Sprintf("$%+.2f %+.2f%%", r.SessionPnL, r.SessionPnLPct)),
		pnlStyle(r.LifetimePnL).Render(fmt.Sprintf("$%+.2f", r.LifetimePnL)),
		fmt.Sprintf("%d", r.Rebalances),
		trail,
		action,
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = cell(columns[i].width, v)
	}
	return strings.Join(parts, " ")
}
