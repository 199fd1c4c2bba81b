// internal/monitor/summary.go
package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rovshanmuradov/dlmm-bot/internal/reserve"
)

// Summary - итог сессии, собирается при переходе в TERMINATED
type Summary struct {
	Pool           string
	PositionID     string
	PositionClosed bool
	Reason         string
	Err            error

	StartedAt time.Time
	EndedAt   time.Time

	RebalanceCount     int
	InitialDepositUSD  float64
	BaselineUSD        float64
	FinalValueUSD      float64
	ClaimedFeesUSD     float64
	CompoundedFeesUSD  float64
	SetAsideUSD        float64
	SessionPnL         float64
	SessionPnLPercent  float64
	LifetimePnL        float64
	LifetimePnLPercent float64

	Reserve           reserve.Ledger
	Events            []RebalanceEvent
	ExitSwapSignature string
	ExitSwapErr       error
}

func (s *Summary) Duration() time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

func (m *Monitor) buildSummary(reason string, err error) *Summary {
	s := &Summary{
		Pool:              m.cfg.Pool,
		PositionID:        m.positionID,
		PositionClosed:    m.positionClosed,
		Reason:            reason,
		Err:               err,
		EndedAt:           m.now(),
		Reserve:           m.ledger.Snapshot(),
		Events:            m.history.Events(),
		ExitSwapSignature: m.exitSwapSig,
		ExitSwapErr:       m.exitSwapErr,
	}
	if st := m.session; st != nil {
		s.StartedAt = st.StartedAt
		s.RebalanceCount = st.RebalanceCount
		s.InitialDepositUSD = st.InitialDepositUSD
		s.BaselineUSD = st.BaselineUSD
		s.FinalValueUSD = st.CurrentValueUSD()
		s.ClaimedFeesUSD = st.TotalClaimedFeesUSD
		s.CompoundedFeesUSD = st.TotalCompoundedFeesUSD
		s.SetAsideUSD = st.SetAsideUSD
		s.SessionPnL = st.SessionPnL()
		s.SessionPnLPercent = st.SessionPnLPercent()
		s.LifetimePnL = st.LifetimePnL()
		s.LifetimePnLPercent = st.LifetimePnLPercent()
	}
	return s
}

// Render форматирует сводку для терминала
func (s *Summary) Render() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	label := lipgloss.NewStyle().Foreground(colorMuted).Width(22)

	var b strings.Builder
	b.WriteString(title.Render("📋 Session summary"))
	b.WriteString("\n")

	line := func(name, value string) {
		b.WriteString(label.Render(name))
		b.WriteString(value)
		b.WriteString("\n")
	}

	line("Pool", s.Pool)
	line("Position", fmt.Sprintf("%s (closed: %t)", s.PositionID, s.PositionClosed))
	line("Reason", s.Reason)
	if s.Err != nil {
		line("Error", lipgloss.NewStyle().Foreground(colorNegative).Render(s.Err.Error()))
	}
	line("Duration", s.Duration().Round(time.Second).String())
	line("Rebalances", fmt.Sprintf("%d", s.RebalanceCount))
	line("Initial deposit", fmt.Sprintf("$%.2f", s.InitialDepositUSD))
	line("Baseline", fmt.Sprintf("$%.2f", s.BaselineUSD))
	line("Final value", fmt.Sprintf("$%.2f", s.FinalValueUSD))
	line("Claimed fees", fmt.Sprintf("$%.2f", s.ClaimedFeesUSD))
	line("Compounded fees", fmt.Sprintf("$%.2f", s.CompoundedFeesUSD))
	line("Session P&L", pnlStyle(s.SessionPnL).Render(fmt.Sprintf("$%+.2f (%+.2f%%)", s.SessionPnL, s.SessionPnLPercent)))
	line("Lifetime P&L", pnlStyle(s.LifetimePnL).Render(fmt.Sprintf("$%+.2f (%+.2f%%)", s.LifetimePnL, s.LifetimePnLPercent)))
	line("Reserve set aside", s.Reserve.String())
	if s.ExitSwapSignature != "" {
		line("Exit swap", s.ExitSwapSignature)
	}
	if s.ExitSwapErr != nil {
		line("Exit swap error", lipgloss.NewStyle().Foreground(colorWarning).Render(s.ExitSwapErr.Error()))
	}
	return b.String()
}
