// internal/session/state.go
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/rovshanmuradov/dlmm-bot/internal/dlmm"
)

// State агрегирует один запуск мониторинга. Меняется только монитором,
// поэтому синхронизация не нужна.
type State struct {
	StartedAt         time.Time
	InitialDeposit    dlmm.Capital
	InitialDepositUSD float64

	// BaselineUSD - знаменатель session P&L, сбрасывается после каждой ребалансировки
	BaselineUSD            float64
	CumulativeDepositsUSD  float64
	TotalClaimedFeesUSD    float64
	TotalCompoundedFeesUSD float64
	// SetAsideUSD - капитал, выведенный из позиции, но не внесенный обратно (буфер, лимит, swapless-остаток)
	SetAsideUSD    float64
	RebalanceCount int

	AutoCompound bool
	Mode         CompoundMode
	Swapless     bool

	PositionValueUSD float64
	UnclaimedFeesUSD float64
}

// New создается один раз при открытии позиции
func New(deposit dlmm.Capital, depositUSD float64, autoCompound bool, mode CompoundMode, swapless bool, now time.Time) (*State, error) {
	if depositUSD <= 0 {
		return nil, fmt.Errorf("initial deposit value must be positive, got %.4f", depositUSD)
	}
	return &State{
		StartedAt:             now,
		InitialDeposit:        deposit,
		InitialDepositUSD:     depositUSD,
		BaselineUSD:           depositUSD,
		CumulativeDepositsUSD: depositUSD,
		AutoCompound:          autoCompound,
		Mode:                  mode,
		Swapless:              swapless,
		PositionValueUSD:      depositUSD,
	}, nil
}

// EffectiveMode - при выключенном авто-компаундинге все комиссии идут в кошелек
func (s *State) EffectiveMode() CompoundMode {
	if !s.AutoCompound {
		return CompoundNone
	}
	return s.Mode
}

// Update сохраняет оценку текущего тика
func (s *State) Update(positionUSD, unclaimedFeesUSD float64) {
	s.PositionValueUSD = positionUSD
	s.UnclaimedFeesUSD = unclaimedFeesUSD
}

func (s *State) CurrentValueUSD() float64 {
	return s.PositionValueUSD + s.UnclaimedFeesUSD
}

func (s *State) SessionPnL() float64 {
	return s.CurrentValueUSD() - s.BaselineUSD
}

func (s *State) SessionPnLPercent() float64 {
	if s.BaselineUSD == 0 {
		return 0
	}
	return s.SessionPnL() / s.BaselineUSD * 100
}

// LifetimePnL считает заклейменные комиссии и отложенный капитал реализованными
func (s *State) LifetimePnL() float64 {
	return s.CurrentValueUSD() + s.TotalClaimedFeesUSD + s.SetAsideUSD - s.CumulativeDepositsUSD
}

func (s *State) LifetimePnLPercent() float64 {
	if s.CumulativeDepositsUSD == 0 {
		return 0
	}
	return s.LifetimePnL() / s.CumulativeDepositsUSD * 100
}

var ErrInvalidBaseline = errors.New("redeployed value must be positive")

// ApplyRebalance фиксирует успешное переоткрытие. Новый baseline -
// оценка SDK, если она есть, иначе фактически внесенная стоимость.
func (s *State) ApplyRebalance(plan RedeployPlan, setAsideUSD, reportedDepositUSD float64) (float64, error) {
	baseline := reportedDepositUSD
	if baseline <= 0 {
		baseline = plan.RedeployedUSD - setAsideUSD
	}
	if baseline <= 0 {
		return 0, ErrInvalidBaseline
	}

	s.BaselineUSD = baseline
	s.TotalClaimedFeesUSD += plan.ClaimedUSD
	s.TotalCompoundedFeesUSD += plan.CompoundedUSD
	if setAsideUSD > 0 {
		s.SetAsideUSD += setAsideUSD
	}
	s.RebalanceCount++

	// стоимость позиции сразу после открытия равна baseline
	s.PositionValueUSD = baseline
	s.UnclaimedFeesUSD = 0
	return baseline, nil
}
