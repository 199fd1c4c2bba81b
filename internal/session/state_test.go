// internal/session/state_test.go
package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/dlmm-bot/internal/dlmm"
)

func newState(t *testing.T, mode CompoundMode) *State {
	t.Helper()
	s, err := New(dlmm.Capital{Reserve: 10_000_000_000}, 1000, true, mode, false, time.Unix(0, 0))
	require.NoError(t, err)
	return s
}

func sampleClose() CloseValuation {
	return CloseValuation{
		Withdrawn:     dlmm.Capital{Reserve: 5_000, Token: 700},
		Fees:          dlmm.Capital{Reserve: 30, Token: 9},
		WithdrawnUSD:  1000,
		FeeReserveUSD: 6,
		FeeTokenUSD:   4,
	}
}

func TestNewRequiresPositiveDeposit(t *testing.T) {
	_, err := New(dlmm.Capital{}, 0, true, CompoundBoth, false, time.Now())
	assert.Error(t, err)
}

func TestPlanRedeployBranches(t *testing.T) {
	tests := []struct {
		mode       CompoundMode
		redeployed float64
		compounded float64
		claimed    float64
		capital    dlmm.Capital
	}{
		{CompoundBoth, 1010, 10, 0, dlmm.Capital{Reserve: 5_030, Token: 709}},
		{CompoundSOLOnly, 1006, 6, 4, dlmm.Capital{Reserve: 5_030, Token: 700}},
		{CompoundTokenOnly, 1004, 4, 6, dlmm.Capital{Reserve: 5_000, Token: 709}},
		{CompoundNone, 1000, 0, 10, dlmm.Capital{Reserve: 5_000, Token: 700}},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			plan := PlanRedeploy(tt.mode, sampleClose())
			assert.InDelta(t, tt.redeployed, plan.RedeployedUSD, 1e-9)
			assert.InDelta(t, tt.compounded, plan.CompoundedUSD, 1e-9)
			assert.InDelta(t, tt.claimed, plan.ClaimedUSD, 1e-9)
			assert.Equal(t, tt.capital, plan.Capital)
		})
	}
}

func TestPlanSwaplessRedeployClaimsTrimmedSideFees(t *testing.T) {
	tests := []struct {
		name       string
		mode       CompoundMode
		direction  dlmm.Direction
		compounded float64
		claimed    float64
		capital    dlmm.Capital
	}{
		{"up both", CompoundBoth, dlmm.DirectionUp, 4, 6, dlmm.Capital{Reserve: 5_000, Token: 709}},
		{"up sol_only", CompoundSOLOnly, dlmm.DirectionUp, 0, 10, dlmm.Capital{Reserve: 5_000, Token: 700}},
		{"up token_only", CompoundTokenOnly, dlmm.DirectionUp, 4, 6, dlmm.Capital{Reserve: 5_000, Token: 709}},
		{"down both", CompoundBoth, dlmm.DirectionDown, 6, 4, dlmm.Capital{Reserve: 5_030, Token: 700}},
		{"down token_only", CompoundTokenOnly, dlmm.DirectionDown, 0, 10, dlmm.Capital{Reserve: 5_000, Token: 700}},
		{"down none", CompoundNone, dlmm.DirectionDown, 0, 10, dlmm.Capital{Reserve: 5_000, Token: 700}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := PlanSwaplessRedeploy(tt.mode, tt.direction, sampleClose())
			assert.Equal(t, tt.mode, plan.Mode)
			assert.InDelta(t, tt.compounded, plan.CompoundedUSD, 1e-9)
			assert.InDelta(t, tt.claimed, plan.ClaimedUSD, 1e-9)
			assert.InDelta(t, 1010, plan.RedeployedUSD+plan.ClaimedUSD, 1e-9)
			assert.Equal(t, tt.capital, plan.Capital)
		})
	}
}

func TestBaselineAfterBothModeIsFullRedeployedValue(t *testing.T) {
	s := newState(t, CompoundBoth)
	plan := PlanRedeploy(s.EffectiveMode(), sampleClose())

	baseline, err := s.ApplyRebalance(plan, 0, 0)
	require.NoError(t, err)

	assert.InDelta(t, 1010, baseline, 1e-9)
	assert.InDelta(t, 1010, s.BaselineUSD, 1e-9)
	assert.InDelta(t, 10, s.TotalCompoundedFeesUSD, 1e-9)
	assert.Zero(t, s.TotalClaimedFeesUSD)
}

func TestBaselineAfterClaimToWalletIsPositionOnly(t *testing.T) {
	s := newState(t, CompoundBoth)
	s.AutoCompound = false
	assert.Equal(t, CompoundNone, s.EffectiveMode())

	_, err := s.ApplyRebalance(PlanRedeploy(s.EffectiveMode(), sampleClose()), 0, 0)
	require.NoError(t, err)

	assert.InDelta(t, 1000, s.BaselineUSD, 1e-9)
	assert.InDelta(t, 10, s.TotalClaimedFeesUSD, 1e-9)
}

func TestReportedDepositOverridesComputedBaseline(t *testing.T) {
	s := newState(t, CompoundBoth)
	_, err := s.ApplyRebalance(PlanRedeploy(CompoundBoth, sampleClose()), 25, 1002.5)
	require.NoError(t, err)
	assert.InDelta(t, 1002.5, s.BaselineUSD, 1e-9)
}

func TestSetAsideReducesComputedBaseline(t *testing.T) {
	s := newState(t, CompoundBoth)
	_, err := s.ApplyRebalance(PlanRedeploy(CompoundBoth, sampleClose()), 60, 0)
	require.NoError(t, err)
	assert.InDelta(t, 950, s.BaselineUSD, 1e-9)
	assert.InDelta(t, 60, s.SetAsideUSD, 1e-9)
}

func TestRebalanceCountIncreases(t *testing.T) {
	s := newState(t, CompoundBoth)
	for i := 1; i <= 3; i++ {
		_, err := s.ApplyRebalance(PlanRedeploy(CompoundBoth, sampleClose()), 0, 0)
		require.NoError(t, err)
		assert.Equal(t, i, s.RebalanceCount)
	}
}

func TestApplyRebalanceRejectsNonPositiveBaseline(t *testing.T) {
	s := newState(t, CompoundBoth)
	_, err := s.ApplyRebalance(RedeployPlan{RedeployedUSD: 10}, 10, 0)
	assert.ErrorIs(t, err, ErrInvalidBaseline)
	assert.Equal(t, 0, s.RebalanceCount)
	assert.InDelta(t, 1000, s.BaselineUSD, 1e-9)
}

func TestSessionAndLifetimePnL(t *testing.T) {
	s := newState(t, CompoundNone)
	s.AutoCompound = false
	_, err := s.ApplyRebalance(PlanRedeploy(s.EffectiveMode(), sampleClose()), 0, 0)
	require.NoError(t, err)

	// после ребалансировки позиция выросла до 1030 + 5 комиссий
	s.Update(1030, 5)

	assert.InDelta(t, 35, s.SessionPnL(), 1e-9)
	assert.InDelta(t, 3.5, s.SessionPnLPercent(), 1e-9)
	// 1035 + 10 claimed - 1000 initial
	assert.InDelta(t, 45, s.LifetimePnL(), 1e-9)
	assert.InDelta(t, 4.5, s.LifetimePnLPercent(), 1e-9)
}

func TestParseCompoundMode(t *testing.T) {
	m, err := ParseCompoundMode("token_only")
	require.NoError(t, err)
	assert.Equal(t, CompoundTokenOnly, m)

	_, err = ParseCompoundMode("all")
	assert.Error(t, err)
}
