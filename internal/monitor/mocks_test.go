// internal/monitor/mocks_test.go
package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/rovshanmuradov/dlmm-bot/internal/dlmm"
	"github.com/rovshanmuradov/dlmm-bot/internal/reserve"
	"github.com/rovshanmuradov/dlmm-bot/internal/session"
	"github.com/rovshanmuradov/dlmm-bot/internal/strategy"
	"github.com/rovshanmuradov/dlmm-bot/internal/utils/retry"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	reserveMint = "SOL"
	tokenMint   = "TOKEN"
	poolAddr    = "pool"
)

type mockPool struct{ mock.Mock }

func (m *mockPool) GetPool(ctx context.Context, pool string) (*dlmm.PoolMetadata, error) {
	args := m.Called(ctx, pool)
	meta, _ := args.Get(0).(*dlmm.PoolMetadata)
	return meta, args.Error(1)
}

func (m *mockPool) GetActiveBin(ctx context.Context, pool string) (int32, error) {
	args := m.Called(ctx, pool)
	return args.Get(0).(int32), args.Error(1)
}

func (m *mockPool) GetPosition(ctx context.Context, positionID string) (*dlmm.PositionSnapshot, error) {
	args := m.Called(ctx, positionID)
	snap, _ := args.Get(0).(*dlmm.PositionSnapshot)
	return snap, args.Error(1)
}

func (m *mockPool) ListPositions(ctx context.Context, pool string) ([]string, error) {
	args := m.Called(ctx, pool)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *mockPool) OpenPosition(ctx context.Context, req *dlmm.OpenRequest, ledger *reserve.Ledger) (*dlmm.OpenResult, error) {
	args := m.Called(ctx, req, ledger)
	res, _ := args.Get(0).(*dlmm.OpenResult)
	return res, args.Error(1)
}

func (m *mockPool) ClosePosition(ctx context.Context, positionID string) (*dlmm.CloseResult, error) {
	args := m.Called(ctx, positionID)
	res, _ := args.Get(0).(*dlmm.CloseResult)
	return res, args.Error(1)
}

type mockSwapper struct{ mock.Mock }

func (m *mockSwapper) Swap(ctx context.Context, inMint, outMint string, amount uint64) (string, error) {
	args := m.Called(ctx, inMint, outMint, amount)
	return args.String(0), args.Error(1)
}

type mockWallet struct{ mock.Mock }

func (m *mockWallet) ReserveBalance(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockWallet) PriorityFee(ctx context.Context, computeUnits uint32) (uint64, error) {
	args := m.Called(ctx, computeUnits)
	return args.Get(0).(uint64), args.Error(1)
}

type stubOracle struct {
	prices map[string]float64
	err    error
}

func (s *stubOracle) GetPrice(_ context.Context, mint string) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	p, ok := s.prices[mint]
	if !ok {
		return 0, dlmm.ErrPriceUnavailable
	}
	return p, nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// token - X (6 знаков), резерв - Y (9 знаков); 1 SOL = $100, 1 TOKEN = $1
func testPool() *dlmm.PoolMetadata {
	return &dlmm.PoolMetadata{
		Address:   poolAddr,
		MintX:     tokenMint,
		MintY:     reserveMint,
		DecimalsX: 6,
		DecimalsY: 9,
		BinStep:   10,
		ActiveBin: 100,
	}
}

func snapshot(id string, lower, upper int32, token, reserveAmt, feeToken, feeReserve uint64) *dlmm.PositionSnapshot {
	return &dlmm.PositionSnapshot{
		PositionID: id,
		Pool:       poolAddr,
		LowerBin:   lower,
		UpperBin:   upper,
		TotalX:     token,
		TotalY:     reserveAmt,
		FeeX:       feeToken,
		FeeY:       feeReserve,
	}
}

func baseConfig() Config {
	return Config{
		Pool:             poolAddr,
		Span:             10,
		ReserveRatio:     0.5,
		Strategy:         dlmm.StrategySpot,
		DepositReserve:   1,
		DepositToken:     100,
		AutoCompound:     true,
		CompoundMode:     session.CompoundBoth,
		Capital:          strategy.CapitalPolicy{FeeBuffer: 10_000_000},
		TickInterval:     time.Second,
		CheckInterval:    time.Second,
		LookupRetries:    3,
		LookupDelay:      time.Second,
		MaxPriceFailures: 2,
		Preflight: PreflightConfig{
			PositionRent: 57_000_000,
			BaseFee:      5_000,
			TxCount:      4,
			SafetyBuffer: 10_000_000,
			PriorityFee:  10_000,
			ComputeUnits: 400_000,
		},
	}
}

type harness struct {
	m       *Monitor
	pool    *mockPool
	prices  *stubOracle
	swapper *mockSwapper
	clock   *fakeClock
}

func newHarness(t *testing.T, mutate func(*Config)) *harness {
	t.Helper()
	cfg := baseConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	h := &harness{
		pool:    &mockPool{},
		prices:  &stubOracle{prices: map[string]float64{reserveMint: 100, tokenMint: 1}},
		swapper: &mockSwapper{},
		clock:   &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
	}
	logger := zaptest.NewLogger(t)
	rw := retry.New(logger, retry.Policy{MaxTries: 2, Delay: time.Millisecond, Permanent: dlmm.IsPermanent})

	m, err := New(cfg, Deps{
		Pool:    h.pool,
		Prices:  h.prices,
		Swapper: h.swapper,
		Retry:   rw,
		Logger:  logger,
	})
	require.NoError(t, err)
	m.now = h.clock.Now
	m.sleep = func(context.Context, time.Duration) {}
	h.m = m

	h.pool.On("GetPool", mock.Anything, poolAddr).Return(testPool(), nil).Maybe()
	return h
}

// open: позиция pos-1 в [95, 105] при активном бине 100, депозит $200
func (h *harness) open(t *testing.T) {
	t.Helper()
	h.pool.On("GetActiveBin", mock.Anything, poolAddr).Return(int32(100), nil).Once()
	h.pool.On("OpenPosition", mock.Anything, mock.Anything, mock.Anything).
		Return(&dlmm.OpenResult{PositionID: "pos-1"}, nil).Once()
	require.NoError(t, h.m.open(context.Background()))
}

func (h *harness) expectTick(snap *dlmm.PositionSnapshot, active int32) {
	h.pool.On("GetPosition", mock.Anything, snap.PositionID).Return(snap, nil).Once()
	h.pool.On("GetActiveBin", mock.Anything, poolAddr).Return(active, nil).Once()
}

func lastRow(t *testing.T, m *Monitor) StatusRow {
	t.Helper()
	var row StatusRow
	found := false
	for {
		select {
		case r := <-m.updates:
			row, found = r, true
		default:
			require.True(t, found, "no status row published")
			return row
		}
	}
}
