// internal/monitor/monitor.go
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rovshanmuradov/dlmm-bot/internal/dlmm"
	"github.com/rovshanmuradov/dlmm-bot/internal/exit"
	"github.com/rovshanmuradov/dlmm-bot/internal/reserve"
	"github.com/rovshanmuradov/dlmm-bot/internal/session"
	"github.com/rovshanmuradov/dlmm-bot/internal/strategy"
	"github.com/rovshanmuradov/dlmm-bot/internal/utils/metrics"
	"github.com/rovshanmuradov/dlmm-bot/internal/utils/retry"
	"go.uber.org/zap"
)

var (
	ErrPositionLost    = errors.New("position lookup failed")
	ErrPriceFeedLost   = errors.New("price feed unavailable")
	ErrPreflightFailed = errors.New("rebalance would not cover its own costs")
)

const (
	ReasonShutdown = "shutdown"
	reasonFatal    = "fatal:"
)

// WalletInfo - данные кошелька для preflight. Может отсутствовать.
type WalletInfo interface {
	ReserveBalance(ctx context.Context) (uint64, error)
	PriorityFee(ctx context.Context, computeUnits uint32) (uint64, error)
}

// Deps - внешние зависимости монитора
type Deps struct {
	Pool    dlmm.PoolClient
	Prices  dlmm.PriceOracle
	Swapper dlmm.Swapper
	Wallet  WalletInfo
	Retry   *retry.Wrapper
	Metrics *metrics.Collector
	Logger  *zap.Logger
}

// Monitor ведет одну позицию от открытия до завершения.
// Все поля ниже mu меняются только горутиной Run.
type Monitor struct {
	cfg     Config
	pool    dlmm.PoolClient
	prices  dlmm.PriceOracle
	swapper dlmm.Swapper
	wallet  WalletInfo
	retry   *retry.Wrapper
	metrics *metrics.Collector
	logger  *zap.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)

	state   atomic.Int32
	updates chan StatusRow
	history *History

	planner    *strategy.Planner
	exitEngine *exit.Engine
	ledger     *reserve.Ledger

	poolMeta        *dlmm.PoolMetadata
	session         *session.State
	gate            *strategy.Gate
	positionID      string
	lowerBin        int32
	upperBin        int32
	activeBin       int32
	lastQuote       quote
	lastRebalanceAt time.Time
	lastCheckAt     time.Time
	priceFailures   int
	ticks           int
	positionClosed  bool
	exitSwapSig     string
	exitSwapErr     error

	mu      sync.Mutex
	summary *Summary
}

func New(cfg Config, deps Deps) (*Monitor, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid monitor config: %w", err)
	}
	if deps.Pool == nil || deps.Prices == nil || deps.Swapper == nil {
		return nil, errors.New("pool client, price oracle and swapper are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("monitor")

	rw := deps.Retry
	if rw == nil {
		policy := retry.DefaultPolicy()
		policy.Permanent = dlmm.IsPermanent
		rw = retry.New(logger, policy, retry.WithRetryHook(deps.Metrics.RecordRetry))
	}

	return &Monitor{
		cfg:     cfg,
		pool:    deps.Pool,
		prices:  deps.Prices,
		swapper: deps.Swapper,
		wallet:  deps.Wallet,
		retry:   rw,
		metrics: deps.Metrics,
		logger:  logger,
		now:     time.Now,
		sleep:   sleepContext,
		updates: make(chan StatusRow, 16),
		history: NewHistory(defaultHistorySize),
		planner: &strategy.Planner{
			Span:         cfg.Span,
			ReserveRatio: cfg.ReserveRatio,
			Swapless:     cfg.Swapless,
			Capital:      cfg.Capital,
		},
		exitEngine: exit.NewEngine(cfg.Exit),
		ledger:     reserve.NewLedger(),
	}, nil
}

// Updates отдает строку статуса после каждого тика. Канал закрывается при завершении.
func (m *Monitor) Updates() <-chan StatusRow {
	return m.updates
}

// History возвращает журнал ребалансировок
func (m *Monitor) History() *History {
	return m.history
}

// Summary доступна после завершения Run
func (m *Monitor) Summary() *Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summary
}

// Run открывает позицию и ведет ее до выхода, фатальной ошибки или отмены ctx.
// Отмена проверяется только между тиками, начатый тик всегда доходит до конца.
func (m *Monitor) Run(ctx context.Context) (*Summary, error) {
	if err := m.open(ctx); err != nil {
		return m.terminate(reasonFatal+"open", err), err
	}

	ticker := time.NewTicker(m.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return m.shutdown(ctx)
		case <-ticker.C:
			out := m.tick(context.WithoutCancel(ctx))
			if out.done {
				return m.terminate(out.reason, out.err), out.err
			}
		}
	}
}

// shutdown: позиция остается открытой, если не включен close_on_shutdown
func (m *Monitor) shutdown(ctx context.Context) (*Summary, error) {
	if !m.cfg.CloseOnShutdown || m.positionID == "" {
		m.logger.Info("🛑 Shutdown requested, leaving position open",
			zap.String("position", m.positionID))
		return m.terminate(ReasonShutdown, nil), nil
	}

	m.logger.Info("🛑 Shutdown requested, closing position",
		zap.String("position", m.positionID))
	m.setState(StateClosing)
	if _, err := m.closePosition(context.WithoutCancel(ctx)); err != nil {
		err = fmt.Errorf("close on shutdown: %w", err)
		return m.terminate(ReasonShutdown, err), err
	}
	return m.terminate(ReasonShutdown, nil), nil
}

func (m *Monitor) terminate(reason string, err error) *Summary {
	m.setState(StateTerminated)
	s := m.buildSummary(reason, err)

	m.mu.Lock()
	m.summary = s
	m.mu.Unlock()
	close(m.updates)

	if err != nil {
		m.logger.Error("❌ Monitor terminated", zap.String("reason", reason), zap.Error(err))
	} else {
		m.logger.Info("🏁 Monitor terminated", zap.String("reason", reason))
	}
	return s
}

func (m *Monitor) closePosition(ctx context.Context) (*dlmm.CloseResult, error) {
	id := m.positionID
	res, err := retry.Do(ctx, m.retry, "close_position", func(ctx context.Context) (*dlmm.CloseResult, error) {
		res, err := m.pool.ClosePosition(ctx, id)
		if err != nil {
			return nil, err
		}
		if !res.Success {
			return nil, fmt.Errorf("close of %s reported failure", id)
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	m.positionClosed = true
	return res, nil
}

func (m *Monitor) openPosition(ctx context.Context, plan strategy.Plan, allowExisting bool, ledger *reserve.Ledger) (*dlmm.OpenResult, error) {
	x, y := m.poolMeta.XY(plan.Capital)
	req := &dlmm.OpenRequest{
		Pool:          m.cfg.Pool,
		MinBin:        plan.MinBin,
		MaxBin:        plan.MaxBin,
		Span:          m.cfg.Span,
		AmountX:       x,
		AmountY:       y,
		ReserveRatio:  m.cfg.ReserveRatio,
		Strategy:      m.cfg.Strategy,
		Swapless:      plan.Swapless,
		AllowExisting: allowExisting,
	}
	return retry.Do(ctx, m.retry, "open_position", func(ctx context.Context) (*dlmm.OpenResult, error) {
		return m.pool.OpenPosition(ctx, req, ledger)
	})
}

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
