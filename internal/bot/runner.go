// internal/bot/runner.go
package bot

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/dlmm-bot/internal/blockchain/solbc"
	"github.com/rovshanmuradov/dlmm-bot/internal/config"
	"github.com/rovshanmuradov/dlmm-bot/internal/dlmm"
	"github.com/rovshanmuradov/dlmm-bot/internal/dlmm/gateway"
	"github.com/rovshanmuradov/dlmm-bot/internal/exit"
	"github.com/rovshanmuradov/dlmm-bot/internal/export"
	"github.com/rovshanmuradov/dlmm-bot/internal/monitor"
	"github.com/rovshanmuradov/dlmm-bot/internal/price"
	"github.com/rovshanmuradov/dlmm-bot/internal/session"
	"github.com/rovshanmuradov/dlmm-bot/internal/strategy"
	"github.com/rovshanmuradov/dlmm-bot/internal/utils/logger"
	"github.com/rovshanmuradov/dlmm-bot/internal/utils/metrics"
	"github.com/rovshanmuradov/dlmm-bot/internal/utils/retry"
)

const statusHeaderEvery = 20

type Runner struct {
	cfg      *config.Config
	logger   *logger.Logger
	metrics  *metrics.Collector
	shutdown *ShutdownHandler
}

func NewRunner(cfg *config.Config, log *logger.Logger) *Runner {
	r := &Runner{
		cfg:      cfg,
		logger:   log,
		metrics:  metrics.NewCollector(),
		shutdown: NewShutdownHandler(log.Logger, 15*time.Second),
	}
	r.shutdown.AddFunc("logger", log.Sync)
	return r
}

// Run ведет одну позицию до выхода, ошибки или SIGINT/SIGTERM
func (r *Runner) Run(ctx context.Context) (*monitor.Summary, error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer func() {
		if err := r.shutdown.Shutdown(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
		}
	}()

	mon, err := r.buildMonitor()
	if err != nil {
		return nil, err
	}

	r.logger.Info(fmt.Sprintf("🚀 Starting DLMM monitor for pool %s", r.cfg.PoolAddress))

	g, gctx := errgroup.WithContext(ctx)
	auxCtx, stopAux := context.WithCancel(gctx)

	var summary *monitor.Summary
	g.Go(func() error {
		defer stopAux()
		var err error
		summary, err = mon.Run(gctx)
		return err
	})

	g.Go(func() error {
		printStatus(mon.Updates())
		return nil
	})

	if r.cfg.MetricsAddr != "" {
		server := metrics.NewServer(r.cfg.MetricsAddr, r.metrics, r.logger.Logger)
		g.Go(func() error {
			// без метрик позиция продолжает работать
			if err := server.Run(auxCtx); err != nil {
				r.logger.Warn("⚠️ Metrics server stopped", zap.Error(err))
			}
			return nil
		})
	}

	err = g.Wait()
	if summary != nil {
		fmt.Println(summary.Render())
		r.exportReport(summary)
	}
	return summary, err
}

func (r *Runner) exportReport(s *monitor.Summary) {
	if r.cfg.ReportDir == "" {
		return
	}
	format, err := export.ParseFormat(r.cfg.ReportFormat)
	if err != nil {
		r.logger.Warn("⚠️ Report skipped", zap.Error(err))
		return
	}
	exporter := export.NewSessionExporter(r.logger.Logger)
	if _, err := exporter.ExportSession(s, export.ExportOptions{Format: format, OutputDir: r.cfg.ReportDir}); err != nil {
		r.logger.Error("❌ Failed to export session report", zap.Error(err))
	}
}

func printStatus(updates <-chan monitor.StatusRow) {
	n := 0
	for row := range updates {
		if n%statusHeaderEvery == 0 {
			fmt.Println(monitor.StatusHeader())
		}
		fmt.Println(row.Render())
		n++
	}
}

func (r *Runner) buildMonitor() (*monitor.Monitor, error) {
	cfg := r.cfg
	log := r.logger.Logger

	wallet, err := solana.PublicKeyFromBase58(cfg.WalletAddress)
	if err != nil {
		return nil, fmt.Errorf("wallet address: %w", err)
	}
	pool, err := solana.PublicKeyFromBase58(cfg.PoolAddress)
	if err != nil {
		return nil, fmt.Errorf("pool address: %w", err)
	}

	gw := gateway.NewClient(cfg.GatewayURL, cfg.WalletAddress, cfg.Gateway.Timeout, r.logger.WithComponent("gateway"))
	oracle := price.NewOracle(cfg.PriceAPIURL, cfg.Price.Timeout, cfg.Price.RequestsPerSecond, cfg.Price.CacheTTL,
		r.logger.WithComponent("price"))
	chain := solbc.NewClient(cfg.RPCURL, wallet, []solana.PublicKey{pool}, r.logger.WithComponent("solbc"))

	policy := retry.DefaultPolicy()
	policy.Permanent = dlmm.IsPermanent
	rw := retry.New(log, policy, retry.WithRetryHook(r.metrics.RecordRetry))

	mcfg, err := MonitorConfig(cfg)
	if err != nil {
		return nil, err
	}

	return monitor.New(mcfg, monitor.Deps{
		Pool:    gw,
		Prices:  oracle,
		Swapper: gw,
		Wallet:  chain,
		Retry:   rw,
		Metrics: r.metrics,
		Logger:  log,
	})
}

// MonitorConfig переводит файл конфигурации в параметры сессии (SOL -> lamports)
func MonitorConfig(cfg *config.Config) (monitor.Config, error) {
	st, err := dlmm.ParseStrategy(cfg.Position.Strategy)
	if err != nil {
		return monitor.Config{}, err
	}
	mode, err := session.ParseCompoundMode(cfg.Rebalance.CompoundMode)
	if err != nil {
		return monitor.Config{}, err
	}

	return monitor.Config{
		Pool:           cfg.PoolAddress,
		Span:           cfg.Position.SpanBins,
		ReserveRatio:   cfg.Position.ReserveRatio,
		Strategy:       st,
		DepositReserve: cfg.Position.DepositReserve,
		DepositToken:   cfg.Position.DepositToken,
		AllowExisting:  cfg.Position.AllowExisting,
		Swapless:       cfg.Rebalance.Swapless,
		AutoCompound:   cfg.Rebalance.AutoCompound,
		CompoundMode:   mode,
		Capital: strategy.CapitalPolicy{
			FeeBuffer:        monitor.LamportsFromSOL(cfg.Rebalance.FeeBufferSOL),
			MaxReserveDeploy: monitor.LamportsFromSOL(cfg.Rebalance.MaxReserveDeploySOL),
		},
		GateBins:  cfg.Rebalance.InitialGateBins,
		RearmGate: cfg.Rebalance.RearmGateOnRebalance,
		Exit: exit.Config{
			TakeProfitPercent:       cfg.Exit.TakeProfitPercent,
			StopLossPercent:         cfg.Exit.StopLossPercent,
			TrailingTriggerPercent:  cfg.Exit.TrailingTriggerPercent,
			TrailingDistancePercent: cfg.Exit.TrailingDistancePercent,
		},
		TrailingResetOnRebalance: cfg.Exit.TrailingResetOnRebalance,
		TickInterval:             cfg.Monitor.TickInterval,
		CheckInterval:            cfg.Monitor.RebalanceCheckInterval,
		Cooldown:                 cfg.Monitor.RebalanceCooldown,
		LookupRetries:            cfg.Monitor.PositionLookupRetries,
		LookupDelay:              cfg.Monitor.PositionLookupDelay,
		MaxPriceFailures:         cfg.Monitor.MaxPriceFailures,
		CloseOnShutdown:          cfg.Monitor.CloseOnShutdown,
		Preflight: monitor.PreflightConfig{
			PositionRent:         monitor.LamportsFromSOL(cfg.Preflight.PositionRentSOL),
			BaseFee:              cfg.Preflight.BaseFeeLamports,
			TxCount:              cfg.Preflight.TxCount,
			SafetyBuffer:         monitor.LamportsFromSOL(cfg.Preflight.SafetyBufferSOL),
			PriorityFee:          cfg.Preflight.PriorityFeeLamports,
			ComputeUnits:         cfg.Preflight.ComputeUnits,
			IncludeWalletBalance: cfg.Preflight.IncludeWalletBalance,
		},
	}, nil
}
