// internal/monitor/config.go
package monitor

import (
	"errors"
	"time"

	"github.com/rovshanmuradov/dlmm-bot/internal/dlmm"
	"github.com/rovshanmuradov/dlmm-bot/internal/exit"
	"github.com/rovshanmuradov/dlmm-bot/internal/session"
	"github.com/rovshanmuradov/dlmm-bot/internal/strategy"
)

// Config - параметры одной сессии мониторинга. Суммы депозита в UI-единицах,
// в base units они переводятся после загрузки метаданных пула.
type Config struct {
	Pool           string
	Span           int
	ReserveRatio   float64
	Strategy       dlmm.StrategyType
	DepositReserve float64
	DepositToken   float64
	AllowExisting  bool

	Swapless     bool
	AutoCompound bool
	CompoundMode session.CompoundMode
	Capital      strategy.CapitalPolicy

	GateBins  int
	RearmGate bool

	Exit                     exit.Config
	TrailingResetOnRebalance bool

	TickInterval     time.Duration
	CheckInterval    time.Duration
	Cooldown         time.Duration
	LookupRetries    int
	LookupDelay      time.Duration
	MaxPriceFailures int
	CloseOnShutdown  bool

	Preflight PreflightConfig
}

// PreflightConfig - оценка накладных расходов ребалансировки, все в лампортах
type PreflightConfig struct {
	PositionRent uint64
	BaseFee      uint64
	TxCount      int
	SafetyBuffer uint64
	// PriorityFee используется, если сеть не вернула оценку
	PriorityFee          uint64
	ComputeUnits         uint32
	IncludeWalletBalance bool
}

func (c *Config) validate() error {
	switch {
	case c.Pool == "":
		return errors.New("pool address is required")
	case c.Span <= 0:
		return errors.New("span must be positive")
	case c.DepositReserve < 0 || c.DepositToken < 0:
		return errors.New("deposit amounts must not be negative")
	case c.DepositReserve == 0 && c.DepositToken == 0:
		return errors.New("deposit is empty")
	case c.TickInterval <= 0:
		return errors.New("tick interval must be positive")
	case c.CheckInterval < c.TickInterval:
		return errors.New("check interval must not be shorter than tick interval")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Strategy == "" {
		c.Strategy = dlmm.StrategySpot
	}
	if c.CompoundMode == "" {
		c.CompoundMode = session.CompoundBoth
	}
	if c.LookupRetries <= 0 {
		c.LookupRetries = 5
	}
	if c.MaxPriceFailures <= 0 {
		c.MaxPriceFailures = 10
	}
	if c.Preflight.TxCount <= 0 {
		c.Preflight.TxCount = 1
	}
}
