// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"
)

// Config holds application settings loaded from config.yaml / config.json.
type Config struct {
	RPCURL        string `mapstructure:"rpc_url"`
	WalletAddress string `mapstructure:"wallet_address"`
	GatewayURL    string `mapstructure:"gateway_url"`
	PriceAPIURL   string `mapstructure:"price_api_url"`
	PoolAddress   string `mapstructure:"pool_address"`
	DebugLogging  bool   `mapstructure:"debug_logging"`
	LogFile       string `mapstructure:"log_file"`
	MetricsAddr   string `mapstructure:"metrics_addr"`
	ReportDir     string `mapstructure:"report_dir"`
	ReportFormat  string `mapstructure:"report_format"`

	Position  PositionConfig  `mapstructure:"position"`
	Rebalance RebalanceConfig `mapstructure:"rebalance"`
	Exit      ExitConfig      `mapstructure:"exit"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Preflight PreflightConfig `mapstructure:"preflight"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Price     PriceConfig     `mapstructure:"price"`
}

// PositionConfig описывает начальную позицию
type PositionConfig struct {
	SpanBins       int     `mapstructure:"span_bins"`
	ReserveRatio   float64 `mapstructure:"reserve_ratio"`
	Strategy       string  `mapstructure:"strategy"`
	DepositReserve float64 `mapstructure:"deposit_reserve"`
	DepositToken   float64 `mapstructure:"deposit_token"`
	AllowExisting  bool    `mapstructure:"allow_existing"`
}

type RebalanceConfig struct {
	Swapless             bool    `mapstructure:"swapless"`
	AutoCompound         bool    `mapstructure:"auto_compound"`
	CompoundMode         string  `mapstructure:"compound_mode"`
	InitialGateBins      int     `mapstructure:"initial_gate_bins"`
	RearmGateOnRebalance bool    `mapstructure:"rearm_gate_on_rebalance"`
	FeeBufferSOL         float64 `mapstructure:"fee_buffer_sol"`
	MaxReserveDeploySOL  float64 `mapstructure:"max_reserve_deploy_sol"`
}

// ExitConfig: 0 отключает правило
type ExitConfig struct {
	TakeProfitPercent        float64 `mapstructure:"take_profit_percent"`
	StopLossPercent          float64 `mapstructure:"stop_loss_percent"`
	TrailingTriggerPercent   float64 `mapstructure:"trailing_trigger_percent"`
	TrailingDistancePercent  float64 `mapstructure:"trailing_distance_percent"`
	TrailingResetOnRebalance bool    `mapstructure:"trailing_reset_on_rebalance"`
}

type MonitorConfig struct {
	TickInterval             time.Duration `mapstructure:"-"`
	TickIntervalMS           int           `mapstructure:"tick_interval"`
	RebalanceCheckInterval   time.Duration `mapstructure:"-"`
	RebalanceCheckIntervalMS int           `mapstructure:"rebalance_check_interval"`
	RebalanceCooldown        time.Duration `mapstructure:"-"`
	RebalanceCooldownMS      int           `mapstructure:"rebalance_cooldown"`
	PositionLookupDelay      time.Duration `mapstructure:"-"`
	PositionLookupDelayMS    int           `mapstructure:"position_lookup_delay"`
	PositionLookupRetries    int           `mapstructure:"position_lookup_retries"`
	MaxPriceFailures         int           `mapstructure:"max_price_failures"`
	CloseOnShutdown          bool          `mapstructure:"close_on_shutdown"`
}

type PreflightConfig struct {
	PositionRentSOL      float64 `mapstructure:"position_rent_sol"`
	BaseFeeLamports      uint64  `mapstructure:"base_fee_lamports"`
	TxCount              int     `mapstructure:"tx_count"`
	SafetyBufferSOL      float64 `mapstructure:"safety_buffer_sol"`
	PriorityFeeLamports  uint64  `mapstructure:"priority_fee_lamports"`
	ComputeUnits         uint32  `mapstructure:"compute_units"`
	IncludeWalletBalance bool    `mapstructure:"include_wallet_balance"`
}

type GatewayConfig struct {
	Timeout   time.Duration `mapstructure:"-"`
	TimeoutMS int           `mapstructure:"timeout"`
}

type PriceConfig struct {
	Timeout           time.Duration `mapstructure:"-"`
	TimeoutMS         int           `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	CacheTTL          time.Duration `mapstructure:"-"`
	CacheTTLMS        int           `mapstructure:"cache_ttl"`
}

const (
	DefaultSpanBins        = 69
	DefaultTickInterval    = 10_000
	DefaultCheckInterval   = 30_000
	DefaultCooldown        = 60_000
	DefaultLookupDelay     = 3_000
	DefaultLookupRetries   = 5
	DefaultPriceFailures   = 10
	DefaultInitialGateBins = 2
	DefaultGatewayTimeout  = 30_000
	DefaultPriceTimeout    = 10_000
	DefaultPriceAPIURL     = "https://lite-api.jup.ag/price/v3"
	envPrefix              = "DLMM_BOT"
)

var defaults = map[string]interface{}{
	"price_api_url":                     DefaultPriceAPIURL,
	"debug_logging":                     false,
	"log_file":                          "dlmm-bot.log",
	"metrics_addr":                      "",
	"report_dir":                        "",
	"report_format":                     "json",
	"position.span_bins":                DefaultSpanBins,
	"position.reserve_ratio":            0.5,
	"position.strategy":                 "spot",
	"position.allow_existing":           false,
	"rebalance.swapless":                false,
	"rebalance.auto_compound":           true,
	"rebalance.compound_mode":           "both",
	"rebalance.initial_gate_bins":       DefaultInitialGateBins,
	"rebalance.rearm_gate_on_rebalance": false,
	"rebalance.fee_buffer_sol":          0.05,
	"rebalance.max_reserve_deploy_sol":  0.0,
	"exit.take_profit_percent":          0.0,
	"exit.stop_loss_percent":            0.0,
	"exit.trailing_trigger_percent":     0.0,
	"exit.trailing_distance_percent":    0.0,
	"exit.trailing_reset_on_rebalance":  true,
	"monitor.tick_interval":             DefaultTickInterval,
	"monitor.rebalance_check_interval":  DefaultCheckInterval,
	"monitor.rebalance_cooldown":        DefaultCooldown,
	"monitor.position_lookup_delay":     DefaultLookupDelay,
	"monitor.position_lookup_retries":   DefaultLookupRetries,
	"monitor.max_price_failures":        DefaultPriceFailures,
	"monitor.close_on_shutdown":         false,
	"preflight.position_rent_sol":       0.057,
	"preflight.base_fee_lamports":       5000,
	"preflight.tx_count":                4,
	"preflight.safety_buffer_sol":       0.01,
	"preflight.priority_fee_lamports":   100_000,
	"preflight.compute_units":           400_000,
	"preflight.include_wallet_balance":  false,
	"gateway.timeout":                   DefaultGatewayTimeout,
	"price.timeout":                     DefaultPriceTimeout,
	"price.requests_per_second":         1.0,
	"price.cache_ttl":                   5_000,
}

// LoadConfig reads configuration from the specified file path and performs validation.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// DLMM_BOT_RPC_URL, DLMM_BOT_MONITOR_TICK_INTERVAL, ...
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"rpc_url", "wallet_address", "gateway_url", "pool_address"} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config error: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal error: %w", err)
	}

	cfg.applyDurations()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Convert ms to Duration
func (c *Config) applyDurations() {
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }

	c.Monitor.TickInterval = ms(c.Monitor.TickIntervalMS)
	c.Monitor.RebalanceCheckInterval = ms(c.Monitor.RebalanceCheckIntervalMS)
	c.Monitor.RebalanceCooldown = ms(c.Monitor.RebalanceCooldownMS)
	c.Monitor.PositionLookupDelay = ms(c.Monitor.PositionLookupDelayMS)
	c.Gateway.Timeout = ms(c.Gateway.TimeoutMS)
	c.Price.Timeout = ms(c.Price.TimeoutMS)
	c.Price.CacheTTL = ms(c.Price.CacheTTLMS)
}

func (c *Config) validate() error {
	if err := validateURLWithCache(c.RPCURL, "http"); err != nil {
		return fmt.Errorf("rpc_url: %w", err)
	}
	if err := validateURLWithCache(c.GatewayURL, "http"); err != nil {
		return fmt.Errorf("gateway_url: %w", err)
	}
	if err := validateURLWithCache(c.PriceAPIURL, "http"); err != nil {
		return fmt.Errorf("price_api_url: %w", err)
	}
	if _, err := solana.PublicKeyFromBase58(c.PoolAddress); err != nil {
		return fmt.Errorf("invalid pool_address: %w", err)
	}
	if _, err := solana.PublicKeyFromBase58(c.WalletAddress); err != nil {
		return fmt.Errorf("invalid wallet_address: %w", err)
	}
	if c.ReportDir != "" && c.ReportFormat != "json" && c.ReportFormat != "csv" {
		return fmt.Errorf("unknown report_format %q", c.ReportFormat)
	}
	if err := c.validatePosition(); err != nil {
		return err
	}
	if err := c.validateExit(); err != nil {
		return err
	}
	return c.validateMonitor()
}

func (c *Config) validatePosition() error {
	p := c.Position
	if p.SpanBins <= 0 {
		return errors.New("position.span_bins must be positive")
	}
	if p.ReserveRatio < 0 || p.ReserveRatio > 1 {
		return errors.New("position.reserve_ratio must be within [0, 1]")
	}
	switch p.Strategy {
	case "spot", "curve", "bid_ask":
	default:
		return fmt.Errorf("unknown position.strategy %q", p.Strategy)
	}
	if p.DepositReserve < 0 || p.DepositToken < 0 {
		return errors.New("deposit amounts must not be negative")
	}
	if p.DepositReserve == 0 && p.DepositToken == 0 {
		return errors.New("nothing to deposit: set position.deposit_reserve or position.deposit_token")
	}

	switch c.Rebalance.CompoundMode {
	case "both", "sol_only", "token_only", "none":
	default:
		return fmt.Errorf("unknown rebalance.compound_mode %q", c.Rebalance.CompoundMode)
	}
	if c.Rebalance.InitialGateBins < 0 {
		return errors.New("invalid rebalance.initial_gate_bins")
	}
	if c.Rebalance.FeeBufferSOL < 0 || c.Rebalance.MaxReserveDeploySOL < 0 {
		return errors.New("rebalance reserve amounts must not be negative")
	}
	return nil
}

func (c *Config) validateExit() error {
	e := c.Exit
	if e.TakeProfitPercent != 0 && (e.TakeProfitPercent < 0.1 || e.TakeProfitPercent > 200) {
		return errors.New("exit.take_profit_percent must be within [0.1, 200]")
	}
	if e.StopLossPercent != 0 && (e.StopLossPercent < 0.1 || e.StopLossPercent > 100) {
		return errors.New("exit.stop_loss_percent must be within [0.1, 100]")
	}
	if e.TrailingTriggerPercent < 0 || e.TrailingDistancePercent < 0 {
		return errors.New("trailing stop percentages must not be negative")
	}
	if e.TrailingTriggerPercent > 0 && e.TrailingDistancePercent == 0 {
		return errors.New("exit.trailing_distance_percent is required when trailing stop is enabled")
	}
	return nil
}

func (c *Config) validateMonitor() error {
	m := c.Monitor
	if m.TickInterval <= 0 {
		return errors.New("invalid monitor.tick_interval")
	}
	if m.RebalanceCheckInterval < m.TickInterval {
		return errors.New("monitor.rebalance_check_interval must not be shorter than monitor.tick_interval")
	}
	if m.RebalanceCooldown < 0 || m.PositionLookupDelay < 0 {
		return errors.New("invalid monitor delays")
	}
	if m.PositionLookupRetries <= 0 {
		c.Monitor.PositionLookupRetries = DefaultLookupRetries
	}
	if m.MaxPriceFailures <= 0 {
		c.Monitor.MaxPriceFailures = DefaultPriceFailures
	}
	if c.Preflight.TxCount < 0 {
		return errors.New("invalid preflight.tx_count")
	}
	if c.Price.RequestsPerSecond <= 0 {
		return errors.New("invalid price.requests_per_second")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if rawURL == "" {
		return errors.New("URL is required")
	}
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}
