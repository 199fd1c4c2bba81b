// internal/blockchain/solbc/client.go
package solbc

import (
	"context"
	"errors"
	"sort"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// rpcAPI - подмножество rpc.Client, которое нужно боту
type rpcAPI interface {
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetRecentPrioritizationFees(ctx context.Context, accounts solana.PublicKeySlice) ([]rpc.PriorizationFeeResult, error)
}

// Client – тонкий адаптер для чтения состояния кошелька через solana-go.
// Используется в preflight-оценке перед ребалансировкой.
type Client struct {
	rpc         rpcAPI
	wallet      solana.PublicKey
	feeAccounts solana.PublicKeySlice
	logger      *zap.Logger
}

var ErrNilBalance = errors.New("empty balance response")

// NewClient создаёт клиент. feeAccounts - аккаунты (пул), по которым оценивается priority fee.
func NewClient(rpcURL string, wallet solana.PublicKey, feeAccounts []solana.PublicKey, logger *zap.Logger) *Client {
	return newClient(rpc.New(rpcURL), wallet, feeAccounts, logger)
}

func newClient(api rpcAPI, wallet solana.PublicKey, feeAccounts []solana.PublicKey, logger *zap.Logger) *Client {
	return &Client{
		rpc:         api,
		wallet:      wallet,
		feeAccounts: feeAccounts,
		logger:      logger.Named("solbc-client"),
	}
}

// ReserveBalance возвращает баланс кошелька в lamports.
func (c *Client) ReserveBalance(ctx context.Context) (uint64, error) {
	result, err := c.rpc.GetBalance(ctx, c.wallet, rpc.CommitmentConfirmed)
	if err != nil {
		c.logger.Error("GetBalance error", zap.Error(err))
		return 0, err
	}
	if result == nil {
		return 0, ErrNilBalance
	}
	return result.Value, nil
}

// PriorityFee оценивает priority fee (lamports) для транзакции на computeUnits
// по медиане ненулевых недавних ставок.
func (c *Client) PriorityFee(ctx context.Context, computeUnits uint32) (uint64, error) {
	fees, err := c.rpc.GetRecentPrioritizationFees(ctx, c.feeAccounts)
	if err != nil {
		c.logger.Warn("GetRecentPrioritizationFees error", zap.Error(err))
		return 0, err
	}

	microLamports := medianFee(fees)
	// ставка в micro-lamports за compute unit
	total := microLamports * uint64(computeUnits) / 1_000_000
	c.logger.Debug("Priority fee estimate",
		zap.Uint64("micro_lamports_per_cu", microLamports),
		zap.Uint32("compute_units", computeUnits),
		zap.Uint64("lamports", total))
	return total, nil
}

func medianFee(fees []rpc.PriorizationFeeResult) uint64 {
	values := make([]uint64, 0, len(fees))
	for _, f := range fees {
		if f.PrioritizationFee > 0 {
			values = append(values, f.PrioritizationFee)
		}
	}
	if len(values) == 0 {
		return 0
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	return values[len(values)/2]
}
