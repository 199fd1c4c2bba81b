// =============================
// File: internal/dlmm/dlmm.go
// =============================
package dlmm

import (
	"context"
	"errors"

	"github.com/rovshanmuradov/dlmm-bot/internal/reserve"
)

var (
	// ErrPositionExists - у аккаунта уже есть позиция в пуле, а обход не разрешен.
	ErrPositionExists   = errors.New("account already has a position in this pool")
	ErrPositionNotFound = errors.New("position not found")
	ErrPriceUnavailable = errors.New("price unavailable")
	// ErrUnsupportedPool - SOL должен быть Y: размещение считает, что резерв живет ниже активного бина.
	ErrUnsupportedPool  = errors.New("unsupported pool layout")
)

// IsPermanent сообщает, что повтор вызова не изменит результат.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPositionExists) || errors.Is(err, ErrUnsupportedPool)
}

// PoolClient - граница с SDK пула. Реализации обязаны возвращать
// нормализованные типы этого пакета.
type PoolClient interface {
	// GetPool возвращает метаданные пула и текущий активный бин.
	GetPool(ctx context.Context, pool string) (*PoolMetadata, error)
	GetActiveBin(ctx context.Context, pool string) (int32, error)
	// GetPosition возвращает nil, nil если позиция не найдена (закрыта или индекс отстает).
	GetPosition(ctx context.Context, positionID string) (*PositionSnapshot, error)
	// ListPositions возвращает id позиций кошелька в пуле.
	ListPositions(ctx context.Context, pool string) ([]string, error)
	// OpenPosition создает позицию. Суммы, которые SDK отложил сам, записываются в ledger.
	OpenPosition(ctx context.Context, req *OpenRequest, ledger *reserve.Ledger) (*OpenResult, error)
	// ClosePosition выводит всю ликвидность и забирает комиссии.
	ClosePosition(ctx context.Context, positionID string) (*CloseResult, error)
}

// PriceOracle возвращает цену актива в USD или ErrPriceUnavailable.
type PriceOracle interface {
	GetPrice(ctx context.Context, mint string) (float64, error)
}

// Swapper обменивает amount (base units) inMint на outMint и возвращает подпись.
type Swapper interface {
	Swap(ctx context.Context, inMint, outMint string, amount uint64) (string, error)
}
