// =============================
// File: internal/dlmm/types.go
// =============================
package dlmm

import (
	"fmt"
	"time"
)

// Direction - направление выхода цены из диапазона
type Direction string

const (
	DirectionNone Direction = ""
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

func (d Direction) String() string {
	if d == DirectionNone {
		return "none"
	}
	return string(d)
}

// StrategyType - форма распределения ликвидности по бинам
type StrategyType string

const (
	StrategySpot   StrategyType = "spot"
	StrategyCurve  StrategyType = "curve"
	StrategyBidAsk StrategyType = "bid_ask"
)

func ParseStrategy(s string) (StrategyType, error) {
	switch st := StrategyType(s); st {
	case StrategySpot, StrategyCurve, StrategyBidAsk:
		return st, nil
	default:
		return "", fmt.Errorf("unknown strategy %q", s)
	}
}

// PoolMetadata - нормализованное описание пула.
// Резервный актив (SOL) может быть как X, так и Y.
type PoolMetadata struct {
	Address    string
	MintX      string
	MintY      string
	DecimalsX  uint8
	DecimalsY  uint8
	ReserveIsX bool
	BinStep    uint16
	ActiveBin  int32
}

func (p *PoolMetadata) ReserveMint() string {
	if p.ReserveIsX {
		return p.MintX
	}
	return p.MintY
}

func (p *PoolMetadata) TokenMint() string {
	if p.ReserveIsX {
		return p.MintY
	}
	return p.MintX
}

func (p *PoolMetadata) ReserveDecimals() uint8 {
	if p.ReserveIsX {
		return p.DecimalsX
	}
	return p.DecimalsY
}

func (p *PoolMetadata) TokenDecimals() uint8 {
	if p.ReserveIsX {
		return p.DecimalsY
	}
	return p.DecimalsX
}

// Sides переводит пару X/Y в reserve/token
func (p *PoolMetadata) Sides(x, y uint64) Capital {
	if p.ReserveIsX {
		return Capital{Reserve: x, Token: y}
	}
	return Capital{Reserve: y, Token: x}
}

// XY - обратное преобразование для запросов к SDK
func (p *PoolMetadata) XY(c Capital) (x, y uint64) {
	if p.ReserveIsX {
		return c.Reserve, c.Token
	}
	return c.Token, c.Reserve
}

// Capital - суммы в base units по сторонам
type Capital struct {
	Reserve uint64
	Token   uint64
}

func (c Capital) IsZero() bool { return c.Reserve == 0 && c.Token == 0 }

type BinLiquidity struct {
	BinID   int32
	AmountX uint64
	AmountY uint64
}

// PositionSnapshot - нормализованное состояние позиции на момент опроса
type PositionSnapshot struct {
	PositionID string
	Pool       string
	LowerBin   int32
	UpperBin   int32
	Bins       []BinLiquidity
	TotalX     uint64
	TotalY     uint64
	FeeX       uint64
	FeeY       uint64
	ObservedAt time.Time
}

// Amounts возвращает суммы позиции и невостребованные комиссии по сторонам
func (s *PositionSnapshot) Amounts(pool *PoolMetadata) (amounts, fees Capital) {
	return pool.Sides(s.TotalX, s.TotalY), pool.Sides(s.FeeX, s.FeeY)
}

type SwaplessOptions struct {
	Direction Direction
}

// OpenRequest - параметры открытия позиции. MinBin/MaxBin считает движок,
// SDK только исполняет.
type OpenRequest struct {
	Pool          string
	MinBin        int32
	MaxBin        int32
	Span          int
	AmountX       uint64
	AmountY       uint64
	ReserveRatio  float64
	Strategy      StrategyType
	Swapless      *SwaplessOptions
	AllowExisting bool
}

type OpenResult struct {
	PositionID string
	// DepositUSD - стоимость внесенного по оценке SDK, 0 если неизвестна
	DepositUSD float64
	Signature  string
}

type CloseResult struct {
	PositionID string
	AmountX    uint64
	AmountY    uint64
	FeeX       uint64
	FeeY       uint64
	Signature  string
	Success    bool
}

// Sides возвращает выведенные суммы и комиссии по сторонам
func (r *CloseResult) Sides(pool *PoolMetadata) (withdrawn, fees Capital) {
	return pool.Sides(r.AmountX, r.AmountY), pool.Sides(r.FeeX, r.FeeY)
}
