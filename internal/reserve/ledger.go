// internal/reserve/ledger.go
package reserve

import "fmt"

// Side определяет, к какому активу относится отложенная сумма
type Side int

const (
	SideReserve Side = iota // нативный актив (SOL)
	SideToken
)

// Ledger - отладочный учет сумм, отложенных при переоткрытии позиции.
// На корректность не влияет, нужен чтобы отображаемый P&L можно было сверить.
// Все значения в base units (lamports для резерва), поэтому отрицательными быть не могут.
type Ledger struct {
	FeeBuffer      uint64 // оставлено на комиссии
	Capped         uint64 // срезано лимитом max_reserve_deploy
	Rounding       uint64 // округление вниз
	TrimmedReserve uint64
	TrimmedToken   uint64
}

func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) AddFeeBuffer(lamports uint64) { l.FeeBuffer += lamports }

func (l *Ledger) AddCapped(lamports uint64) { l.Capped += lamports }

func (l *Ledger) AddRounding(lamports uint64) { l.Rounding += lamports }

// AddTrimmed учитывает сумму, не внесенную в позицию из соображений безопасности
func (l *Ledger) AddTrimmed(side Side, amount uint64) {
	switch side {
	case SideReserve:
		l.TrimmedReserve += amount
	case SideToken:
		l.TrimmedToken += amount
	}
}

// TotalReserve - все, что осталось в кошельке на стороне резерва
func (l *Ledger) TotalReserve() uint64 {
	return l.FeeBuffer + l.Capped + l.Rounding + l.TrimmedReserve
}

func (l *Ledger) Reset() {
	*l = Ledger{}
}

// Replace сбрасывает учет и переносит значения из pending.
// Вызывается ровно один раз на успешное открытие позиции.
func (l *Ledger) Replace(pending *Ledger) {
	l.Reset()
	if pending != nil {
		*l = *pending
	}
}

// Snapshot возвращает копию для сводки
func (l *Ledger) Snapshot() Ledger {
	return *l
}

func (l *Ledger) IsZero() bool {
	return *l == Ledger{}
}

func (l Ledger) String() string {
	return fmt.Sprintf("fee_buffer=%d capped=%d rounding=%d trimmed_reserve=%d trimmed_token=%d",
		l.FeeBuffer, l.Capped, l.Rounding, l.TrimmedReserve, l.TrimmedToken)
}
