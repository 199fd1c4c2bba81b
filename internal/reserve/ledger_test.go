// internal/reserve/ledger_test.go
package reserve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedgerTallies(t *testing.T) {
	l := NewLedger()
	l.AddFeeBuffer(50_000_000)
	l.AddCapped(1_000_000_000)
	l.AddRounding(999)
	l.AddTrimmed(SideReserve, 10)
	l.AddTrimmed(SideToken, 42)

	assert.Equal(t, uint64(50_000_000+1_000_000_000+999+10), l.TotalReserve())
	assert.Equal(t, uint64(42), l.TrimmedToken)
	assert.False(t, l.IsZero())
}

func TestLedgerReplaceResetsBeforeApplying(t *testing.T) {
	current := NewLedger()
	current.AddFeeBuffer(5)
	current.AddTrimmed(SideToken, 7)

	pending := NewLedger()
	pending.AddCapped(3)

	current.Replace(pending)

	assert.Equal(t, Ledger{Capped: 3}, current.Snapshot())
}

func TestLedgerReplaceWithNilResets(t *testing.T) {
	l := NewLedger()
	l.AddRounding(1)
	l.Replace(nil)
	assert.True(t, l.IsZero())
}

func TestSnapshotIsACopy(t *testing.T) {
	l := NewLedger()
	l.AddFeeBuffer(1)
	snap := l.Snapshot()
	l.AddFeeBuffer(1)

	assert.Equal(t, uint64(1), snap.FeeBuffer)
	assert.Equal(t, uint64(2), l.FeeBuffer)
}
