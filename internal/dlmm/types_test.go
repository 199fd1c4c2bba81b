// internal/dlmm/types_test.go
package dlmm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolSidesMapping(t *testing.T) {
	tests := []struct {
		name       string
		reserveIsX bool
		x, y       uint64
		want       Capital
	}{
		{"reserve is X", true, 10, 20, Capital{Reserve: 10, Token: 20}},
		{"reserve is Y", false, 10, 20, Capital{Reserve: 20, Token: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &PoolMetadata{ReserveIsX: tt.reserveIsX}
			got := p.Sides(tt.x, tt.y)
			assert.Equal(t, tt.want, got)

			x, y := p.XY(got)
			assert.Equal(t, tt.x, x)
			assert.Equal(t, tt.y, y)
		})
	}
}

func TestPoolMintsFollowReserveSide(t *testing.T) {
	p := &PoolMetadata{MintX: "TOKEN", MintY: "SOL", DecimalsX: 6, DecimalsY: 9}
	assert.Equal(t, "SOL", p.ReserveMint())
	assert.Equal(t, "TOKEN", p.TokenMint())
	assert.Equal(t, uint8(9), p.ReserveDecimals())
	assert.Equal(t, uint8(6), p.TokenDecimals())
}

func TestIsPermanent(t *testing.T) {
	assert.True(t, IsPermanent(fmt.Errorf("open: %w", ErrPositionExists)))
	assert.False(t, IsPermanent(ErrPositionNotFound))
}

func TestParseStrategy(t *testing.T) {
	st, err := ParseStrategy("bid_ask")
	assert.NoError(t, err)
	assert.Equal(t, StrategyBidAsk, st)

	_, err = ParseStrategy("martingale")
	assert.Error(t, err)
}
