// internal/strategy/gate_test.go
package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rovshanmuradov/dlmm-bot/internal/dlmm"
)

func TestGateDownDirection(t *testing.T) {
	// позиция выше стартового бина (токен) ждет движения вниз
	g := NewGate(100, 100, 120, 2)
	assert.Equal(t, dlmm.DirectionDown, g.Direction())

	assert.True(t, g.Observe(99), "moved 1 < 2")
	assert.True(t, g.Active())

	assert.False(t, g.Observe(97), "moved 3 >= 2")
	assert.False(t, g.Active())
}

func TestGateStaysReleased(t *testing.T) {
	g := NewGate(100, 100, 120, 2)
	g.Observe(97)

	// возврат к старту не взводит гейт снова
	assert.False(t, g.Observe(100))
	assert.False(t, g.Active())
}

func TestGateUpDirectionIgnoresMoveAgainst(t *testing.T) {
	g := NewGate(100, 80, 100, 2)
	assert.Equal(t, dlmm.DirectionUp, g.Direction())

	assert.True(t, g.Observe(95), "moving down is not progress for a reserve-sided position")
	assert.True(t, g.Observe(101))
	assert.False(t, g.Observe(102))
}

func TestGateSymmetricUsesAbsoluteDistance(t *testing.T) {
	g := NewGate(100, 90, 110, 3)
	assert.Equal(t, dlmm.DirectionNone, g.Direction())

	assert.True(t, g.Observe(98))
	assert.False(t, g.Observe(97))
}

func TestGateDisabledWithZeroThreshold(t *testing.T) {
	g := NewGate(100, 90, 110, 0)
	assert.False(t, g.Active())
	assert.False(t, g.Observe(100))
}
